// Package cache holds the ephemeral per-vehicle "current location" view.
// The telemetry store is authoritative; entries here expire after a TTL
// and are repopulated from the store on the next read.
package cache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

type entry struct {
	sample   domain.LocationSample
	cachedAt time.Time
}

type LocationCache struct {
	entries *xsync.Map[string, entry]
	ttl     time.Duration
	now     func() time.Time
}

func NewLocationCache(ttl time.Duration) *LocationCache {
	return &LocationCache{
		entries: xsync.NewMap[string, entry](),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put refreshes the entry for the sample's vehicle. Writes are guarded by
// the sample timestamp: an older sample never overwrites a fresher entry,
// so concurrent or out-of-order ingestion cannot regress the view.
// Reports whether the entry was updated.
func (c *LocationCache) Put(sample domain.LocationSample) bool {
	updated := false
	c.entries.Compute(sample.VehicleID, func(old entry, loaded bool) (entry, xsync.ComputeOp) {
		if loaded && sample.Timestamp.Before(old.sample.Timestamp) {
			return old, xsync.CancelOp
		}
		updated = true
		return entry{sample: sample, cachedAt: c.now()}, xsync.UpdateOp
	})
	return updated
}

// Get returns the cached location for a vehicle. An entry older than the
// TTL is treated as a miss and evicted.
func (c *LocationCache) Get(vehicleID string) (*domain.CurrentLocation, bool) {
	e, ok := c.entries.Load(vehicleID)
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.cachedAt) > c.ttl {
		c.entries.Delete(vehicleID)
		return nil, false
	}
	return &domain.CurrentLocation{
		Sample:   e.sample,
		CachedAt: e.cachedAt,
		Source:   domain.SourceCache,
	}, true
}

// Invalidate drops a vehicle's entry.
func (c *LocationCache) Invalidate(vehicleID string) {
	c.entries.Delete(vehicleID)
}
