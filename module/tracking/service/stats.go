package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
)

// activeWithin is how fresh the latest sample must be for a vehicle to
// count as actively reporting.
const activeWithin = 30 * time.Minute

// StatsService runs the read-only historical rollups and the retention
// cleanup. It reads the telemetry store directly and never touches the
// live cache or the ingestion write path.
type StatsService struct {
	telemetry database.TelemetryRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewStatsService(telemetry database.TelemetryRepository, logger *slog.Logger) *StatsService {
	return &StatsService{telemetry: telemetry, logger: logger, now: time.Now}
}

// GetTrackingStats rolls up the trailing N days for one vehicle. Distance
// is the sum of great-circle hops between consecutive samples.
func (s *StatsService) GetTrackingStats(ctx context.Context, vehicleID string, days int) (*domain.TrackingStats, error) {
	if days <= 0 {
		days = 7
	}
	now := s.now()
	start := now.AddDate(0, 0, -days)

	samples, err := s.telemetry.GetRange(ctx, vehicleID, start, now)
	if err != nil {
		return nil, err
	}

	stats := &domain.TrackingStats{
		VehicleID:   vehicleID,
		Days:        days,
		SampleCount: len(samples),
	}
	if len(samples) == 0 {
		return stats, nil
	}

	var speedSum float64
	var speedCount int
	for i := range samples {
		if samples[i].Speed != nil {
			speedSum += *samples[i].Speed
			speedCount++
		}
		if i > 0 {
			stats.DistanceKm += haversine(
				samples[i-1].Latitude, samples[i-1].Longitude,
				samples[i].Latitude, samples[i].Longitude,
			) / 1000
		}
	}
	if speedCount > 0 {
		stats.AverageSpeed = speedSum / float64(speedCount)
	}

	last := samples[len(samples)-1].Timestamp
	stats.LastUpdate = last
	stats.IsActive = now.Sub(last) < activeWithin

	return stats, nil
}

// CleanupOldData deletes samples older than the retention horizon and
// returns how many were removed. Runs out-of-band from ingestion.
func (s *StatsService) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, domain.NewValidationError("retention_days", "must be positive")
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	removed, err := s.telemetry.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("retention cleanup finished", "removed", removed, "cutoff", cutoff)
	return removed, nil
}
