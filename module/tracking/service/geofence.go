package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/metrics"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/publisher"
)

// GeofenceService evaluates samples against registered boundaries and
// detects enter/exit transitions. Containment state is kept per
// (vehicle, geofence) pair; a transition fires only when the observed
// containment differs from the last recorded one.
type GeofenceService struct {
	repo      database.GeofenceRepository
	publisher publisher.EventPublisher
	notifier  domain.Notifier
	directory domain.VehicleDirectory
	state     *xsync.Map[string, domain.Containment]
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewGeofenceService(
	repo database.GeofenceRepository,
	pub publisher.EventPublisher,
	notifier domain.Notifier,
	directory domain.VehicleDirectory,
	m *metrics.Metrics,
	logger *slog.Logger,
) *GeofenceService {
	return &GeofenceService{
		repo:      repo,
		publisher: pub,
		notifier:  notifier,
		directory: directory,
		state:     xsync.NewMap[string, domain.Containment](),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func stateKey(vehicleID, geofenceID string) string {
	return vehicleID + "/" + geofenceID
}

func containmentOf(inside bool) domain.Containment {
	if inside {
		return domain.Inside
	}
	return domain.Outside
}

// Evaluate runs the containment test for every active geofence of the
// vehicle. State is updated unconditionally; the first observation for a
// pair seeds state without emitting an edge.
func (s *GeofenceService) Evaluate(ctx context.Context, vehicle *domain.Vehicle, sample *domain.LocationSample) error {
	fences, err := s.repo.GetActiveByVehicle(ctx, sample.VehicleID)
	if err != nil {
		return err
	}

	for i := range fences {
		gf := &fences[i]
		dist := haversine(sample.Latitude, sample.Longitude, gf.CenterLat, gf.CenterLon)
		containment := containmentOf(dist <= gf.RadiusMeters) // boundary inclusive

		key := stateKey(sample.VehicleID, gf.ID)
		var prev domain.Containment
		var seen bool
		s.state.Compute(key, func(old domain.Containment, loaded bool) (domain.Containment, xsync.ComputeOp) {
			prev, seen = old, loaded
			return containment, xsync.UpdateOp
		})

		if !seen || prev == containment {
			continue
		}

		action := domain.ActionExit
		if containment == domain.Inside {
			action = domain.ActionEnter
		}

		if (action == domain.ActionEnter && !gf.AlertOnEnter) ||
			(action == domain.ActionExit && !gf.AlertOnExit) {
			continue
		}

		if err := s.HandleViolation(ctx, vehicle, gf, action, sample); err != nil {
			s.logger.Error("geofence violation handling failed",
				"vehicle_id", sample.VehicleID, "geofence_id", gf.ID, "error", err)
		}
	}
	return nil
}

// HandleViolation persists the alert record, then publishes the event and
// invokes the external notifier. The durable row is written first; fan-out
// failures are logged and swallowed.
func (s *GeofenceService) HandleViolation(ctx context.Context, vehicle *domain.Vehicle, gf *domain.Geofence, action domain.GeofenceAction, sample *domain.LocationSample) error {
	alert := &domain.GeofenceAlert{
		ID:        uuid.NewString(),
		VehicleID: sample.VehicleID,
		Geofence:  gf.ID,
		Name:      gf.Name,
		Action:    action,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: sample.Timestamp,
	}

	if err := s.repo.InsertAlert(ctx, alert); err != nil {
		return err
	}
	s.metrics.Violations.WithLabelValues(string(domain.EventGeofenceViolation)).Inc()

	event := &domain.Event{
		Kind:      domain.EventGeofenceViolation,
		VehicleID: sample.VehicleID,
		SchoolID:  vehicle.SchoolID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: s.now(),
		Payload:   alert,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("geofence event publish failed", "vehicle_id", sample.VehicleID, "error", err)
	} else {
		s.metrics.EventsPublished.WithLabelValues(string(domain.EventGeofenceViolation)).Inc()
	}

	if err := s.notifier.NotifyGeofence(ctx, alert); err != nil {
		s.logger.Warn("geofence notification failed", "vehicle_id", sample.VehicleID, "error", err)
	}
	return nil
}

// CheckViolation is the on-demand containment probe exposed over HTTP.
// It runs the same stateful evaluation an ingested sample would.
func (s *GeofenceService) CheckViolation(ctx context.Context, vehicleID string, lat, lon float64) error {
	vehicle, err := s.directory.Vehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	if vehicle == nil {
		return domain.NewNotFoundError("vehicle", vehicleID)
	}
	sample := &domain.LocationSample{
		VehicleID: vehicleID,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: s.now(),
	}
	return s.Evaluate(ctx, vehicle, sample)
}

// Geofence CRUD is owned by fleet management; these are thin passthroughs
// kept here so the HTTP surface has one home.

func (s *GeofenceService) Create(ctx context.Context, gf *domain.Geofence) (*domain.Geofence, error) {
	if gf.RadiusMeters <= 0 {
		return nil, domain.NewValidationError("radius_meters", "must be positive")
	}
	if gf.CenterLat < -90 || gf.CenterLat > 90 {
		return nil, domain.NewValidationError("center_lat", "must be between -90 and 90")
	}
	if gf.CenterLon < -180 || gf.CenterLon > 180 {
		return nil, domain.NewValidationError("center_lon", "must be between -180 and 180")
	}
	if gf.ID == "" {
		gf.ID = uuid.NewString()
	}
	if err := s.repo.Create(ctx, gf); err != nil {
		return nil, err
	}
	return gf, nil
}

func (s *GeofenceService) List(ctx context.Context, vehicleID string) ([]domain.Geofence, error) {
	return s.repo.ListByVehicle(ctx, vehicleID)
}

func (s *GeofenceService) Update(ctx context.Context, gf *domain.Geofence) error {
	return s.repo.Update(ctx, gf)
}

func (s *GeofenceService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
