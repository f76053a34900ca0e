package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/cache"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/metrics"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/publisher"
)

// sampleEvaluator is the synchronous per-sample hook run after a sample is
// accepted. Evaluation is best-effort: a failure never rolls back the write.
type sampleEvaluator interface {
	Evaluate(ctx context.Context, vehicle *domain.Vehicle, sample *domain.LocationSample) error
}

// LocationService is the ingestion gateway. It validates samples, appends
// them to the telemetry store, refreshes the location cache, runs the
// geofence and speed evaluators, and fans out a location event.
type LocationService struct {
	repo       database.TelemetryRepository
	cache      *cache.LocationCache
	directory  domain.VehicleDirectory
	evaluators []sampleEvaluator
	publisher  publisher.EventPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewLocationService(
	repo database.TelemetryRepository,
	locCache *cache.LocationCache,
	directory domain.VehicleDirectory,
	pub publisher.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	evaluators ...sampleEvaluator,
) *LocationService {
	return &LocationService{
		repo:       repo,
		cache:      locCache,
		directory:  directory,
		evaluators: evaluators,
		publisher:  pub,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

func validateSample(s *domain.LocationSample) error {
	if s.VehicleID == "" {
		return domain.NewValidationError("vehicle_id", "required")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return domain.NewValidationError("latitude", "must be between -90 and 90")
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return domain.NewValidationError("longitude", "must be between -180 and 180")
	}
	return nil
}

// RecordLocation accepts one sample. Persistence is the durable fact;
// cache refresh, evaluation and publishing never roll it back.
func (s *LocationService) RecordLocation(ctx context.Context, sample *domain.LocationSample) (*domain.LocationSample, error) {
	if err := validateSample(sample); err != nil {
		s.metrics.SamplesRejected.Inc()
		return nil, err
	}

	// a directory outage is not "vehicle not found"; only a clean lookup
	// that yields no active vehicle rejects the sample as unknown
	vehicle, err := s.directory.Vehicle(ctx, sample.VehicleID)
	if err != nil {
		s.metrics.SamplesRejected.Inc()
		return nil, err
	}
	if vehicle == nil || !vehicle.Active {
		s.metrics.SamplesRejected.Inc()
		return nil, domain.NewNotFoundError("vehicle", sample.VehicleID)
	}

	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.now()
	}

	if err := s.repo.Insert(ctx, sample); err != nil {
		s.metrics.SamplesRejected.Inc()
		return nil, err
	}
	s.metrics.SamplesAccepted.Inc()

	s.cache.Put(*sample)

	for _, ev := range s.evaluators {
		if err := ev.Evaluate(ctx, vehicle, sample); err != nil {
			s.logger.Error("sample evaluation failed", "vehicle_id", sample.VehicleID, "error", err)
		}
	}

	go s.publishLocation(vehicle, sample)

	return sample, nil
}

func (s *LocationService) publishLocation(vehicle *domain.Vehicle, sample *domain.LocationSample) {
	event := &domain.Event{
		Kind:      domain.EventLocationUpdate,
		VehicleID: sample.VehicleID,
		SchoolID:  vehicle.SchoolID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: s.now(),
		Payload:   sample,
	}
	if err := s.publisher.Publish(context.Background(), event); err != nil {
		s.logger.Warn("location event publish failed", "vehicle_id", sample.VehicleID, "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(domain.EventLocationUpdate)).Inc()
}

// RecordLocationsBulk processes samples sequentially; one item's failure
// never aborts the remainder.
func (s *LocationService) RecordLocationsBulk(ctx context.Context, samples []domain.LocationSample) *domain.BulkResult {
	result := &domain.BulkResult{
		Total:   len(samples),
		Results: make([]domain.BulkItemResult, 0, len(samples)),
	}

	for i := range samples {
		item := domain.BulkItemResult{Index: i, VehicleID: samples[i].VehicleID}
		if _, err := s.RecordLocation(ctx, &samples[i]); err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			item.OK = true
			result.Successful++
		}
		result.Results = append(result.Results, item)
	}
	return result
}

// GetCurrentLocation serves from the cache when fresh, falling back to the
// latest store row on a miss and repopulating the cache.
func (s *LocationService) GetCurrentLocation(ctx context.Context, vehicleID string) (*domain.CurrentLocation, error) {
	if loc, ok := s.cache.Get(vehicleID); ok {
		return loc, nil
	}

	sample, err := s.repo.GetLatest(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	s.cache.Put(*sample)
	return &domain.CurrentLocation{
		Sample:   *sample,
		CachedAt: s.now(),
		Source:   domain.SourceStore,
	}, nil
}

// GetMultipleCurrentLocations is best-effort: vehicles without any
// recorded data are omitted, not errors.
func (s *LocationService) GetMultipleCurrentLocations(ctx context.Context, vehicleIDs []string) []domain.CurrentLocation {
	results := make([]domain.CurrentLocation, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		loc, err := s.GetCurrentLocation(ctx, id)
		if err != nil {
			if !domain.IsNotFound(err) {
				s.logger.Warn("current location lookup failed", "vehicle_id", id, "error", err)
			}
			continue
		}
		results = append(results, *loc)
	}
	return results
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.LocationSample, error) {
	return s.repo.GetHistory(ctx, query)
}
