package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/metrics"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/publisher"
)

// SpeedConfig holds the per-class limits and the escalation deltas above
// the limit.
type SpeedConfig struct {
	DefaultLimit   float64            // km/h
	ClassLimits    map[string]float64 // vehicle class -> limit
	WarningDelta   float64
	ViolationDelta float64
	CriticalDelta  float64
}

func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		DefaultLimit:   50,
		WarningDelta:   5,
		ViolationDelta: 15,
		CriticalDelta:  30,
	}
}

// SpeedService classifies samples against tiered thresholds and computes
// windowed speed analytics.
type SpeedService struct {
	telemetry  database.TelemetryRepository
	violations database.ViolationRepository
	publisher  publisher.EventPublisher
	notifier   domain.Notifier
	directory  domain.VehicleDirectory
	cfg        SpeedConfig
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewSpeedService(
	telemetry database.TelemetryRepository,
	violations database.ViolationRepository,
	pub publisher.EventPublisher,
	notifier domain.Notifier,
	directory domain.VehicleDirectory,
	cfg SpeedConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *SpeedService {
	return &SpeedService{
		telemetry:  telemetry,
		violations: violations,
		publisher:  pub,
		notifier:   notifier,
		directory:  directory,
		cfg:        cfg,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *SpeedService) limitFor(class string) float64 {
	if limit, ok := s.cfg.ClassLimits[class]; ok {
		return limit
	}
	return s.cfg.DefaultLimit
}

func (s *SpeedService) classify(speed, limit float64) (domain.Severity, bool) {
	switch {
	case speed >= limit+s.cfg.CriticalDelta:
		return domain.SeverityCritical, true
	case speed >= limit+s.cfg.ViolationDelta:
		return domain.SeverityViolation, true
	case speed >= limit+s.cfg.WarningDelta:
		return domain.SeverityWarning, true
	default:
		return "", false
	}
}

// Evaluate implements the per-sample hook; samples without a speed
// reading are skipped.
func (s *SpeedService) Evaluate(ctx context.Context, vehicle *domain.Vehicle, sample *domain.LocationSample) error {
	if sample.Speed == nil {
		return nil
	}
	_, err := s.MonitorSpeed(ctx, vehicle, *sample.Speed, sample)
	return err
}

// MonitorSpeed classifies one reading. Below the warning threshold it
// returns (nil, nil): no violation is the common case, not an error.
// At or above warning the violation row is persisted before any fan-out.
func (s *SpeedService) MonitorSpeed(ctx context.Context, vehicle *domain.Vehicle, speed float64, sample *domain.LocationSample) (*domain.SpeedViolation, error) {
	limit := s.limitFor(vehicle.Class)
	severity, exceeded := s.classify(speed, limit)
	if !exceeded {
		return nil, nil
	}

	driverID, err := s.directory.ActiveDriver(ctx, vehicle.ID)
	if err != nil {
		s.logger.Warn("driver session lookup failed", "vehicle_id", vehicle.ID, "error", err)
		driverID = ""
	}

	v := &domain.SpeedViolation{
		ID:           uuid.NewString(),
		VehicleID:    vehicle.ID,
		DriverID:     driverID,
		CurrentSpeed: speed,
		SpeedLimit:   limit,
		Latitude:     sample.Latitude,
		Longitude:    sample.Longitude,
		Severity:     severity,
		Timestamp:    sample.Timestamp,
	}

	if err := s.violations.Insert(ctx, v); err != nil {
		return nil, err
	}
	s.metrics.Violations.WithLabelValues(string(domain.EventSpeedViolation)).Inc()

	event := &domain.Event{
		Kind:      domain.EventSpeedViolation,
		VehicleID: vehicle.ID,
		SchoolID:  vehicle.SchoolID,
		DriverID:  driverID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: s.now(),
		Payload:   v,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("speed event publish failed", "vehicle_id", vehicle.ID, "error", err)
	} else {
		s.metrics.EventsPublished.WithLabelValues(string(domain.EventSpeedViolation)).Inc()
	}

	// direct driver alert only when a session is active
	if driverID != "" {
		if err := s.notifier.NotifySpeed(ctx, v); err != nil {
			s.logger.Warn("speed notification failed", "vehicle_id", vehicle.ID, "error", err)
		}
	}

	return v, nil
}

// GetSpeedAnalytics summarizes speed over a window. Distance is a
// trapezoidal integration of consecutive (speed, Δt) pairs. An empty
// window yields a zero-valued result, not an error.
func (s *SpeedService) GetSpeedAnalytics(ctx context.Context, vehicleID string, start, end time.Time) (*domain.SpeedAnalytics, error) {
	result := &domain.SpeedAnalytics{VehicleID: vehicleID, Start: start, End: end}

	samples, err := s.telemetry.GetSpeedSamples(ctx, vehicleID, start, end)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return result, nil
	}

	result.SampleCount = len(samples)
	result.MinSpeed = *samples[0].Speed
	result.MaxSpeed = *samples[0].Speed

	var sum float64
	for i := range samples {
		v := *samples[i].Speed
		sum += v
		if v < result.MinSpeed {
			result.MinSpeed = v
		}
		if v > result.MaxSpeed {
			result.MaxSpeed = v
		}
		if i > 0 {
			dtHours := samples[i].Timestamp.Sub(samples[i-1].Timestamp).Hours()
			if dtHours > 0 {
				result.DistanceKm += (*samples[i-1].Speed + v) / 2 * dtHours
			}
		}
	}
	result.AverageSpeed = sum / float64(len(samples))

	count, err := s.violations.CountInWindow(ctx, vehicleID, start, end)
	if err != nil {
		return nil, err
	}
	result.ViolationCount = count

	return result, nil
}

// GetFleetSpeedStats aggregates analytics across active vehicles,
// optionally scoped to one school. A single vehicle's failure is logged
// and excluded; it never aborts the pass.
func (s *SpeedService) GetFleetSpeedStats(ctx context.Context, schoolID string, start, end time.Time) (*domain.FleetSpeedStats, error) {
	vehicles, err := s.directory.ActiveVehicles(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	stats := &domain.FleetSpeedStats{SchoolID: schoolID}
	var speedSum float64

	for _, v := range vehicles {
		a, err := s.GetSpeedAnalytics(ctx, v.ID, start, end)
		if err != nil {
			s.logger.Warn("fleet analytics skipped vehicle", "vehicle_id", v.ID, "error", err)
			continue
		}
		stats.VehicleCount++
		stats.SampleCount += a.SampleCount
		stats.ViolationCount += a.ViolationCount
		stats.DistanceKm += a.DistanceKm
		speedSum += a.AverageSpeed * float64(a.SampleCount)
		if a.MaxSpeed > stats.MaxSpeed {
			stats.MaxSpeed = a.MaxSpeed
		}
	}
	if stats.SampleCount > 0 {
		stats.AverageSpeed = speedSum / float64(stats.SampleCount)
	}
	return stats, nil
}

func (s *SpeedService) ListViolations(ctx context.Context, query *domain.ViolationQuery) ([]domain.SpeedViolation, error) {
	return s.violations.List(ctx, query)
}
