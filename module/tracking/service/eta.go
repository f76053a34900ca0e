package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/database"
)

// TrafficModel maps a point in time to a slowdown factor (>= 1.0).
// Swappable for a live traffic source without touching the ETA math.
type TrafficModel func(t time.Time) float64

// Band is an hour-of-day interval [Start, End).
type Band struct {
	Start int
	End   int
}

func (b Band) contains(hour int) bool {
	return hour >= b.Start && hour < b.End
}

// NewTimeOfDayTraffic is the static heuristic: 1.3 during the two rush
// bands, 1.1 during the midday band, 1.0 otherwise.
func NewTimeOfDayTraffic(morningRush, eveningRush, midday Band) TrafficModel {
	return func(t time.Time) float64 {
		hour := t.Hour()
		switch {
		case morningRush.contains(hour) || eveningRush.contains(hour):
			return 1.3
		case midday.contains(hour):
			return 1.1
		default:
			return 1.0
		}
	}
}

func DefaultTrafficModel() TrafficModel {
	return NewTimeOfDayTraffic(Band{7, 9}, Band{16, 19}, Band{11, 14})
}

// ETAConfig holds the estimation knobs.
type ETAConfig struct {
	SpeedLookback time.Duration // trailing window for the mean speed
	MinSpeed      float64       // km/h floor to avoid degenerate ETAs
	DelayedAfter  time.Duration // delay threshold before a route is flagged
}

func DefaultETAConfig() ETAConfig {
	return ETAConfig{
		SpeedLookback: 30 * time.Minute,
		MinSpeed:      10,
		DelayedAfter:  5 * time.Minute,
	}
}

type currentLocationReader interface {
	GetCurrentLocation(ctx context.Context, vehicleID string) (*domain.CurrentLocation, error)
}

// ETAService predicts arrival at the next scheduled stop from the cached
// location, recent speed behaviour and the traffic model. The next stop is
// tracked by an explicit per-vehicle progress cursor advanced by the
// external attendance system; with no progress recorded it is the route's
// first stop.
type ETAService struct {
	locations currentLocationReader
	telemetry database.TelemetryRepository
	arrivals  database.ArrivalRepository
	routes    domain.RouteDirectory
	traffic   TrafficModel
	cfg       ETAConfig
	progress  *xsync.Map[string, int] // vehicleID -> next stop index
	logger    *slog.Logger
	now       func() time.Time
}

func NewETAService(
	locations currentLocationReader,
	telemetry database.TelemetryRepository,
	arrivals database.ArrivalRepository,
	routes domain.RouteDirectory,
	traffic TrafficModel,
	cfg ETAConfig,
	logger *slog.Logger,
) *ETAService {
	return &ETAService{
		locations: locations,
		telemetry: telemetry,
		arrivals:  arrivals,
		routes:    routes,
		traffic:   traffic,
		cfg:       cfg,
		progress:  xsync.NewMap[string, int](),
		logger:    logger,
		now:       time.Now,
	}
}

// AdvanceStop records that the vehicle completed the stop at the given
// route index; subsequent estimates target the stop after it. Called by
// the attendance collaborator on pickup/drop events.
func (s *ETAService) AdvanceStop(vehicleID string, completedIndex int) {
	s.progress.Store(vehicleID, completedIndex+1)
}

// ResetProgress clears the cursor, typically at trip start.
func (s *ETAService) ResetProgress(vehicleID string) {
	s.progress.Delete(vehicleID)
}

func (s *ETAService) nextStop(route *domain.Route) (*domain.RouteStop, int) {
	idx, _ := s.progress.Load(route.VehicleID)
	if idx >= len(route.Stops) {
		idx = len(route.Stops) - 1
	}
	return &route.Stops[idx], idx
}

// CalculateETA computes distance and duration to the vehicle's next stop.
// A route with no stops yields a partial result with only the vehicle and
// its current position; that is not an error.
func (s *ETAService) CalculateETA(ctx context.Context, vehicleID string) (*domain.ETAEstimate, error) {
	loc, err := s.locations.GetCurrentLocation(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	route, err := s.routes.ActiveRoute(ctx, vehicleID)
	if err != nil || route == nil {
		return nil, domain.NewNotFoundError("active route", vehicleID)
	}

	est := &domain.ETAEstimate{
		VehicleID:        vehicleID,
		CurrentLatitude:  loc.Sample.Latitude,
		CurrentLongitude: loc.Sample.Longitude,
	}
	if len(route.Stops) == 0 {
		return est, nil
	}

	stop, _ := s.nextStop(route)
	est.NextStopID = stop.ID
	est.NextStopName = stop.Name
	est.DistanceMeters = haversine(loc.Sample.Latitude, loc.Sample.Longitude, stop.Latitude, stop.Longitude)

	now := s.now()
	est.AverageSpeed = s.recentSpeed(ctx, vehicleID, now)
	est.TrafficFactor = s.traffic(now)

	distanceKm := est.DistanceMeters / 1000
	est.DurationMinutes = distanceKm / (est.AverageSpeed / est.TrafficFactor) * 60

	arrival := now.Add(time.Duration(est.DurationMinutes * float64(time.Minute)))
	est.EstimatedArrival = &arrival

	return est, nil
}

// recentSpeed is the mean of speed readings over the trailing lookback
// window, floored at the configured minimum.
func (s *ETAService) recentSpeed(ctx context.Context, vehicleID string, now time.Time) float64 {
	samples, err := s.telemetry.GetSpeedSamples(ctx, vehicleID, now.Add(-s.cfg.SpeedLookback), now)
	if err != nil {
		s.logger.Warn("recent speed lookup failed", "vehicle_id", vehicleID, "error", err)
		return s.cfg.MinSpeed
	}
	if len(samples) == 0 {
		return s.cfg.MinSpeed
	}

	var sum float64
	for i := range samples {
		sum += *samples[i].Speed
	}
	mean := sum / float64(len(samples))
	if mean < s.cfg.MinSpeed {
		return s.cfg.MinSpeed
	}
	return mean
}

// AnalyzeETA compares the estimate against the stop schedule. It returns
// nil when no schedule data exists to compare against.
func (s *ETAService) AnalyzeETA(ctx context.Context, vehicleID string) (*domain.ETAAnalysis, error) {
	est, err := s.CalculateETA(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if est.EstimatedArrival == nil {
		return nil, nil
	}

	route, err := s.routes.ActiveRoute(ctx, vehicleID)
	if err != nil || route == nil || len(route.Stops) == 0 {
		return nil, nil
	}
	stop, _ := s.nextStop(route)
	if stop.ScheduledArrival.IsZero() {
		return nil, nil
	}

	delay := est.EstimatedArrival.Sub(stop.ScheduledArrival).Minutes()
	analysis := &domain.ETAAnalysis{
		Estimate:         *est,
		ScheduledArrival: stop.ScheduledArrival,
		DelayMinutes:     delay,
		IsDelayed:        delay > s.cfg.DelayedAfter.Minutes(),
	}

	if analysis.IsDelayed {
		analysis.Recommendations = []string{
			"consider an alternate route to the next stop",
			"notify the school and waiting parents of the delay",
		}
		if delay > 15 {
			analysis.Recommendations = append(analysis.Recommendations,
				"escalate to dispatch for a driver check-in")
		}
	}
	return analysis, nil
}

// PredictETA shifts the naive estimate by the mean historical delay at the
// stop. Confidence shrinks with the spread of past delays; with no history
// the naive estimate is returned at low confidence.
func (s *ETAService) PredictETA(ctx context.Context, vehicleID, stopID string) (*domain.ETAPrediction, error) {
	est, err := s.CalculateETA(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if est.EstimatedArrival == nil {
		return nil, domain.NewNotFoundError("route stop", stopID)
	}

	history, err := s.arrivals.RecentArrivals(ctx, vehicleID, stopID, 20)
	if err != nil {
		return nil, err
	}

	pred := &domain.ETAPrediction{
		VehicleID:   vehicleID,
		StopID:      stopID,
		SampleCount: len(history),
	}

	if len(history) == 0 {
		pred.PredictedArrival = *est.EstimatedArrival
		pred.Confidence = 0.3
		return pred, nil
	}

	var sum float64
	for _, a := range history {
		sum += a.DelayMinutes
	}
	mean := sum / float64(len(history))

	var variance float64
	for _, a := range history {
		variance += (a.DelayMinutes - mean) * (a.DelayMinutes - mean)
	}
	variance /= float64(len(history))
	stddev := math.Sqrt(variance)

	pred.MeanDelayMinutes = mean
	pred.Confidence = clamp(1-stddev/30, 0.1, 0.9)
	pred.PredictedArrival = est.EstimatedArrival.Add(time.Duration(mean * float64(time.Minute)))

	return pred, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
