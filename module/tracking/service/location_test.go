package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/cache"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/metrics"
)

type mockEvaluator struct {
	evaluateFn func(ctx context.Context, vehicle *domain.Vehicle, sample *domain.LocationSample) error
}

func (m *mockEvaluator) Evaluate(ctx context.Context, vehicle *domain.Vehicle, sample *domain.LocationSample) error {
	if m.evaluateFn != nil {
		return m.evaluateFn(ctx, vehicle, sample)
	}
	return nil
}

func newLocationService(repo *mockTelemetryRepo, dir *mockDirectory, pub *mockPublisher, evals ...sampleEvaluator) *LocationService {
	return NewLocationService(repo, cache.NewLocationCache(5*time.Minute), dir, pub, metrics.NewNop(), testLogger(), evals...)
}

func TestRecordLocation_ThenGetCurrentLocation(t *testing.T) {
	var inserted *domain.LocationSample
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, s *domain.LocationSample) error {
			inserted = s
			return nil
		},
	}
	pub := &mockPublisher{done: make(chan struct{}, 1)}
	svc := newLocationService(repo, &mockDirectory{}, pub)

	sample := &domain.LocationSample{
		VehicleID: "B1",
		Latitude:  40.0,
		Longitude: -74.0,
		Timestamp: time.Unix(1715003456, 0),
	}
	if _, err := svc.RecordLocation(context.Background(), sample); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted == nil {
		t.Fatal("expected sample to be persisted")
	}

	// read comes straight from the cache, coordinates intact
	loc, err := svc.GetCurrentLocation(context.Background(), "B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Source != domain.SourceCache {
		t.Errorf("expected cache source, got %s", loc.Source)
	}
	if loc.Sample.Latitude != 40.0 || loc.Sample.Longitude != -74.0 {
		t.Errorf("coordinates mismatch: (%f, %f)", loc.Sample.Latitude, loc.Sample.Longitude)
	}

	select {
	case <-pub.done:
	case <-time.After(time.Second):
		t.Fatal("expected a location event to be published")
	}
	events := pub.published()
	if len(events) != 1 || events[0].Kind != domain.EventLocationUpdate {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].SchoolID != "S1" {
		t.Errorf("expected school id on event, got %q", events[0].SchoolID)
	}
}

func TestRecordLocation_InvalidCoordinates(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error {
			t.Fatal("invalid sample must not be persisted")
			return nil
		},
	}
	svc := newLocationService(repo, &mockDirectory{}, &mockPublisher{})

	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too high", 90.5, 0},
		{"latitude too low", -91, 0},
		{"longitude too high", 0, 180.1},
		{"longitude too low", 0, -181},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordLocation(context.Background(), &domain.LocationSample{
				VehicleID: "B1", Latitude: tc.lat, Longitude: tc.lon,
			})
			if !domain.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRecordLocation_UnknownVehicle(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error {
			t.Fatal("sample for unknown vehicle must not be persisted")
			return nil
		},
	}
	dir := &mockDirectory{
		vehicleFn: func(_ context.Context, id string) (*domain.Vehicle, error) {
			return nil, domain.NewNotFoundError("vehicle", id)
		},
	}
	svc := newLocationService(repo, dir, &mockPublisher{})

	_, err := svc.RecordLocation(context.Background(), &domain.LocationSample{
		VehicleID: "GHOST", Latitude: 1, Longitude: 1,
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRecordLocation_InactiveVehicle(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error {
			t.Fatal("sample for inactive vehicle must not be persisted")
			return nil
		},
	}
	dir := &mockDirectory{
		vehicleFn: func(_ context.Context, id string) (*domain.Vehicle, error) {
			return &domain.Vehicle{ID: id, Active: false}, nil
		},
	}
	svc := newLocationService(repo, dir, &mockPublisher{})

	_, err := svc.RecordLocation(context.Background(), &domain.LocationSample{
		VehicleID: "B1", Latitude: 1, Longitude: 1,
	})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRecordLocation_EvaluatorFailureDoesNotFailWrite(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error { return nil },
	}
	eval := &mockEvaluator{
		evaluateFn: func(_ context.Context, _ *domain.Vehicle, _ *domain.LocationSample) error {
			return errors.New("geofence store down")
		},
	}
	svc := newLocationService(repo, &mockDirectory{}, &mockPublisher{}, eval)

	if _, err := svc.RecordLocation(context.Background(), &domain.LocationSample{
		VehicleID: "B1", Latitude: 1, Longitude: 1, Timestamp: time.Unix(1715003456, 0),
	}); err != nil {
		t.Fatalf("evaluation failure must not surface: %v", err)
	}
}

func TestRecordLocationsBulk_PartialFailure(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error { return nil },
	}
	svc := newLocationService(repo, &mockDirectory{}, &mockPublisher{})

	samples := []domain.LocationSample{
		{VehicleID: "B1", Latitude: 10, Longitude: 10, Timestamp: time.Unix(1715003456, 0)},
		{VehicleID: "B2", Latitude: 95, Longitude: 10, Timestamp: time.Unix(1715003457, 0)}, // bad latitude
		{VehicleID: "B3", Latitude: 10, Longitude: 10, Timestamp: time.Unix(1715003458, 0)},
		{VehicleID: "B4", Latitude: 10, Longitude: -200, Timestamp: time.Unix(1715003459, 0)}, // bad longitude
	}

	result := svc.RecordLocationsBulk(context.Background(), samples)
	if result.Total != 4 || result.Successful != 2 || result.Failed != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if len(result.Results) != 4 {
		t.Fatalf("expected 4 item results, got %d", len(result.Results))
	}
	if result.Results[1].OK || result.Results[1].Error == "" {
		t.Errorf("expected item 1 failure, got %+v", result.Results[1])
	}
	if !result.Results[2].OK {
		t.Errorf("expected item 2 success, got %+v", result.Results[2])
	}
}

func TestGetCurrentLocation_StoreFallback(t *testing.T) {
	stored := &domain.LocationSample{
		VehicleID: "B1", Latitude: 40.0, Longitude: -74.0, Timestamp: time.Unix(1715003456, 0),
	}
	calls := 0
	repo := &mockTelemetryRepo{
		getLatestFn: func(_ context.Context, _ string) (*domain.LocationSample, error) {
			calls++
			return stored, nil
		},
	}
	svc := newLocationService(repo, &mockDirectory{}, &mockPublisher{})

	loc, err := svc.GetCurrentLocation(context.Background(), "B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Source != domain.SourceStore {
		t.Errorf("expected store source, got %s", loc.Source)
	}

	// fallback repopulated the cache; the second read must not hit the store
	loc, err = svc.GetCurrentLocation(context.Background(), "B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Source != domain.SourceCache {
		t.Errorf("expected cache source on second read, got %s", loc.Source)
	}
	if calls != 1 {
		t.Errorf("expected a single store read, got %d", calls)
	}
}

func TestGetCurrentLocation_NeverRecorded(t *testing.T) {
	repo := &mockTelemetryRepo{
		getLatestFn: func(_ context.Context, vehicleID string) (*domain.LocationSample, error) {
			return nil, domain.NewNotFoundError("location", vehicleID)
		},
	}
	svc := newLocationService(repo, &mockDirectory{}, &mockPublisher{})

	_, err := svc.GetCurrentLocation(context.Background(), "B1")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetMultipleCurrentLocations_OmitsMissing(t *testing.T) {
	repo := &mockTelemetryRepo{
		getLatestFn: func(_ context.Context, vehicleID string) (*domain.LocationSample, error) {
			if vehicleID == "B2" {
				return nil, domain.NewNotFoundError("location", vehicleID)
			}
			return &domain.LocationSample{VehicleID: vehicleID, Latitude: 1, Longitude: 1, Timestamp: time.Unix(1715003456, 0)}, nil
		},
	}
	svc := newLocationService(repo, &mockDirectory{}, &mockPublisher{})

	results := svc.GetMultipleCurrentLocations(context.Background(), []string{"B1", "B2", "B3"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Sample.VehicleID == "B2" {
			t.Error("B2 has no data and must be omitted")
		}
	}
}

// The full in-process pipeline: a speeding sample recorded through the
// gateway must leave a persisted violation behind and still be readable
// from the cache.
func TestRecordLocation_SpeedingSampleThroughPipeline(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error { return nil },
	}
	var violation *domain.SpeedViolation
	violations := &mockViolationRepo{
		insertFn: func(_ context.Context, v *domain.SpeedViolation) error {
			violation = v
			return nil
		},
	}
	dir := &mockDirectory{}
	pub := &mockPublisher{}

	speedSvc := NewSpeedService(repo, violations, pub, &mockNotifier{}, dir, DefaultSpeedConfig(), metrics.NewNop(), testLogger())
	svc := newLocationService(repo, dir, pub, speedSvc)

	_, err := svc.RecordLocation(context.Background(), &domain.LocationSample{
		VehicleID: "B1",
		Latitude:  40.0,
		Longitude: -74.0,
		Speed:     f64(70),
		Timestamp: time.Unix(1715003456, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if violation == nil {
		t.Fatal("expected a persisted speed violation")
	}
	if violation.CurrentSpeed != 70 || violation.SpeedLimit != 50 {
		t.Errorf("unexpected violation: speed=%f limit=%f", violation.CurrentSpeed, violation.SpeedLimit)
	}
	if violation.Severity != domain.SeverityViolation {
		t.Errorf("expected VIOLATION, got %s", violation.Severity)
	}
	if violation.Latitude != 40.0 || violation.Longitude != -74.0 {
		t.Errorf("violation coordinates mismatch: (%f, %f)", violation.Latitude, violation.Longitude)
	}

	loc, err := svc.GetCurrentLocation(context.Background(), "B1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Sample.Latitude != 40.0 || loc.Sample.Longitude != -74.0 {
		t.Errorf("coordinates mismatch: (%f, %f)", loc.Sample.Latitude, loc.Sample.Longitude)
	}

	// a reading without a speed passes through the same hook untouched
	violation = nil
	_, err = svc.RecordLocation(context.Background(), &domain.LocationSample{
		VehicleID: "B1",
		Latitude:  40.1,
		Longitude: -74.1,
		Timestamp: time.Unix(1715003466, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if violation != nil {
		t.Error("sample without a speed reading must not produce a violation")
	}
}

func TestRecordLocation_DirectoryOutageIsNotNotFound(t *testing.T) {
	repo := &mockTelemetryRepo{
		insertFn: func(_ context.Context, _ *domain.LocationSample) error {
			t.Fatal("sample must not be persisted when the directory is unreachable")
			return nil
		},
	}
	dir := &mockDirectory{
		vehicleFn: func(_ context.Context, _ string) (*domain.Vehicle, error) {
			return nil, errors.New("fleet api: connection refused")
		},
	}
	svc := newLocationService(repo, dir, &mockPublisher{})

	_, err := svc.RecordLocation(context.Background(), &domain.LocationSample{
		VehicleID: "B1", Latitude: 1, Longitude: 1,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if domain.IsNotFound(err) {
		t.Fatalf("directory outage must not masquerade as not-found, got %v", err)
	}
}
