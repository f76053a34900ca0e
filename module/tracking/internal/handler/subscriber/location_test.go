package subscriber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakeLocationService struct {
	samples []*domain.LocationSample
	err     error
}

func (f *fakeLocationService) RecordLocation(_ context.Context, sample *domain.LocationSample) (*domain.LocationSample, error) {
	f.samples = append(f.samples, sample)
	return sample, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleMessage_RecordsSample(t *testing.T) {
	svc := &fakeLocationService{}
	sub := NewLocationSubscriber(nil, svc, testLogger())

	msg := &fakeMessage{
		topic:   "/fleet/vehicle/B1/location",
		payload: []byte(`{"vehicle_id":"B1","latitude":40.0,"longitude":-74.0,"speed":35.5,"timestamp":1715003456,"trip_id":"trip-1"}`),
	}
	sub.handleMessage(nil, msg)

	if len(svc.samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(svc.samples))
	}
	s := svc.samples[0]
	if s.VehicleID != "B1" || s.Latitude != 40.0 || s.Longitude != -74.0 {
		t.Errorf("unexpected sample: %+v", s)
	}
	if s.Speed == nil || *s.Speed != 35.5 {
		t.Errorf("expected speed 35.5, got %v", s.Speed)
	}
	if !s.Timestamp.Equal(time.Unix(1715003456, 0)) {
		t.Errorf("unexpected timestamp: %v", s.Timestamp)
	}
	if s.TripID != "trip-1" {
		t.Errorf("expected trip-1, got %s", s.TripID)
	}
}

func TestHandleMessage_OptionalFieldsStayNil(t *testing.T) {
	svc := &fakeLocationService{}
	sub := NewLocationSubscriber(nil, svc, testLogger())

	msg := &fakeMessage{
		topic:   "/fleet/vehicle/B2/location",
		payload: []byte(`{"vehicle_id":"B2","latitude":40.0,"longitude":-74.0,"timestamp":1715003456}`),
	}
	sub.handleMessage(nil, msg)

	if len(svc.samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(svc.samples))
	}
	s := svc.samples[0]
	if s.Speed != nil || s.Heading != nil || s.Accuracy != nil || s.Altitude != nil {
		t.Errorf("optional fields should stay nil: %+v", s)
	}
}

func TestHandleMessage_MalformedPayloadDropped(t *testing.T) {
	svc := &fakeLocationService{}
	sub := NewLocationSubscriber(nil, svc, testLogger())

	msg := &fakeMessage{
		topic:   "/fleet/vehicle/B1/location",
		payload: []byte(`{broken`),
	}
	sub.handleMessage(nil, msg)

	if len(svc.samples) != 0 {
		t.Fatalf("malformed payload should not reach the service, got %d calls", len(svc.samples))
	}
}

func TestHandleMessage_ServiceErrorSwallowed(t *testing.T) {
	svc := &fakeLocationService{err: errors.New("vehicle not active")}
	sub := NewLocationSubscriber(nil, svc, testLogger())

	msg := &fakeMessage{
		topic:   "/fleet/vehicle/B1/location",
		payload: []byte(`{"vehicle_id":"B1","latitude":40.0,"longitude":-74.0,"timestamp":1715003456}`),
	}
	sub.handleMessage(nil, msg)

	if len(svc.samples) != 1 {
		t.Fatalf("expected the service to be called once, got %d", len(svc.samples))
	}
}
