package subscriber

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

const topicPattern = "/fleet/vehicle/+/location"

type locationService interface {
	RecordLocation(ctx context.Context, sample *domain.LocationSample) (*domain.LocationSample, error)
}

type locationMessage struct {
	VehicleID string   `json:"vehicle_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Heading   *float64 `json:"heading"`
	Accuracy  *float64 `json:"accuracy"`
	Altitude  *float64 `json:"altitude"`
	Timestamp int64    `json:"timestamp"`
	TripID    string   `json:"trip_id"`
}

// LocationSubscriber feeds device telemetry from MQTT into the ingestion
// gateway. Bad messages are logged and dropped; the broker is not asked
// to redeliver.
type LocationSubscriber struct {
	client      mqtt.Client
	locationSvc locationService
	logger      *slog.Logger
}

func NewLocationSubscriber(client mqtt.Client, locationSvc locationService, logger *slog.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:      client,
		locationSvc: locationSvc,
		logger:      logger,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.logger.Warn("invalid location message", "topic", msg.Topic(), "error", err)
		return
	}

	sample := &domain.LocationSample{
		VehicleID: raw.VehicleID,
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		Speed:     raw.Speed,
		Heading:   raw.Heading,
		Accuracy:  raw.Accuracy,
		Altitude:  raw.Altitude,
		TripID:    raw.TripID,
	}
	if raw.Timestamp > 0 {
		sample.Timestamp = time.Unix(raw.Timestamp, 0)
	}

	if _, err := s.locationSvc.RecordLocation(context.Background(), sample); err != nil {
		s.logger.Warn("record location failed", "vehicle_id", raw.VehicleID, "error", err)
	}
}
