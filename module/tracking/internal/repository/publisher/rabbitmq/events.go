package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/internal/repository/publisher"
)

var _ publisher.EventPublisher = (*EventPublisher)(nil)

const (
	exchangeName   = "fleet.events"
	dashboardTopic = "fleet.dashboard"
)

// EventPublisher routes events on a topic exchange. Each event goes to the
// fleet-wide dashboard topic plus the vehicle topic, and to the school and
// driver topics when those ids are set.
type EventPublisher struct {
	ch *amqp.Channel
}

func NewEventPublisher(conn *amqp.Connection) (*EventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &EventPublisher{ch: ch}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, event *domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	keys := []string{
		dashboardTopic,
		"vehicle." + event.VehicleID,
	}
	if event.SchoolID != "" {
		keys = append(keys, "school."+event.SchoolID)
	}
	if event.DriverID != "" {
		keys = append(keys, "driver."+event.DriverID)
	}

	for _, key := range keys {
		err := p.ch.PublishWithContext(ctx, exchangeName, key, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
	}
	return nil
}
