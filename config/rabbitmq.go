package config

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// NewRabbitMQ opens the broker connection used for event fan-out.
// The connection name shows up in the management UI, which helps when
// several trackers share a broker.
func NewRabbitMQ(cfg *Config) (*amqp.Connection, error) {
	props := amqp.Table{"connection_name": cfg.ServiceName}
	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{Properties: props})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}
	return conn, nil
}
