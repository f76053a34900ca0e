package publisher

import (
	"context"

	"github.com/sultan1coder/BUS-ROUTE-sub000/module/tracking/domain"
)

// EventPublisher fans events out to topic subscribers. Delivery is
// at-most-once, fire-and-forget; callers must never let a publish failure
// fail the underlying write.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.Event) error
}
