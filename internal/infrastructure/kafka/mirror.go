package kafka

import (
	"context"

	"github.com/example/storefront/internal/event"
)

// Mirror copies every in-process event onto the Kafka topic so out-of-process
// consumers (the notifier) see the same stream the local subscribers do.
type Mirror struct {
	producer *Producer
}

func NewMirror(producer *Producer) *Mirror {
	return &Mirror{producer: producer}
}

// HandleEvent is subscribed to the in-process bus.
func (m *Mirror) HandleEvent(ctx context.Context, evt event.Event) error {
	return m.producer.Publish(ctx, evt.AggregateID, evt)
}
