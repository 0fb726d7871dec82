package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is the envelope carried on the bus and mirrored to Kafka.
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

// HandlerFunc reacts to a published event.
type HandlerFunc func(ctx context.Context, evt Event) error

// Bus dispatches events to subscribers synchronously, in subscription order,
// immediately after the publishing operation's state change has been saved.
// There is no durable queue and no redelivery: delivery is effectively-once
// as long as the process survives the dispatch. Handler errors are logged
// and do not stop later handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers []HandlerFunc
	logger   zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{logger: logger.With().Str("component", "bus").Logger()}
}

func (b *Bus) Subscribe(h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish wraps the payload in an envelope and dispatches it.
func (b *Bus) Publish(ctx context.Context, aggregateID, aggregateType, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	evt := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
	}

	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			b.logger.Error().
				Err(err).
				Str("event_type", evt.EventType).
				Str("aggregate_id", evt.AggregateID).
				Msg("event handler failed")
		}
	}
	return nil
}
