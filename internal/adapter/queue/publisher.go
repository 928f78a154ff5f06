package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/observability/telemetry"
	"github.com/seu-repo/evcharge/pkg/config"
)

// Envelope is the wire format of every lifecycle event.
type Envelope struct {
	EventType  string      `json:"event_type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// EventPublisher publishes JSON envelopes through a MessageQueue behind a
// circuit breaker.
type EventPublisher struct {
	mq  MessageQueue
	cb  *gobreaker.CircuitBreaker
	log *zap.Logger
}

func NewEventPublisher(mq MessageQueue, cfg config.CircuitBreakerConfig, log *zap.Logger) *EventPublisher {
	maxRequests := uint32(3)
	if cfg.MaxRequests > 0 {
		maxRequests = uint32(cfg.MaxRequests)
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: maxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &EventPublisher{
		mq:  mq,
		cb:  cb,
		log: log,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(Envelope{
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.mq.Publish(eventType, data)
	})
	if err != nil {
		telemetry.EventsPublishedTotal.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	telemetry.EventsPublishedTotal.WithLabelValues(eventType, "ok").Inc()
	p.log.Debug("Event published", zap.String("event", eventType), zap.Int("bytes", len(data)))
	return nil
}
