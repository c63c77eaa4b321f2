package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/cip-api/internal/service"
	"github.com/noah-isme/cip-api/pkg/jobs"
)

// Publisher delivers partnership transition events to a Redis stream through a
// buffered worker queue. Enqueueing is cheap and never blocks a transition;
// delivery failures are retried by the queue and finally logged, never
// surfaced back to the state machine.
type Publisher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// Config tunes the publisher worker pool.
type Config struct {
	Stream     string
	MaxLen     int64
	Workers    int
	BufferSize int
	MaxRetries int
}

// NewPublisher constructs a Publisher backed by the provided Redis client.
func NewPublisher(client *redis.Client, cfg Config, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	stream := cfg.Stream
	if stream == "" {
		stream = "partnership-events"
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(service.TransitionEvent)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal transition event: %w", err)
		}
		return client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			MaxLen: maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"event":          event.Event,
				"partnership_id": event.PartnershipID,
				"payload":        body,
			},
		}).Err()
	}

	queue := jobs.NewQueue("partnership-events", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return &Publisher{queue: queue, logger: logger}
}

// Start launches the delivery workers.
func (p *Publisher) Start(ctx context.Context) {
	p.queue.Start(ctx)
}

// Stop drains the workers.
func (p *Publisher) Stop() {
	p.queue.Stop()
}

// Notify implements service.Notifier. The event is handed to the worker queue;
// a full or stopped queue is reported to the caller, which logs and moves on.
func (p *Publisher) Notify(ctx context.Context, event service.TransitionEvent) error {
	return p.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    event.Event,
		Payload: event,
	})
}
