package adapter

import (
	"context"

	"vibecheck/internal/domain/model"
)

// TaskQueue is the producer-side contract: durable, at-least-once
// delivery. Enqueue fails only when the broker is unreachable; callers
// must treat that as a retryable infrastructure error.
type TaskQueue interface {
	Enqueue(ctx context.Context, msg *model.TaskMessage) error
}

// TaskBroker is the consumer-side contract used by the worker runtime.
// Messages are acknowledged late: Ack runs only after the handler
// returns, so a crash mid-processing makes the message visible again.
type TaskBroker interface {
	TaskQueue

	// Dequeue blocks for at most the broker's poll interval and moves
	// one message into this consumer's in-flight list. Returns
	// domain.ErrNotFound when the queue is idle.
	Dequeue(ctx context.Context) (*model.TaskMessage, error)

	// Ack removes the message from the in-flight list.
	Ack(ctx context.Context, msg *model.TaskMessage) error

	// Retry schedules redelivery with a backoff delay. When the bounded
	// retry budget is exhausted the message moves to the dead-letter
	// list instead; the returned bool is false in that case.
	Retry(ctx context.Context, msg *model.TaskMessage) (bool, error)

	// RecoverInFlight requeues messages left in this consumer's
	// in-flight list by a previous crash. Called once at worker startup.
	RecoverInFlight(ctx context.Context) (int, error)
}
