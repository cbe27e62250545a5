package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/adapter"
)

// HandlerFunc executes one task. A non-nil error means the failure was
// transient and the message should be retried; permanent outcomes must
// be absorbed by the handler.
type HandlerFunc func(ctx context.Context, args ...string) error

// Runner pulls messages from the broker and dispatches them to
// registered handlers. Each slot keeps exactly one message in flight,
// so a failure's blast radius stays one job.
type Runner struct {
	broker   adapter.TaskBroker
	handlers map[string]HandlerFunc
	slots    int
	soft     time.Duration // task deadline, handler sees it via ctx
	hard     time.Duration // last resort: abandon the slot if the handler hangs
	log      *zerolog.Logger
	wg       sync.WaitGroup
}

func NewRunner(broker adapter.TaskBroker, slots int, soft, hard time.Duration, log *zerolog.Logger) *Runner {
	if slots <= 0 {
		slots = 1
	}
	return &Runner{
		broker:   broker,
		handlers: make(map[string]HandlerFunc),
		slots:    slots,
		soft:     soft,
		hard:     hard,
		log:      log,
	}
}

func (r *Runner) Register(task string, fn HandlerFunc) {
	r.handlers[task] = fn
}

// Start requeues in-flight leftovers from a previous crash, then runs
// the consumer slots until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	if n, err := r.broker.RecoverInFlight(ctx); err != nil {
		r.log.Error().Err(err).Msg("recover in-flight messages")
	} else if n > 0 {
		r.log.Info().Int("count", n).Msg("requeued in-flight messages from previous run")
	}

	for i := 0; i < r.slots; i++ {
		r.wg.Add(1)
		go func(slot int) {
			defer r.wg.Done()
			r.consume(ctx, slot)
		}(i)
	}
}

// Wait blocks until all slots have stopped.
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) consume(ctx context.Context, slot int) {
	log := r.log.With().Int("slot", slot).Logger()
	log.Info().Msg("worker slot started")

	for {
		if ctx.Err() != nil {
			log.Info().Msg("worker slot stopping")
			return
		}

		msg, err := r.broker.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Msg("dequeue failed")
			time.Sleep(time.Second)
			continue
		}

		if !r.dispatch(ctx, &log, msg) {
			// The handler is hung past the hard ceiling. The slot is
			// abandoned rather than risking two tasks in flight; the
			// unacked message is recovered on the next worker start.
			log.Error().Str("task_id", msg.ID).Msg("hard timeout exceeded, abandoning worker slot")
			return
		}
	}
}

// dispatch runs one message through its handler and settles it with the
// broker. Returns false only when the handler blew through the hard
// timeout and the slot must be abandoned.
func (r *Runner) dispatch(ctx context.Context, log *zerolog.Logger, msg *model.TaskMessage) bool {
	fn, ok := r.handlers[msg.Task]
	if !ok {
		log.Error().Str("task", msg.Task).Str("task_id", msg.ID).Msg("unknown task name, acking")
		if err := r.broker.Ack(ctx, msg); err != nil {
			log.Error().Err(err).Msg("ack failed")
		}
		return true
	}

	tctx, cancel := context.WithTimeout(ctx, r.soft)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(tctx, msg.Args...) }()

	var err error
	select {
	case err = <-done:
	case <-time.After(r.hard):
		cancel()
		return false
	}

	if err == nil {
		if ackErr := r.broker.Ack(ctx, msg); ackErr != nil {
			// The handler finished but the ack did not stick; the
			// message will be redelivered. Idempotency absorbs it.
			log.Error().Err(ackErr).Str("task_id", msg.ID).Msg("ack failed, expect redelivery")
		}
		return true
	}

	requeued, retryErr := r.broker.Retry(ctx, msg)
	if retryErr != nil {
		log.Error().Err(retryErr).Str("task_id", msg.ID).Msg("retry scheduling failed, expect redelivery")
		return true
	}
	if !requeued {
		log.Warn().Str("task_id", msg.ID).Msg("task dead-lettered after exhausting retries")
	}
	return true
}
