package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"vibecheck/internal/config"
	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/adapter"
	"vibecheck/internal/infra/metrics"
)

var _ adapter.TaskBroker = (*Queue)(nil)

const (
	dequeueBlock    = 5 * time.Second
	promoteInterval = time.Second
)

// Queue is a durable Redis-list task broker with Celery-like semantics:
// at-least-once delivery, one message in flight per consumer slot, and
// late acknowledgment. Dequeue moves a message from the main list into a
// per-consumer in-flight list (BRPOPLPUSH); Ack removes it only after
// the handler returns. A crash mid-processing leaves the message in the
// in-flight list, where RecoverInFlight requeues it on restart.
type Queue struct {
	cli        *redis.Client
	name       string // main list key; other keys derive from it
	consumer   string
	maxRetries int
	retryDelay time.Duration
	log        *zerolog.Logger
}

func NewQueue(c *Client, cfg *config.QueueConfig, consumer string, log *zerolog.Logger) *Queue {
	return &Queue{
		cli:        c.cli,
		name:       cfg.Name,
		consumer:   consumer,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		log:        log,
	}
}

func (q *Queue) delayedKey() string { return q.name + ":delayed" }
func (q *Queue) deadKey() string    { return q.name + ":dead" }
func (q *Queue) inflightKey() string {
	return fmt.Sprintf("%s:inflight:%s", q.name, q.consumer)
}

// Enqueue pushes the message onto the main list. Failure means the
// broker is unreachable; callers treat it as a retryable infra error.
func (q *Queue) Enqueue(ctx context.Context, msg *model.TaskMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal task message: %w", err)
	}
	if err := q.cli.LPush(ctx, q.name, b).Err(); err != nil {
		return domain.Transient(fmt.Errorf("enqueue %s: %w", msg.Task, err))
	}
	metrics.IncJobEnqueued()
	return nil
}

// Dequeue blocks up to dequeueBlock and moves one message into this
// consumer's in-flight list. Returns domain.ErrNotFound when idle.
func (q *Queue) Dequeue(ctx context.Context) (*model.TaskMessage, error) {
	raw, err := q.cli.BRPopLPush(ctx, q.name, q.inflightKey(), dequeueBlock).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.Transient(err)
	}

	var msg model.TaskMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		// Undecodable payload: drop it from the in-flight list, nothing
		// downstream can act on it.
		q.log.Error().Err(err).Str("payload", raw).Msg("dropping undecodable task message")
		q.cli.LRem(ctx, q.inflightKey(), 1, raw)
		return nil, domain.ErrNotFound
	}
	return &msg, nil
}

// Ack removes the message from the in-flight list. Called only after the
// handler returns (late ack).
func (q *Queue) Ack(ctx context.Context, msg *model.TaskMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return q.cli.LRem(ctx, q.inflightKey(), 1, b).Err()
}

// Retry schedules redelivery with a per-attempt backoff delay, or moves
// the message to the dead-letter list when the retry budget is spent.
// The message is acked from the in-flight list either way.
func (q *Queue) Retry(ctx context.Context, msg *model.TaskMessage) (bool, error) {
	original, err := json.Marshal(msg)
	if err != nil {
		return false, err
	}

	next := *msg
	next.Retries++
	b, err := json.Marshal(&next)
	if err != nil {
		return false, err
	}

	pipe := q.cli.TxPipeline()
	pipe.LRem(ctx, q.inflightKey(), 1, original)

	if next.Retries > q.maxRetries {
		pipe.LPush(ctx, q.deadKey(), b)
		if _, err := pipe.Exec(ctx); err != nil {
			return false, domain.Transient(err)
		}
		metrics.IncQueueDead()
		q.log.Warn().Str("task_id", msg.ID).Str("task", msg.Task).
			Int("retries", msg.Retries).Msg("retries exhausted, message dead-lettered")
		return false, nil
	}

	delay := q.delayFor(next.Retries)
	due := float64(time.Now().Add(delay).Unix())
	pipe.ZAdd(ctx, q.delayedKey(), &redis.Z{Score: due, Member: b})
	if _, err := pipe.Exec(ctx); err != nil {
		return false, domain.Transient(err)
	}
	metrics.IncQueueRetry()
	q.log.Info().Str("task_id", msg.ID).Str("task", msg.Task).
		Int("attempt", next.Retries).Dur("delay", delay).Msg("task scheduled for retry")
	return true, nil
}

// delayFor walks the exponential backoff policy to the given attempt.
// Attempt 1 gets the base delay, each further attempt grows by the
// standard multiplier, without jitter so tests stay deterministic.
func (q *Queue) delayFor(attempt int) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = q.retryDelay
	bo.RandomizationFactor = 0
	bo.MaxInterval = 15 * time.Minute
	bo.MaxElapsedTime = 0

	d := bo.NextBackOff()
	for i := 1; i < attempt; i++ {
		d = bo.NextBackOff()
	}
	return d
}

// RecoverInFlight requeues messages abandoned by a previous crash of
// this consumer. Redelivery of a half-processed job is safe: the
// pipeline is idempotent end to end.
func (q *Queue) RecoverInFlight(ctx context.Context) (int, error) {
	moved := 0
	for {
		raw, err := q.cli.RPopLPush(ctx, q.inflightKey(), q.name).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, domain.Transient(err)
		}
		moved++
		q.log.Info().Str("payload", raw).Msg("requeued in-flight task from previous run")
	}
}

// PromoteDue moves messages whose retry delay has elapsed from the
// delayed set back onto the main list.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	members, err := q.cli.ZRangeByScore(ctx, q.delayedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return 0, domain.Transient(err)
	}

	moved := 0
	for _, m := range members {
		// ZRem first: if another promoter raced us, only one wins the
		// removal and pushes the message.
		removed, err := q.cli.ZRem(ctx, q.delayedKey(), m).Result()
		if err != nil {
			return moved, domain.Transient(err)
		}
		if removed == 0 {
			continue
		}
		if err := q.cli.LPush(ctx, q.name, m).Err(); err != nil {
			return moved, domain.Transient(err)
		}
		moved++
	}
	return moved, nil
}

// Depth reports the number of messages waiting on the main list.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	n, err := q.cli.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, domain.Transient(err)
	}
	return n, nil
}

// RunPromoter ticks PromoteDue until ctx is cancelled. Run one per
// worker process; racing promoters are harmless.
func (q *Queue) RunPromoter(ctx context.Context) {
	ticker := time.NewTicker(promoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := q.PromoteDue(ctx); err != nil {
				q.log.Error().Err(err).Msg("promote delayed tasks")
			}
			if n, err := q.Depth(ctx); err == nil {
				metrics.SetQueueDepth(float64(n))
			}
		}
	}
}
