// Package redisstore holds the Redis-backed pieces of the pipeline: the dead-letter
// queue for timeline events that could not be persisted, and the idempotency guard
// that keeps automation hooks from firing twice for the same fact.
package redisstore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"recruiting-pipeline/internal/models"
)

// DeadLetterQueue is a FIFO list of events: LPUSH on failure, then Peek and Ack on
// replay. An event leaves the list only once Ack confirms it was re-appended.
type DeadLetterQueue struct {
	client redis.Cmdable
	key    string
}

func NewDeadLetterQueue(client redis.Cmdable, key string) *DeadLetterQueue {
	return &DeadLetterQueue{client: client, key: key}
}

// Push stores the full event so it can be re-appended verbatim.
func (q *DeadLetterQueue) Push(ctx context.Context, e models.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode dead-lettered event: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("push dead-lettered event: %w", err)
	}
	return nil
}

// Peek returns the oldest event without removing it, or ok=false when the queue
// is empty. Entries that do not decode are moved to <key>:corrupt.
func (q *DeadLetterQueue) Peek(ctx context.Context) (models.Event, bool, error) {
	for {
		raw, err := q.client.LIndex(ctx, q.key, -1).Result()
		if stderrors.Is(err, redis.Nil) {
			return models.Event{}, false, nil
		}
		if err != nil {
			return models.Event{}, false, fmt.Errorf("peek dead-lettered event: %w", err)
		}

		var e models.Event
		if err := json.Unmarshal([]byte(raw), &e); err == nil {
			return e, true, nil
		}
		if err := q.quarantine(ctx, raw); err != nil {
			return models.Event{}, false, err
		}
	}
}

// Ack removes the oldest entry once it has been re-appended. It is a no-op when
// the oldest entry is no longer e, e.g. after a concurrent replay acked it.
func (q *DeadLetterQueue) Ack(ctx context.Context, e models.Event) error {
	raw, err := q.client.LIndex(ctx, q.key, -1).Result()
	if stderrors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ack dead-lettered event: %w", err)
	}
	var head models.Event
	if err := json.Unmarshal([]byte(raw), &head); err != nil || head.ID != e.ID {
		return nil
	}
	if err := q.client.LRem(ctx, q.key, -1, raw).Err(); err != nil {
		return fmt.Errorf("ack dead-lettered event: %w", err)
	}
	return nil
}

func (q *DeadLetterQueue) quarantine(ctx context.Context, raw string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key, -1, raw)
		pipe.LPush(ctx, q.key+":corrupt", raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("quarantine corrupt dead-lettered event: %w", err)
	}
	return nil
}

// Len reports how many events are waiting.
func (q *DeadLetterQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("dead-letter length: %w", err)
	}
	return n, nil
}
