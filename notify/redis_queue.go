package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	QueueKey     = "notify:comment_posted"
	blockTimeout = 5 * time.Second
)

// RedisQueue publishes events onto a redis list so that any server instance
// can deliver them.
type RedisQueue struct {
	rdb *redis.Client
	log *zap.Logger
	key string
}

func NewRedisQueue(rdb *redis.Client, log *zap.Logger) *RedisQueue {
	return &RedisQueue{rdb: rdb, log: log, key: QueueKey}
}

func (q *RedisQueue) Publish(ctx context.Context, event CommentPosted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

// Consume pops events until ctx is cancelled. Handler errors are logged and
// the event is dropped.
func (q *RedisQueue) Consume(ctx context.Context, h Handler) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := q.rdb.BRPop(ctx, blockTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.log.Warn("notification queue read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// res is [key, value].
		var event CommentPosted
		if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
			q.log.Error("dropping malformed notification", zap.Error(err), zap.String("payload", res[1]))
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			q.log.Error("notification delivery failed",
				zap.Error(err),
				zap.Uint("comment_id", event.CommentID),
				zap.Uint("recipient_id", event.RecipientID),
			)
		}
	}
}
