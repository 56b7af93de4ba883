package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"git.collab.network/collab/src/oops"
	"github.com/redis/go-redis/v9"
)

// How long a single BLPOP waits before checking whether we should stop.
const redisPollTimeout = 1 * time.Second

/*
A queue backed by a Redis list. Transitions are pushed as JSON with RPUSH and
popped with BLPOP, so they survive restarts of this process and can be shared
by several dispatchers.
*/
type RedisQueue struct {
	client *redis.Client
	key    string
}

var _ Queue = &RedisQueue{}

func NewRedisQueue(redisURL string, key string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.New(err, "failed to parse redis url")
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, oops.New(err, "failed to connect to redis")
	}

	return NewRedisQueueWithClient(client, key), nil
}

func NewRedisQueueWithClient(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{
		client: client,
		key:    key,
	}
}

func (q *RedisQueue) Publish(ctx context.Context, t Transition) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return oops.New(err, "failed to marshal transition")
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return oops.New(err, "failed to push transition to redis")
	}
	return nil
}

func (q *RedisQueue) Next(ctx context.Context) (Transition, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Transition{}, err
		}

		res, err := q.client.BLPop(ctx, redisPollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		} else if err != nil {
			if ctx.Err() != nil {
				return Transition{}, ctx.Err()
			}
			return Transition{}, oops.New(err, "failed to pop transition from redis")
		}

		// BLPOP replies with the key and the value.
		var t Transition
		if err := json.Unmarshal([]byte(res[1]), &t); err != nil {
			return Transition{}, oops.New(err, "failed to unmarshal transition")
		}
		return t, nil
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
