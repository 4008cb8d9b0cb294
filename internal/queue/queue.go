package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification describes a committed request transition for downstream
// consumers. Publishing is best-effort and never affects the outcome
// of the transition itself.
type Notification struct {
	Type        string `json:"type"`
	RequestID   string `json:"request_id"`
	Status      string `json:"status"`
	StudentID   string `json:"student_id"`
	ProfessorID string `json:"professor_id"`
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, n Notification) error
	Consume(ctx context.Context) (<-chan Notification, error)
}

// InMemory is a minimal channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Notification
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Notification, size)}
}

// Publish enqueues a notification.
func (q *InMemory) Publish(ctx context.Context, n Notification) error {
	select {
	case q.ch <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Notification, error) {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for {
			select {
			case n := <-q.ch:
				out <- n
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue implements a Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "dissertation:notifications"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a notification as JSON.
func (q *RedisQueue) Publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

// Consume streams notifications using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Notification, error) {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				var n Notification
				if err := json.Unmarshal([]byte(res[1]), &n); err == nil {
					out <- n
				}
			}
		}
	}()
	return out, nil
}
