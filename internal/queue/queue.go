package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job is an outbound message waiting to be handed to a delivery channel.
type Job struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewJob stamps a job with a fresh id.
func NewJob(studentID, phone, message string) Job {
	return Job{
		ID:        uuid.NewString(),
		StudentID: studentID,
		Phone:     phone,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// Queue is the abstraction over different backends.
type Queue interface {
	Publish(ctx context.Context, job Job) error
	Consume(ctx context.Context) (<-chan Job, error)
}

// ErrFull is returned by InMemory.Publish when the buffer is full.
var ErrFull = errors.New("queue full")

// InMemory is a bounded channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Job
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	if size <= 0 {
		size = 64
	}
	return &InMemory{ch: make(chan Job, size)}
}

// Publish enqueues a job without blocking; a full buffer drops it.
func (q *InMemory) Publish(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- job:
		return nil
	default:
		return ErrFull
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Job, error) {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case job := <-q.ch:
				select {
				case out <- job:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Len reports buffered jobs.
func (q *InMemory) Len() int { return len(q.ch) }

// RedisQueue implements a simple Redis list-backed queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue using LPUSH/BRPOP semantics.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "eduscan:deliveries"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a job.
func (q *RedisQueue) Publish(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams jobs using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Job, error) {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, redis.Nil) {
					log.Printf("queue: brpop %s: %v", q.key, err)
					time.Sleep(time.Second)
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var job Job
			if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
				log.Printf("queue: dropping malformed job: %v", err)
				continue
			}
			select {
			case out <- job:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
