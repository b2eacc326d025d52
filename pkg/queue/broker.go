package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Broker is the Redis task queue plus result backend. Tasks are RPUSHed onto
// a list and claimed by workers with a blocking pop, which gives at-least-once
// hand-off across replicas without any coordination beyond Redis itself.
// Results are written twice: a TTL'd key for durable lookup and a per-task
// wake list the submitter blocks on.
type Broker struct {
	client    redis.UniversalClient
	queueName string
	resultTTL time.Duration
}

// NewBroker connects to Redis and verifies the connection with a ping.
func NewBroker(url, queueName string, resultTTL time.Duration) (*Broker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &Broker{
		client:    client,
		queueName: queueName,
		resultTTL: resultTTL,
	}, nil
}

// Close closes the underlying Redis client.
func (b *Broker) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}

// Ping verifies broker connectivity, for health checks.
func (b *Broker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *Broker) queueKey() string {
	return b.queueName + ":queue"
}

func (b *Broker) resultKey(taskID string) string {
	return b.queueName + ":result:" + taskID
}

func (b *Broker) wakeKey(taskID string) string {
	return b.queueName + ":wake:" + taskID
}

// Submit enqueues a payload and returns a handle immediately. The payload
// must already be transport-neutral (built by models.ChatRequest.QueuePayload).
func (b *Broker) Submit(ctx context.Context, payload map[string]any) (*TaskHandle, error) {
	env := taskEnvelope{
		TaskID:      uuid.NewString(),
		Payload:     payload,
		SubmittedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode task envelope: %w", err)
	}
	if err := b.client.RPush(ctx, b.queueKey(), raw).Err(); err != nil {
		return nil, fmt.Errorf("enqueue task: %w", err)
	}
	return &TaskHandle{ID: env.TaskID}, nil
}

// NextTask claims the next queued task, blocking up to blockFor.
// Returns ErrNoTasksAvailable when the window elapses empty.
func (b *Broker) NextTask(ctx context.Context, blockFor time.Duration) (*taskEnvelope, error) {
	res, err := b.client.BLPop(ctx, blockFor, b.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoTasksAvailable
		}
		return nil, fmt.Errorf("claim task: %w", err)
	}
	// BLPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("claim task: unexpected BLPOP reply length %d", len(res))
	}
	var env taskEnvelope
	if err := json.Unmarshal([]byte(res[1]), &env); err != nil {
		return nil, fmt.Errorf("decode task envelope: %w", err)
	}
	return &env, nil
}

// PublishResult stores a task result and wakes the waiting submitter. Both
// keys expire after the result TTL so abandoned results are garbage-collected
// by Redis.
func (b *Broker) PublishResult(ctx context.Context, taskID string, result map[string]any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode task result: %w", err)
	}
	pipe := b.client.TxPipeline()
	pipe.Set(ctx, b.resultKey(taskID), raw, b.resultTTL)
	pipe.RPush(ctx, b.wakeKey(taskID), raw)
	pipe.Expire(ctx, b.wakeKey(taskID), b.resultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish task result: %w", err)
	}
	return nil
}

// Await blocks up to timeout for the task's result. This is the single
// suspension point of a gateway request. Expiry returns ErrResultTimeout and
// abandons the wait only — the task keeps running on the worker.
//
// go-redis sends the BLPOP timeout in whole seconds, silently raising
// sub-second values to 1s and flooring the rest, so the exact budget is
// enforced with a context deadline instead; the server-side block is rounded
// up so it never expires before the deadline does.
func (b *Broker) Await(ctx context.Context, handle *TaskHandle, timeout time.Duration) (map[string]any, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	block := timeout
	if rem := block % time.Second; rem != 0 {
		block += time.Second - rem
	}
	res, err := b.client.BLPop(waitCtx, block, b.wakeKey(handle.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrResultTimeout
		}
		return nil, fmt.Errorf("await task result: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("await task result: unexpected BLPOP reply length %d", len(res))
	}
	return decodeResult([]byte(res[1]))
}

// Result looks up a stored result by task id without blocking. Handles stay
// resolvable this way until the result TTL expires.
func (b *Broker) Result(ctx context.Context, taskID string) (map[string]any, error) {
	raw, err := b.client.Get(ctx, b.resultKey(taskID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("fetch task result: %w", err)
	}
	return decodeResult(raw)
}

// QueueDepth returns the number of tasks waiting to be claimed.
func (b *Broker) QueueDepth(ctx context.Context) (int64, error) {
	return b.client.LLen(ctx, b.queueKey()).Result()
}

func decodeResult(raw []byte) (map[string]any, error) {
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode task result: %w", err)
	}
	return result, nil
}
