package queue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	broker, err := NewBroker("redis://"+srv.Addr(), "chat", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = broker.Close() })
	return broker, srv
}

func TestBrokerSubmitAndClaim(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	handle, err := broker.Submit(ctx, map[string]any{
		"query": "Hello", "plan": "basic", "user_id": "u1", "use_profile": false,
	})
	require.NoError(t, err)
	require.NotEmpty(t, handle.ID)

	env, err := broker.NextTask(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, handle.ID, env.TaskID)
	assert.Equal(t, "Hello", env.Payload["query"])
	assert.Equal(t, false, env.Payload["use_profile"])
}

func TestBrokerClaimEmptyQueue(t *testing.T) {
	broker, _ := newTestBroker(t)

	_, err := broker.NextTask(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoTasksAvailable)
}

func TestBrokerPublishAndAwait(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	handle := &TaskHandle{ID: "task-1"}
	result := map[string]any{"reply": "Hi there", "status": "success", "queued": true}

	// Publish before Await: the wake list buffers the result, so the order
	// of publish vs. wait does not matter.
	require.NoError(t, broker.PublishResult(ctx, handle.ID, result))

	got, err := broker.Await(ctx, handle, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Hi there", got["reply"])
	assert.Equal(t, "success", got["status"])
	assert.Equal(t, true, got["queued"])
}

func TestBrokerAwaitThenPublish(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()
	handle := &TaskHandle{ID: "task-2"}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = broker.PublishResult(ctx, handle.ID, map[string]any{"reply": "late"})
	}()

	got, err := broker.Await(ctx, handle, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "late", got["reply"])
}

func TestBrokerAwaitTimeout(t *testing.T) {
	broker, _ := newTestBroker(t)

	start := time.Now()
	_, err := broker.Await(context.Background(), &TaskHandle{ID: "never"}, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrResultTimeout)
	// The wait must expire close to the configured timeout: not earlier,
	// not substantially later.
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestBrokerAwaitSubSecondTimeoutNotStretched(t *testing.T) {
	broker, _ := newTestBroker(t)

	// Redis blocks in whole seconds; the wait budget must still hold for
	// sub-second and non-integral timeouts.
	for _, timeout := range []time.Duration{300 * time.Millisecond, 1500 * time.Millisecond} {
		start := time.Now()
		_, err := broker.Await(context.Background(), &TaskHandle{ID: "never"}, timeout)
		elapsed := time.Since(start)

		assert.ErrorIs(t, err, ErrResultTimeout)
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.Less(t, elapsed, timeout+500*time.Millisecond)
	}
}

func TestBrokerResultLookup(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	require.NoError(t, broker.PublishResult(ctx, "task-3", map[string]any{"reply": "stored"}))

	// The durable copy survives the blocking wait having consumed the wake
	// list entry.
	_, err := broker.Await(ctx, &TaskHandle{ID: "task-3"}, time.Second)
	require.NoError(t, err)

	got, err := broker.Result(ctx, "task-3")
	require.NoError(t, err)
	assert.Equal(t, "stored", got["reply"])
}

func TestBrokerResultExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	broker, err := NewBroker("redis://"+srv.Addr(), "chat", time.Minute)
	require.NoError(t, err)
	defer broker.Close()
	ctx := context.Background()

	require.NoError(t, broker.PublishResult(ctx, "task-4", map[string]any{"reply": "ephemeral"}))

	srv.FastForward(2 * time.Minute)

	_, err = broker.Result(ctx, "task-4")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestBrokerResultNotFound(t *testing.T) {
	broker, _ := newTestBroker(t)

	_, err := broker.Result(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestBrokerQueueDepth(t *testing.T) {
	broker, _ := newTestBroker(t)
	ctx := context.Background()

	depth, err := broker.QueueDepth(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, depth)

	_, err = broker.Submit(ctx, map[string]any{"query": "a"})
	require.NoError(t, err)
	_, err = broker.Submit(ctx, map[string]any{"query": "b"})
	require.NoError(t, err)

	depth, err = broker.QueueDepth(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, depth)
}

func TestBrokerRejectsBadURL(t *testing.T) {
	_, err := NewBroker("not a url", "chat", time.Hour)
	assert.Error(t, err)
}
