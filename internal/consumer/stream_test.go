package consumer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kit/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/chance-calculator/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/chance-calculator/pkg/models"
)

type recorder struct {
	mu      sync.Mutex
	results []models.SimulationResult
}

func (r *recorder) Broadcast(result models.SimulationResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.results))
	for _, res := range r.results {
		ids = append(ids, res.ID)
	}
	return ids
}

func newTestConsumer(t *testing.T) (*StreamConsumer, *recorder, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rec := &recorder{}
	sc := NewStreamConsumer(client, rec, publisher.DefaultStream, "chance-ws", "test-1", log.NewNopLogger())
	sc.block = -1
	return sc, rec, client
}

func TestStreamConsumer_DeliversPublishedResults(t *testing.T) {
	sc, rec, client := newTestConsumer(t)
	ctx := context.Background()

	require.NoError(t, sc.EnsureGroup(ctx))
	require.NoError(t, sc.EnsureGroup(ctx), "existing group is fine")

	pub := publisher.NewStreamPublisher(client, publisher.DefaultStream)
	for _, id := range []string{"a", "b"} {
		_, err := pub.Publish(ctx, &models.SimulationResult{ID: id, Kind: "odds", CreatedAt: time.Now().UTC()})
		require.NoError(t, err)
	}

	n, err := sc.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, rec.ids())

	n, err = sc.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "entries are delivered once")

	pending, err := client.XPending(ctx, publisher.DefaultStream, "chance-ws").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestStreamConsumer_SkipsMalformedEntries(t *testing.T) {
	sc, rec, client := newTestConsumer(t)
	ctx := context.Background()
	require.NoError(t, sc.EnsureGroup(ctx))

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: publisher.DefaultStream,
		Values: map[string]interface{}{"data": "{not json"},
	}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: publisher.DefaultStream,
		Values: map[string]interface{}{"payload": "x"},
	}).Err())

	n, err := sc.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, rec.ids())

	pending, err := client.XPending(ctx, publisher.DefaultStream, "chance-ws").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count, "malformed entries are acked")
}

func TestStreamConsumer_StartStopsOnCancel(t *testing.T) {
	sc, _, _ := newTestConsumer(t)
	sc.block = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sc.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("consumer did not stop")
	}
}
