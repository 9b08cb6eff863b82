package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	s, _ := newTestSession(t, Options{ID: "g1"}, nil)
	r.Add(s)

	got, ok := r.Get("g1")
	assert.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	r.Remove("g1")
	_, ok = r.Get("g1")
	assert.False(t, ok)
}

func TestRegistrySweepEvictsByAge(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry(
		WithClock(clock.now),
		WithRetention(Retention{FinishedGrace: 10 * time.Minute, IdleTTL: time.Hour}),
	)

	idle, _ := newTestSession(t, Options{ID: "idle"}, map[string][]float64{"aaa": {100}})
	done, _ := newTestSession(t, Options{ID: "done"}, map[string][]float64{"aaa": {100}})
	require.NoError(t, done.Start())
	_, err := done.Buy(ctx, "aaa", 1)
	require.NoError(t, err)
	_, err = done.Abandon(ctx)
	require.NoError(t, err)
	playing, rec := newTestSession(t, Options{ID: "playing"}, map[string][]float64{"aaa": {100}})
	require.NoError(t, playing.Start())

	r.Add(idle)
	r.Add(done)
	r.Add(playing)

	clock.advance(9 * time.Minute)
	assert.Empty(t, r.Sweep(ctx))

	clock.advance(time.Minute)
	assert.Equal(t, []string{"done"}, r.Sweep(ctx))
	assert.Equal(t, 2, r.Len())

	clock.advance(30 * time.Minute)
	_, ok := r.Get("idle")
	require.True(t, ok)

	clock.advance(30 * time.Minute)
	assert.Equal(t, []string{"playing"}, r.Sweep(ctx))
	assert.Equal(t, StatusAbandoned, playing.Status())
	assert.Equal(t, 1, rec.count())

	_, ok = r.Get("idle")
	assert.True(t, ok)
}

func TestRegistryWithoutRetentionKeepsEverything(t *testing.T) {
	clock := &testClock{t: time.Now()}
	r := NewRegistry(WithClock(clock.now))
	s, _ := newTestSession(t, Options{ID: "g1"}, nil)
	r.Add(s)

	clock.advance(24 * 365 * time.Hour)
	assert.Empty(t, r.Sweep(context.Background()))
	assert.Equal(t, 1, r.Len())
}
