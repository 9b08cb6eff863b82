package quotes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRows = []Row{{Date: "2024-01-02", Close: 10}, {Date: "2024-01-03", Close: 11}}

func TestMemoryCacheIsDayKeyed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, err := c.Get(ctx, "pko", "2024-01-03")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "pko", "2024-01-03", testRows))
	rows, err := c.Get(ctx, "pko", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, testRows, rows)

	_, err = c.Get(ctx, "pko", "2024-01-04")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFileCachePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history-cache.json")

	c, err := NewFileCache(path)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "pko", "2024-01-03", testRows))

	reopened, err := NewFileCache(path)
	require.NoError(t, err)
	rows, err := reopened.Get(ctx, "pko", "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, testRows, rows)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileCacheRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := NewFileCache(path)
	assert.Error(t, err)
}

type countingFetcher struct {
	calls int
	rows  []Row
	err   error
}

func (f *countingFetcher) History(context.Context, string) ([]Row, error) {
	f.calls++
	return f.rows, f.err
}

func TestCachedProviderFetchesOncePerDay(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &countingFetcher{rows: testRows}
	p := &CachedProvider{Fetcher: f, Cache: NewMemoryCache(), Logger: zerolog.Nop(), Now: func() time.Time { return day }}

	_, hit, err := p.Rows(ctx, "PKO")
	require.NoError(t, err)
	assert.False(t, hit)

	closes, err := p.Closes(ctx, "pko")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11}, closes)
	assert.Equal(t, 1, f.calls)

	day = day.Add(24 * time.Hour)
	_, hit, err = p.Rows(ctx, "pko")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, f.calls)
}

func TestCachedProviderPropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	p := &CachedProvider{Fetcher: &countingFetcher{err: boom}, Cache: NewMemoryCache()}

	_, err := p.Closes(context.Background(), "pko")
	assert.ErrorIs(t, err, boom)

	p = &CachedProvider{Fetcher: &countingFetcher{rows: []Row{{Close: 0}}}, Cache: NewMemoryCache()}
	_, err = p.Closes(context.Background(), "pko")
	assert.ErrorIs(t, err, ErrEmptyHistory)
}

func TestUntilEndOfDay(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Hour, untilEndOfDay(now))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("STOCKSIM_TEST_REDIS")
	if addr == "" {
		t.Skip("STOCKSIM_TEST_REDIS not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "stocksim-test"})
	require.NoError(t, err)
	defer c.Close()

	day := DayKey(time.Now())
	_, err = c.Get(ctx, "nope", day)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "pko", day, testRows))
	rows, err := c.Get(ctx, "pko", day)
	require.NoError(t, err)
	assert.Equal(t, testRows, rows)
}
