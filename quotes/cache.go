package quotes

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when no rows are cached for the symbol and day.
var ErrCacheMiss = errors.New("quotes: cache miss")

// Cache stores a symbol's history for one calendar day.
type Cache interface {
	Get(ctx context.Context, symbol, dayKey string) ([]Row, error)
	Set(ctx context.Context, symbol, dayKey string, rows []Row) error
}

// DayKey is the UTC calendar date used to expire cached history.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

type entry struct {
	DayKey    string    `json:"dateKey"`
	FetchedAt time.Time `json:"fetchedAt"`
	Rows      []Row     `json:"rows"`
}

// MemoryCache keeps one entry per symbol in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Get(_ context.Context, symbol, dayKey string) ([]Row, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[symbol]
	if !ok || e.DayKey != dayKey {
		return nil, ErrCacheMiss
	}
	return append([]Row(nil), e.Rows...), nil
}

func (c *MemoryCache) Set(_ context.Context, symbol, dayKey string, rows []Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = entry{DayKey: dayKey, FetchedAt: time.Now().UTC(), Rows: append([]Row(nil), rows...)}
	return nil
}
