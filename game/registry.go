package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// Retention decides how long the registry keeps a session after its last
// use. A zero duration keeps sessions of that kind forever.
type Retention struct {
	FinishedGrace time.Duration // won, lost or abandoned
	IdleTTL       time.Duration // idle or playing
}

// Registry holds the live sessions of a server process.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	retention Retention
	now       func() time.Time
}

type entry struct {
	s       *Session
	touched time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRetention enables eviction by Sweep.
func WithRetention(r Retention) RegistryOption {
	return func(reg *Registry) { reg.retention = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RegistryOption {
	return func(reg *Registry) { reg.now = now }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = &entry{s: s, touched: r.now()}
}

// Get returns a session and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.touched = r.now()
	return e.s, true
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts finished sessions older than FinishedGrace and unfinished
// ones unused for IdleTTL. A game still in play is abandoned on eviction
// so its result reaches the recorder. It returns the evicted ids, sorted.
func (r *Registry) Sweep(ctx context.Context) []string {
	r.mu.Lock()
	now := r.now()
	var evicted []*Session
	for id, e := range r.sessions {
		age := now.Sub(e.touched)
		ttl := r.retention.IdleTTL
		if e.s.Status().Terminal() {
			ttl = r.retention.FinishedGrace
		}
		if ttl > 0 && age >= ttl {
			evicted = append(evicted, e.s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(evicted))
	for _, s := range evicted {
		ids = append(ids, s.ID())
		if s.Status() != StatusPlaying {
			continue
		}
		if _, err := s.Abandon(ctx); err != nil && !errors.Is(err, ErrFinished) {
			s.log.Warn().Err(err).Msg("abandon on eviction failed")
		}
	}
	sort.Strings(ids)
	return ids
}

// Run sweeps every interval until ctx is done. after, when set, receives
// the ids evicted by each sweep that removed something.
func (r *Registry) Run(ctx context.Context, every time.Duration, after func(ids []string)) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ids := r.Sweep(ctx); len(ids) > 0 && after != nil {
				after(ids)
			}
		}
	}
}
