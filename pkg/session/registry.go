package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long an unused session is kept by a [Registry].
const DefaultTTL = time.Hour

// Registry maps session ids to sessions. Its mutex guards only the map;
// each session has its own lock held for the duration of [Registry.With].
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	opts     Options
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	mu   sync.Mutex
	s    *Session
	used time.Time // guarded by Registry.mu
}

// NewRegistry returns an empty registry creating sessions with opts.
// A non-positive ttl selects [DefaultTTL].
func NewRegistry(opts Options, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		sessions: make(map[string]*entry),
		opts:     opts,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create adds a new session and returns its id.
func (r *Registry) Create() string {
	s := New(r.opts)
	r.mu.Lock()
	r.sessions[s.ID()] = &entry{s: s, used: r.now()}
	r.mu.Unlock()
	return s.ID()
}

// With runs fn on the session with id while holding that session's lock.
// It returns [ErrNotFound] for unknown ids and fn's error otherwise.
func (r *Registry) With(id string, fn func(*Session) error) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		e.used = r.now()
	}
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.s)
}

// Delete removes the session with id and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len returns the number of sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup removes sessions unused for longer than the TTL and returns how
// many were removed.
func (r *Registry) Cleanup() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sessions {
		if e.used.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cleanup()
		}
	}
}
