package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unisupport/unisupport/internal/session"
)

var errUnknownSession = errors.New("quiz session not found")

type entry struct {
	ctrl     *session.Controller
	userID   string
	lastUsed time.Time
}

// registry holds the live quiz controllers keyed by session ID.
type registry struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func newRegistry(ttl time.Duration, now func() time.Time) *registry {
	return &registry{ttl: ttl, now: now, entries: make(map[string]*entry)}
}

// put registers ctrl under id and drops sessions idle longer than the TTL.
func (r *registry) put(id, userID string, ctrl *session.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for k, e := range r.entries {
		if now.Sub(e.lastUsed) > r.ttl {
			delete(r.entries, k)
		}
	}
	r.entries[id] = &entry{ctrl: ctrl, userID: userID, lastUsed: now}
	activeSessions.Set(float64(len(r.entries)))
}

// get returns the controller of id when it belongs to userID. Sessions of
// other users are reported as unknown.
func (r *registry) get(id, userID string) (*session.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.userID != userID {
		return nil, errUnknownSession
	}
	e.lastUsed = r.now()
	return e.ctrl, nil
}

func (r *registry) remove(id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.userID != userID {
		return errUnknownSession
	}
	delete(r.entries, id)
	activeSessions.Set(float64(len(r.entries)))
	return nil
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// memoryKV is the process-local KV used when no store is configured.
type memoryKV struct {
	mu   sync.RWMutex
	vals map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{vals: make(map[string]string)}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = value
	return nil
}
