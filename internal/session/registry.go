package session

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"crmagent/internal/campaign"
)

// Status is the session lifecycle flag.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

type state struct {
	id          string
	clientIDs   []string
	logs        []campaign.LogEntry
	results     []campaign.RenderedResult
	status      Status
	createdAt   time.Time
	completedAt time.Time
}

// Snapshot is a read-consistent view of a session at call time.
type Snapshot struct {
	ID          string
	ClientIDs   []string
	Status      Status
	LogLength   int
	ResultCount int
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Completed reports whether the session reached its terminal status.
func (s Snapshot) Completed() bool {
	return s.Status == StatusCompleted
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*state
	now      func() time.Time
}

// Option customizes a Registry.
type Option func(*Registry)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*state),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewID formats a session identifier: session_<16 hex>_<unix seconds>.
func NewID(at time.Time) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("session_%s_%d", token, at.Unix())
}

// Create allocates a running session and returns its id.
func (r *Registry) Create(clientIDs []string) string {
	now := r.now()
	st := &state{
		clientIDs: append([]string(nil), clientIDs...),
		status:    StatusRunning,
		createdAt: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		st.id = NewID(now)
		if _, exists := r.sessions[st.id]; !exists {
			break
		}
	}
	r.sessions[st.id] = st
	return st.id
}

// AppendLog appends entry. Unknown ids are ignored.
func (r *Registry) AppendLog(id string, entry campaign.LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[id]; ok {
		st.logs = append(st.logs, entry)
	}
}

// AppendResult appends result. Unknown ids are ignored.
func (r *Registry) AppendResult(id string, result campaign.RenderedResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[id]; ok {
		st.results = append(st.results, result)
	}
}

// Complete marks the session completed. Later calls change nothing.
func (r *Registry) Complete(id string) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok || st.status == StatusCompleted {
		return
	}
	st.status = StatusCompleted
	st.completedAt = now
}

// Get returns a snapshot, or false if the id is unknown.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return Snapshot{}, false
	}
	return st.snapshot(), true
}

// Results returns the results accumulated so far, or false if the id is unknown.
func (r *Registry) Results(id string) ([]campaign.RenderedResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return append([]campaign.RenderedResult(nil), st.results...), true
}

// LogSince returns the entries at positions >= offset together with a
// snapshot taken in the same critical section. A negative offset reads from
// the start; an offset past the end yields no entries.
func (r *Registry) LogSince(id string, offset int) ([]campaign.LogEntry, Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return nil, Snapshot{}, false
	}
	if offset < 0 {
		offset = 0
	}
	var entries []campaign.LogEntry
	if offset < len(st.logs) {
		entries = append([]campaign.LogEntry(nil), st.logs[offset:]...)
	}
	return entries, st.snapshot(), true
}

// List returns snapshots of every session, oldest first.
func (r *Registry) List() []Snapshot {
	r.mu.Lock()
	out := make([]Snapshot, 0, len(r.sessions))
	for _, st := range r.sessions {
		out = append(out, st.snapshot())
	}
	r.mu.Unlock()

	sortSnapshots(out)
	return out
}

// Sweep removes completed sessions that finished before cutoff and returns
// how many were removed. Running sessions are never removed.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, st := range r.sessions {
		if st.status == StatusCompleted && st.completedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (st *state) snapshot() Snapshot {
	return Snapshot{
		ID:          st.id,
		ClientIDs:   append([]string(nil), st.clientIDs...),
		Status:      st.status,
		LogLength:   len(st.logs),
		ResultCount: len(st.results),
		CreatedAt:   st.createdAt,
		CompletedAt: st.completedAt,
	}
}

func sortSnapshots(list []Snapshot) {
	slices.SortFunc(list, func(a, b Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
