// Package session provides viewer sessions for the interactive server.
//
// A session owns one live diagram and the in-memory scene it is drawn on.
// Pointer events from a browser are routed into the scene through the
// session, which serializes access with a mutex: diagrams are not safe for
// concurrent use, sessions are.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(d, sc, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    // SESSION_NOT_FOUND: unknown or expired
//	}
//	err = sess.Do(func(d *diagram.Diagram, sc *scene.Scene) error {
//	    sc.Dispatch(scene.GestureClick, target, at, 0, 0)
//	    return nil
//	})
//
// Sessions live only in memory and are lost on restart.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowchart/pkg/diagram"
	"github.com/matzehuels/flowchart/pkg/errors"
	"github.com/matzehuels/flowchart/pkg/graph"
	"github.com/matzehuels/flowchart/pkg/surface/scene"
)

// Default durations.
const (
	// DefaultTTL is how long an idle session is kept.
	DefaultTTL = 30 * time.Minute

	// maxEvents bounds the per-session event backlog.
	maxEvents = 64
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New(errors.ErrCodeSessionNotFound, "session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New(errors.ErrCodeSessionNotFound, "session expired")
)

// Event is a diagram event reported back to the viewer.
type Event struct {
	Kind string  `json:"kind"` // click, dblclick, hover, drag
	Node int     `json:"node"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Session is one viewer's live diagram.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	ttl       time.Duration
	expiresAt time.Time
	diagram   *diagram.Diagram
	scene     *scene.Scene
	events    []Event
}

// New creates a session with a fresh random id.
func New(d *diagram.Diagram, sc *scene.Scene, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ttl:       ttl,
		expiresAt: now.Add(ttl),
		diagram:   d,
		scene:     sc,
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().After(s.expiresAt)
}

// ExpiresAt returns the current expiry time.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// Do runs fn with exclusive access to the diagram and scene, and extends
// the session's lifetime.
func (s *Session) Do(fn func(d *diagram.Diagram, sc *scene.Scene) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(s.ttl)
	return fn(s.diagram, s.scene)
}

// Record appends an event to the backlog, dropping the oldest beyond the
// limit. It must be called from within Do, which already holds the lock.
func (s *Session) Record(ev Event) {
	s.events = append(s.events, ev)
	if n := len(s.events) - maxEvents; n > 0 {
		s.events = s.events[n:]
	}
}

// Drain returns and clears the backlog. Like Record, it is called from
// within Do.
func (s *Session) Drain() []Event {
	out := s.events
	s.events = nil
	return out
}

// Snapshot returns the diagram's node list at the current positions.
func (s *Session) Snapshot() []graph.NodeSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diagram.Snapshot()
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a live session by ID. Unknown ids return ErrNotFound,
	// expired ones ErrExpired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	// Len returns the number of stored sessions.
	Len() int
}
