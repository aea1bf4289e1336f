// Package session tracks one guest visit at the booth from first tap to
// printed strip.
//
// This package defines the session model and a storage interface with
// implementations for different deployments:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for single-kiosk installations
//   - mongo: MongoDB-backed storage for multi-booth events
//
// # Architecture
//
// A session is created when guests start an interaction and advances
// through a fixed lifecycle:
//
//	created -> captured -> composed -> printed
//
// Each state records what already happened: photos captured, composite
// rendered, print job submitted. Transitions only move forward; a session
// that printed can never return to captured. Sessions expire after a TTL
// so abandoned interactions clean themselves up.
//
// The Store interface supports:
//   - Get/Set/Delete/List operations
//   - Expiration checking on read
//   - Cleanup of expired sessions
//
// # Usage
//
// Create a session store:
//
//	// Development
//	store := session.NewMemoryStore()
//
//	// Single kiosk
//	store, err := session.NewFileStore("")  // Uses ~/.config/gridbooth/sessions/
//
//	// Event fleet
//	store, err := session.NewMongoStore(ctx, session.MongoConfig{
//	    URI: "mongodb://localhost:27017",
//	})
//
// Manage sessions:
//
//	// Create session
//	sess, err := session.New(grid, opts, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	// Retrieve session
//	sess, err := store.Get(ctx, sessionID)
//	if err != nil {
//	    return err // session.ErrExpired when the TTL has passed
//	}
//	if sess == nil {
//	    // Session not found
//	}
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/errors"
)

// State is a session lifecycle stage.
type State string

// Session lifecycle states, in order.
const (
	StateCreated  State = "created"
	StateCaptured State = "captured"
	StateComposed State = "composed"
	StatePrinted  State = "printed"
)

var stateOrder = map[State]int{
	StateCreated:  0,
	StateCaptured: 1,
	StateComposed: 2,
	StatePrinted:  3,
}

// Valid reports whether the state is a known lifecycle stage.
func (s State) Valid() bool {
	_, ok := stateOrder[s]
	return ok
}

// Session stores one booth interaction.
type Session struct {
	ID            string           `json:"id" bson:"_id"`
	State         State            `json:"state" bson:"state"`
	Grid          compose.GridSpec `json:"grid" bson:"grid"`
	Options       compose.Options  `json:"options" bson:"options"`
	PageLabel     string           `json:"page_label,omitempty" bson:"page_label,omitempty"`
	CompositeName string           `json:"composite_name,omitempty" bson:"composite_name,omitempty"`
	PrintJobID    string           `json:"print_job_id,omitempty" bson:"print_job_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at" bson:"created_at"`
	ExpiresAt     time.Time        `json:"expires_at" bson:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Advance moves the session to a later lifecycle state. Moving backward or
// to an unknown state fails; advancing to the current state is a no-op.
func (s *Session) Advance(to State) error {
	target, ok := stateOrder[to]
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "unknown session state %q", to)
	}
	if target < stateOrder[s.State] {
		return errors.New(errors.ErrCodeInvalidRequest, "session %s cannot move from %s back to %s", s.ID, s.State, to)
	}
	s.State = to
	return nil
}

// ErrExpired is returned by Store.Get when a session exists but its TTL
// has passed. The stale record is removed as part of the read, so a
// second Get reports the session as missing.
var ErrExpired = errors.New(errors.ErrCodeSessionExpired, "session expired")

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist and ErrExpired if it
	// outlived its TTL.
	Get(ctx context.Context, sessionID string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, sessionID string) error

	// List returns all live sessions, newest first.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the default session duration. Long enough for guests to
// come back for a reprint the same day.
const DefaultTTL = 24 * time.Hour

// New creates a session in the created state with a fresh UUID.
func New(grid compose.GridSpec, opts compose.Options, ttl time.Duration) (*Session, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		State:     StateCreated,
		Grid:      grid,
		Options:   opts,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}
