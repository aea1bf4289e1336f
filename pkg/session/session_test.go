package session

import (
	"context"
	"testing"
	"time"

	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/errors"
)

func newTestSession(t *testing.T, ttl time.Duration) *Session {
	t.Helper()
	sess, err := New(compose.GridSpec{Cols: 2, Rows: 2, ID: "4x6-4cut"}, compose.Options{}, ttl)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return sess
}

func TestNew(t *testing.T) {
	sess := newTestSession(t, DefaultTTL)

	if sess.State != StateCreated {
		t.Errorf("state = %q, want %q", sess.State, StateCreated)
	}
	if err := errors.ValidateSessionID(sess.ID); err != nil {
		t.Errorf("generated id %q is not a valid session id: %v", sess.ID, err)
	}
	if sess.IsExpired() {
		t.Error("fresh session should not be expired")
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Error("expiry should be after creation")
	}

	other := newTestSession(t, DefaultTTL)
	if other.ID == sess.ID {
		t.Error("session ids should be unique")
	}
}

func TestNewInvalidGrid(t *testing.T) {
	_, err := New(compose.GridSpec{Cols: 0, Rows: 2}, compose.Options{}, DefaultTTL)
	if !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Fatalf("New() error = %v, want INVALID_GRID", err)
	}
}

func TestAdvance(t *testing.T) {
	sess := newTestSession(t, DefaultTTL)

	for _, next := range []State{StateCaptured, StateComposed, StatePrinted} {
		if err := sess.Advance(next); err != nil {
			t.Fatalf("Advance(%s) error: %v", next, err)
		}
		if sess.State != next {
			t.Errorf("state = %q, want %q", sess.State, next)
		}
	}

	// Backward moves fail
	if err := sess.Advance(StateCaptured); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("backward Advance() error = %v, want INVALID_REQUEST", err)
	}
	if sess.State != StatePrinted {
		t.Errorf("failed transition changed state to %q", sess.State)
	}

	// Unknown states fail
	if err := sess.Advance("developed"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown Advance() error = %v, want INVALID_INPUT", err)
	}
}

func TestAdvanceSkipsStages(t *testing.T) {
	// A scripted compose can jump straight from created to composed
	sess := newTestSession(t, DefaultTTL)
	if err := sess.Advance(StateComposed); err != nil {
		t.Fatalf("Advance(composed) error: %v", err)
	}

	// Re-advancing to the current state is a no-op
	if err := sess.Advance(StateComposed); err != nil {
		t.Fatalf("repeated Advance() error: %v", err)
	}
}

func TestStateValid(t *testing.T) {
	for _, s := range []State{StateCreated, StateCaptured, StateComposed, StatePrinted} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if State("archived").Valid() {
		t.Error("unknown state should be invalid")
	}
}

// storeTest runs the shared Store contract against an implementation.
func storeTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	sess := newTestSession(t, DefaultTTL)
	sess.PageLabel = "4x6"

	// Missing session reads as nil, nil
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Fatal("Get() before Set should return nil")
	}

	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err = store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() after Set should find the session")
	}
	if got.ID != sess.ID || got.State != StateCreated || got.PageLabel != "4x6" {
		t.Errorf("Get() = %+v", got)
	}
	if got.Grid != sess.Grid {
		t.Errorf("grid = %+v, want %+v", got.Grid, sess.Grid)
	}

	// Updates persist
	if err := got.Advance(StateComposed); err != nil {
		t.Fatal(err)
	}
	got.CompositeName = "abc.jpg"
	if err := store.Set(ctx, got); err != nil {
		t.Fatalf("Set() update error: %v", err)
	}
	got, err = store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.State != StateComposed || got.CompositeName != "abc.jpg" {
		t.Errorf("updated session = %+v", got)
	}

	// List returns live sessions newest first
	second := newTestSession(t, DefaultTTL)
	second.CreatedAt = second.CreatedAt.Add(time.Minute)
	if err := store.Set(ctx, second); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("List() should order newest first, got %s", list[0].ID)
	}

	// Reading past the TTL reports expiry and removes the stale record,
	// so the next read sees a missing session
	expired := newTestSession(t, DefaultTTL)
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	if err := store.Set(ctx, expired); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	got, err = store.Get(ctx, expired.ID)
	if !errors.Is(err, errors.ErrCodeSessionExpired) {
		t.Fatalf("Get() expired error = %v, want SESSION_EXPIRED", err)
	}
	if got != nil {
		t.Error("expired session should read as nil")
	}
	got, err = store.Get(ctx, expired.ID)
	if err != nil {
		t.Fatalf("Get() after expiry removal error: %v", err)
	}
	if got != nil {
		t.Error("removed session should read as nil")
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	list, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List() after cleanup returned %d sessions, want 2", len(list))
	}

	// Delete is idempotent
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("second Delete() error: %v", err)
	}
	got, err = store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Error("deleted session should read as nil")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	storeTest(t, store)
}

func TestMemoryStoreCopiesSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := newTestSession(t, DefaultTTL)
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store
	sess.State = StatePrinted
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != StateCreated {
		t.Errorf("store state = %q, want %q", got.State, StateCreated)
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	defer store.Close()
	storeTest(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	sess := newTestSession(t, DefaultTTL)
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() reopen error: %v", err)
	}
	got, err := reopened.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Error("session should survive a store reopen")
	}
}

func TestFileStoreRejectsBadID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	ctx := context.Background()

	_, err = store.Get(ctx, "../../etc/passwd")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Get() error = %v, want INVALID_INPUT", err)
	}
	err = store.Set(ctx, &Session{ID: "not-a-uuid"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Set() error = %v, want INVALID_INPUT", err)
	}
}
