package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss before write
	_, hit, err := c.Get(ctx, "plan:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("Get before Set should miss")
	}

	// Round trip
	if err := c.Set(ctx, "plan:abc", []byte("payload"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "plan:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("Get after Set should hit")
	}
	if string(data) != "payload" {
		t.Errorf("Get data = %q, want %q", data, "payload")
	}

	// Expired entries are treated as misses
	if err := c.Set(ctx, "plan:old", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "plan:old")
	if hit {
		t.Error("expired entry should miss")
	}

	// Delete removes the entry; deleting again is not an error
	if err := c.Delete(ctx, "plan:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "plan:abc")
	if hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "plan:abc"); err != nil {
		t.Errorf("Delete of missing key should not error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// HTTPKey
	httpKey := k.HTTPKey("printer:", "jobs/123")
	if httpKey != "http:printer::jobs/123" {
		t.Errorf("HTTPKey unexpected: %s", httpKey)
	}

	// PlanKey should include options in hash
	pk1 := k.PlanKey("hash123", PlanKeyOpts{Cols: 2, Rows: 2, DPI: 300, MarginPercent: 2.0, Fit: "crop"})
	pk2 := k.PlanKey("hash123", PlanKeyOpts{Cols: 2, Rows: 2, DPI: 300, MarginPercent: 3.0, Fit: "crop"})
	if pk1 == pk2 {
		t.Error("Different PlanKeyOpts should produce different keys")
	}

	// Different photo hashes produce different plan keys
	pk3 := k.PlanKey("hash456", PlanKeyOpts{Cols: 2, Rows: 2, DPI: 300, MarginPercent: 2.0, Fit: "crop"})
	if pk1 == pk3 {
		t.Error("Different request hashes should produce different keys")
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "jpeg", Quality: 95})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "jpeg", Quality: 95, Overlay: "deadbeef"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	// Plan and artifact keys never collide even for identical parameters
	if pk1 == k.ArtifactKey("hash123", ArtifactKeyOpts{Plan: PlanKeyOpts{Cols: 2, Rows: 2, DPI: 300, MarginPercent: 2.0, Fit: "crop"}}) {
		t.Error("PlanKey and ArtifactKey should use distinct prefixes")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "booth:lobby-1:")

	// All keys should be prefixed
	httpKey := scoped.HTTPKey("printer:", "jobs/123")
	if httpKey != "booth:lobby-1:http:printer::jobs/123" {
		t.Errorf("ScopedKeyer HTTPKey unexpected: %s", httpKey)
	}

	planKey := scoped.PlanKey("hash123", PlanKeyOpts{})
	if len(planKey) < 20 || planKey[:14] != "booth:lobby-1:" {
		t.Errorf("ScopedKeyer PlanKey should be prefixed: %s", planKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.HTTPKey("test:", "key")
	if key != "prefix:http:test::key" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	// Non-nil error is wrapped
	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}

	// Error message is preserved
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	// Non-wrapped errors are not retryable
	if IsRetryable(ErrNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrNotFound
	})
	if err != ErrNotFound {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
