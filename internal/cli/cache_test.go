package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheStats(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a"), make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b"), make([]byte, 20), 0o644); err != nil {
		t.Fatal(err)
	}

	count, size, err := cacheStats(dir)
	if err != nil {
		t.Fatalf("cacheStats() error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if size != 30 {
		t.Errorf("size = %d, want 30", size)
	}
}

func TestCacheStatsMissingDir(t *testing.T) {
	count, size, err := cacheStats(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("cacheStats() error: %v", err)
	}
	if count != 0 || size != 0 {
		t.Errorf("missing dir = (%d, %d), want (0, 0)", count, size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.0 kB"},
		{1500, "1.5 kB"},
		{2_000_000, "2.0 MB"},
		{3_500_000_000, "3.5 GB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
