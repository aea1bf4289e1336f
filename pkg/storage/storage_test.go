package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return store
}

func TestSaveAndOpen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	obj, err := store.Save(ctx, []byte("jpeg-bytes"), ".jpg")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasSuffix(obj.Name, ".jpg") {
		t.Errorf("name = %q, want .jpg suffix", obj.Name)
	}
	if obj.Size != int64(len("jpeg-bytes")) {
		t.Errorf("size = %d, want %d", obj.Size, len("jpeg-bytes"))
	}

	rc, got, err := store.Open(ctx, obj.Name)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("data = %q", data)
	}
	if got.Name != obj.Name || got.Size != obj.Size {
		t.Errorf("Open() object = %+v, want %+v", got, obj)
	}
}

func TestSaveUniqueNames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.Save(ctx, []byte("one"), "jpg")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	b, err := store.Save(ctx, []byte("two"), "jpg")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if a.Name == b.Name {
		t.Error("saved objects should get unique names")
	}
}

func TestSaveNormalizesExtension(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		ext  string
		want string
	}{
		{"", ".jpg"},
		{"jpg", ".jpg"},
		{".PNG", ".png"},
		{"jpeg", ".jpeg"},
	}
	for _, tt := range tests {
		obj, err := store.Save(ctx, []byte("x"), tt.ext)
		if err != nil {
			t.Fatalf("Save(%q) error: %v", tt.ext, err)
		}
		if !strings.HasSuffix(obj.Name, tt.want) {
			t.Errorf("Save(%q) name = %q, want %q suffix", tt.ext, obj.Name, tt.want)
		}
	}
}

func TestSaveRejectsUnknownExtension(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Save(context.Background(), []byte("x"), ".exe")
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Fatalf("Save() error = %v, want UNSUPPORTED", err)
	}
}

func TestOpenMissing(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.Open(context.Background(), "0000-absent.jpg")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Fatalf("Open() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"../secret.jpg", "a/b.jpg", ".hidden.jpg", ""} {
		_, _, err := store.Open(ctx, name)
		if !errors.Is(err, errors.ErrCodeInvalidName) {
			t.Errorf("Open(%q) error = %v, want INVALID_NAME", name, err)
		}
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	obj, err := store.Save(ctx, []byte("x"), ".jpg")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Delete(ctx, obj.Name); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, _, err := store.Open(ctx, obj.Name); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Open() after delete = %v, want FILE_NOT_FOUND", err)
	}

	// Deleting again is fine
	if err := store.Delete(ctx, obj.Name); err != nil {
		t.Fatalf("second Delete() error: %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old, err := store.Save(ctx, []byte("old"), ".jpg")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	// Push the first file's mtime into the past; filesystems may not
	// tick between two immediate writes.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old.Path, past, past); err != nil {
		t.Fatal(err)
	}
	recent, err := store.Save(ctx, []byte("new"), ".png")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Stray files are ignored
	if err := os.WriteFile(filepath.Join(store.Path(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	objects, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("List() returned %d objects, want 2", len(objects))
	}
	if objects[0].Name != recent.Name || objects[1].Name != old.Name {
		t.Errorf("List() order = %s, %s", objects[0].Name, objects[1].Name)
	}
}
