// Package storage persists finished composites so guests can download or
// reprint them after the booth session ends.
//
// Objects are content files named by fresh UUIDs, so names are unguessable
// and never collide across kiosks. The name is the public handle: it
// travels through API responses and QR codes, and [errors.ValidateObjectName]
// guards every lookup so a handle can never escape the storage directory.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Object describes one stored composite.
type Object struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the interface for composite storage backends.
type Store interface {
	// Save writes data under a fresh UUID name with the given extension.
	Save(ctx context.Context, data []byte, ext string) (Object, error)

	// Open returns a reader for a stored object plus its metadata.
	Open(ctx context.Context, name string) (io.ReadSeekCloser, Object, error)

	// Delete removes a stored object. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, name string) error

	// List returns all stored objects, newest first.
	List(ctx context.Context) ([]Object, error)
}

// Extensions accepted by Save. Print services take JPEG and PNG.
var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// FileStore stores composites as flat files in a single directory.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed composite store.
// If baseDir is empty, defaults to ~/.local/share/gridbooth/composites/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "gridbooth", "composites")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the base directory for stored composites.
func (s *FileStore) Path() string {
	return s.baseDir
}

func (s *FileStore) Save(ctx context.Context, data []byte, ext string) (Object, error) {
	if ext == "" {
		ext = ".jpg"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)
	if !allowedExts[ext] {
		return Object{}, errors.New(errors.ErrCodeUnsupported, "unsupported composite extension %q", ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.baseDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return Object{}, errors.Wrap(errors.ErrCodeStorage, err, "write composite %s", name)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Object{}, errors.Wrap(errors.ErrCodeStorage, err, "stat composite %s", name)
	}
	return objectFromInfo(name, path, info), nil
}

func (s *FileStore) Open(ctx context.Context, name string) (io.ReadSeekCloser, Object, error) {
	if err := errors.ValidateObjectName(name); err != nil {
		return nil, Object{}, err
	}

	path := filepath.Join(s.baseDir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Object{}, errors.New(errors.ErrCodeFileNotFound, "composite %s not found", name)
		}
		return nil, Object{}, errors.Wrap(errors.ErrCodeStorage, err, "open composite %s", name)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, Object{}, errors.Wrap(errors.ErrCodeStorage, err, "stat composite %s", name)
	}
	return f, objectFromInfo(name, path, info), nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateObjectName(name); err != nil {
		return err
	}

	path := filepath.Join(s.baseDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove composite %s", name)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read storage dir")
	}

	var objects []Object
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !allowedExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, objectFromInfo(entry.Name(), filepath.Join(s.baseDir, entry.Name()), info))
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].CreatedAt.After(objects[j].CreatedAt)
	})
	return objects, nil
}

func objectFromInfo(name, path string, info os.FileInfo) Object {
	return Object{
		Name:      name,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}
}

var _ Store = (*FileStore)(nil)
