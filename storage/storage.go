// Package storage keeps uploaded media (product photos, collection covers).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Store is the object storage used for media.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DiskStore writes objects under Root and serves them at
// <PublicBaseURL>/media/<key>.
type DiskStore struct {
	Root          string
	PublicBaseURL string
}

func NewDiskStore(root, publicBaseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %s: %w", root, err)
	}
	return &DiskStore{Root: root, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// CleanKey normalizes a key and rejects anything that could leave Root.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(key), nil
}

func (s *DiskStore) URL(key string) string {
	return s.PublicBaseURL + "/media/" + key
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dest := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create dir for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", key, err)
	}

	zap.S().Debugf("Stored media %s (%s)", key, contentType)
	return s.URL(key), nil
}

// Delete removes an object. A missing object is not an error.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Handler serves stored objects under /media/. Directories are not listed.
func (s *DiskStore) Handler() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(filesOnly{http.Dir(s.Root)}))
}

// filesOnly hides directories so the file server answers 404 for them.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
