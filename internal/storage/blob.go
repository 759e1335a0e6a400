// Package storage keeps complaint photos on a filesystem and hands out the
// public URLs they are served under.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var ErrForeignURL = errors.New("url does not belong to this store")

type BlobStore struct {
	fs      afero.Fs
	baseURL string
}

// NewBlobStore serves objects of fs under baseURL. baseURL must be the
// public prefix the media route is mounted on.
func NewBlobStore(fs afero.Fs, baseURL string) *BlobStore {
	return &BlobStore{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewDiskBlobStore roots the store at dir, creating it when missing.
func NewDiskBlobStore(dir, baseURL string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return NewBlobStore(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL), nil
}

// Upload stores data as "<prefix><uuid>.<ext>" and returns its public URL.
func (s *BlobStore) Upload(ctx context.Context, prefix, ext string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := prefix + uuid.NewString()
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		key += "." + ext
	}
	if err := afero.WriteFile(s.fs, fsPath(key), data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return s.URLFor(key), nil
}

func (s *BlobStore) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := s.KeyFor(url)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, fsPath(key))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *BlobStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := s.KeyFor(url)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(fsPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) URLFor(key string) string {
	return s.baseURL + "/" + key
}

func (s *BlobStore) KeyFor(url string) (string, error) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", ErrForeignURL
	}
	key := path.Clean("/" + strings.TrimPrefix(url, prefix))
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." {
		return "", ErrForeignURL
	}
	return key, nil
}

func fsPath(key string) string {
	return "/" + key
}

// FileSystem exposes the store for the static media route.
func (s *BlobStore) FileSystem() http.FileSystem {
	return afero.NewHttpFs(s.fs).Dir("/")
}
