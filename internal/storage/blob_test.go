package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://localhost:7090/media"

func TestUploadFetchRemove(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(afero.NewMemMapFs(), baseURL+"/")

	url, err := store.Upload(ctx, "resolution-", "jpg", []byte("photo"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, baseURL+"/resolution-"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	data, err := store.Fetch(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("photo"), data)

	require.NoError(t, store.Remove(ctx, url))
	_, err = store.Fetch(ctx, url)
	assert.Error(t, err)

	// removing twice is not an error
	assert.NoError(t, store.Remove(ctx, url))
}

func TestUploadNamesAreUnique(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(afero.NewMemMapFs(), baseURL)

	first, err := store.Upload(ctx, "", ".png", []byte("a"))
	require.NoError(t, err)
	second, err := store.Upload(ctx, "", ".png", []byte("a"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestKeyFor(t *testing.T) {
	store := NewBlobStore(afero.NewMemMapFs(), baseURL)

	key, err := store.KeyFor(baseURL + "/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "abc.jpg", key)

	key, err = store.KeyFor(baseURL + "/../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", key)

	_, err = store.KeyFor("https://elsewhere.example.org/abc.jpg")
	assert.ErrorIs(t, err, ErrForeignURL)

	_, err = store.KeyFor(baseURL + "/")
	assert.ErrorIs(t, err, ErrForeignURL)
}

func TestFileSystemServesUploads(t *testing.T) {
	ctx := context.Background()
	store := NewBlobStore(afero.NewMemMapFs(), baseURL)

	url, err := store.Upload(ctx, "", "png", []byte("served"))
	require.NoError(t, err)
	key, err := store.KeyFor(url)
	require.NoError(t, err)

	f, err := store.FileSystem().Open("/" + key)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "served", string(data))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewBlobStore(afero.NewMemMapFs(), baseURL)

	_, err := store.Upload(ctx, "", "png", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
