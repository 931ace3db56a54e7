package objectstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/healthbridge/udd/internal/filespace"
	"github.com/healthbridge/udd/internal/objectstore"
	"github.com/stretchr/testify/require"
)

func TestFake_PutFileThenPresign(t *testing.T) {
	fs := filespace.NewMemory()
	path := "/tmp/udd-1/archive.zip"
	fs.WriteFile(path, []byte("zip-bytes"))

	store := objectstore.NewFake(fs)
	require.NoError(t, store.PutFile(context.Background(), "bucket", "key.zip", path))

	url, err := store.GeneratePresignedURL(context.Background(), "bucket", "key.zip", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Contains(t, url, "bucket/key.zip")
}

func TestFake_PresignBeforePutFails(t *testing.T) {
	store := objectstore.NewFake(filespace.NewMemory())
	_, err := store.GeneratePresignedURL(context.Background(), "bucket", "missing.zip", time.Now().Add(time.Hour))
	require.Error(t, err)
}

func TestFake_PutFileErrPropagates(t *testing.T) {
	store := objectstore.NewFake(filespace.NewMemory())
	store.PutErr = context.DeadlineExceeded
	err := store.PutFile(context.Background(), "bucket", "key.zip", "/nonexistent")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
