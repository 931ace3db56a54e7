package objectstore

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/healthbridge/udd/internal/filespace"
)

// Fake is an in-memory ObjectStore test double, mirroring
// tableservice.Fake: it records uploaded file contents and hands back a
// deterministic, inspectable URL instead of talking to S3. It reads
// local files through the same FileSpace the rest of a test wires up,
// so it composes with filespace.Memory instead of touching the real
// filesystem.
type Fake struct {
	fs filespace.FileSpace

	mu sync.Mutex

	// Objects holds the bytes of every file PutFile has copied in, keyed by
	// "bucket/key".
	Objects map[string][]byte

	PutErr     error
	PresignErr error
}

// NewFake builds an empty Fake ObjectStore that reads local files through fs.
func NewFake(fs filespace.FileSpace) *Fake {
	return &Fake{fs: fs, Objects: make(map[string][]byte)}
}

func (f *Fake) PutFile(ctx context.Context, bucket, key, localPath string) error {
	if f.PutErr != nil {
		return f.PutErr
	}
	r, err := f.fs.OpenReader(localPath)
	if err != nil {
		return err
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Objects[bucket+"/"+key] = b
	return nil
}

func (f *Fake) GeneratePresignedURL(ctx context.Context, bucket, key string, expiration time.Time) (string, error) {
	if f.PresignErr != nil {
		return "", f.PresignErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Objects[bucket+"/"+key]; !ok {
		return "", fmt.Errorf("no such object: %s/%s", bucket, key)
	}
	return fmt.Sprintf("https://fake-object-store.test/%s/%s?expires=%d", bucket, key, expiration.Unix()), nil
}
