package dummy

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/unplugd-audio/unplugd-be/src/shared/blobstore"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
)

var _ blobstore.Store = &BlobStore{}

func NewDummyBlobStore() *BlobStore {
	return &BlobStore{
		Unavailable: false,
		State:       make(map[string]BlobObject),
	}
}

type BlobObject struct {
	Contents    []byte
	ContentType string
}

type BlobStore struct {
	Unavailable bool
	State       map[string]BlobObject
	mutex       sync.RWMutex
}

func (b *BlobStore) Upload(_ context.Context, key string, body io.Reader, contentType string) error {
	if b.Unavailable {
		return NetworkFailure
	}

	contents, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.State[key] = BlobObject{
		Contents:    contents,
		ContentType: contentType,
	}
	return nil
}

func (b *BlobStore) DownloadToFile(_ context.Context, key string, filePath string) error {
	if b.Unavailable {
		return NetworkFailure
	}

	b.mutex.RLock()
	object, ok := b.State[key]
	b.mutex.RUnlock()

	if !ok {
		return mark.Message(blobstore.ObjectNotFoundMark, "No object exists at this key")
	}

	return os.WriteFile(filePath, object.Contents, 0644)
}

func (b *BlobStore) Head(_ context.Context, key string) (blobstore.ObjectInfo, error) {
	if b.Unavailable {
		return blobstore.ObjectInfo{}, NetworkFailure
	}

	b.mutex.RLock()
	defer b.mutex.RUnlock()

	object, ok := b.State[key]
	if !ok {
		return blobstore.ObjectInfo{}, mark.Message(blobstore.ObjectNotFoundMark, "No object exists at this key")
	}

	return blobstore.ObjectInfo{SizeBytes: int64(len(object.Contents))}, nil
}

func (b *BlobStore) DeletePrefix(_ context.Context, prefix string) (int, error) {
	if b.Unavailable {
		return 0, NetworkFailure
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	deletedCount := 0
	for key := range b.State {
		if strings.HasPrefix(key, prefix) {
			delete(b.State, key)
			deletedCount++
		}
	}

	return deletedCount, nil
}

func (b *BlobStore) PresignPut(key string, _ string, expiry time.Duration) (string, error) {
	if b.Unavailable {
		return "", NetworkFailure
	}

	return b.presign("put", key, expiry), nil
}

func (b *BlobStore) PresignGet(key string, expiry time.Duration) (string, error) {
	if b.Unavailable {
		return "", NetworkFailure
	}

	return b.presign("get", key, expiry), nil
}

func (b *BlobStore) presign(method string, key string, expiry time.Duration) string {
	return fmt.Sprintf("https://dummy-blob-store.local/%s/%s?expiry=%d", method, key, int(expiry.Seconds()))
}

// Keys returns all stored keys, for assertions.
func (b *BlobStore) Keys() []string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	keys := []string{}
	for key := range b.State {
		keys = append(keys, key)
	}

	return keys
}
