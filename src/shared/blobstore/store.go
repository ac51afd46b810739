package blobstore

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// ObjectNotFoundMark classifies a lookup of a key that holds no object.
var ObjectNotFoundMark = errors.New("object not found")

type ObjectInfo struct {
	SizeBytes int64
}

// Store is one bucket of the blob store. Keys are path-like strings;
// the store itself attaches no meaning to them beyond prefix matching.
//counterfeiter:generate . Store
type Store interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	DownloadToFile(ctx context.Context, key string, filePath string) error
	Head(ctx context.Context, key string) (ObjectInfo, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	PresignPut(key string, contentType string, expiry time.Duration) (string, error)
	PresignGet(key string, expiry time.Duration) (string, error)
}
