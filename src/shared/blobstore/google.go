package blobstore

import (
	"context"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/transient"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var _ Store = GoogleStore{}

type GoogleStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewGoogleStore(ctx context.Context, jsonKey string, bucketName string) (GoogleStore, error) {
	client, err := storage.NewClient(ctx, option.WithCredentialsJSON([]byte(jsonKey)))
	if err != nil {
		return GoogleStore{}, errors.Wrap(err, "Failed to create Google Cloud Storage client")
	}

	return GoogleStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
	}, nil
}

func (g GoogleStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	writer := g.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, body); err != nil {
		_ = writer.Close()
		return transient.Wrap(err, "Failed to write object contents to GCS")
	}

	if err := writer.Close(); err != nil {
		return transient.Wrap(err, "Failed to finish object upload to GCS")
	}

	return nil
}

func (g GoogleStore) DownloadToFile(ctx context.Context, key string, filePath string) error {
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return mark.Wrap(err, ObjectNotFoundMark, "No object exists at this key")
		}

		return transient.Wrap(err, "Failed to open object for download from GCS")
	}

	defer reader.Close()

	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "Failed to create local file for download")
	}

	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return transient.Wrap(err, "Failed to download object contents from GCS")
	}

	return nil
}

func (g GoogleStore) Head(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := g.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return ObjectInfo{}, mark.Wrap(err, ObjectNotFoundMark, "No object exists at this key")
		}

		return ObjectInfo{}, transient.Wrap(err, "Failed to fetch object attributes from GCS")
	}

	return ObjectInfo{SizeBytes: attrs.Size}, nil
}

func (g GoogleStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deletedCount := 0

	iter := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return deletedCount, transient.Wrap(err, "Failed to list objects under prefix")
		}

		if err := g.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return deletedCount, transient.Wrap(err, "Failed to delete object under prefix")
		}

		deletedCount++
	}

	return deletedCount, nil
}

func (g GoogleStore) PresignPut(key string, contentType string, expiry time.Duration) (string, error) {
	// signing credentials come from the client the bucket handle was
	// created with
	url, err := g.bucket.SignedURL(key, &storage.SignedURLOptions{
		Method:      "PUT",
		ContentType: contentType,
		Expires:     time.Now().Add(expiry),
		Scheme:      storage.SigningSchemeV4,
	})

	if err != nil {
		return "", errors.Wrap(err, "Failed to presign upload URL")
	}

	return url, nil
}

func (g GoogleStore) PresignGet(key string, expiry time.Duration) (string, error) {
	url, err := g.bucket.SignedURL(key, &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  storage.SigningSchemeV4,
	})

	if err != nil {
		return "", errors.Wrap(err, "Failed to presign download URL")
	}

	return url, nil
}
