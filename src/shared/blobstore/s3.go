package blobstore

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cockroachdb/errors"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/mark"
	"github.com/unplugd-audio/unplugd-be/src/shared/lib/errors/transient"
)

var _ Store = S3Store{}

type S3Store struct {
	s3client   *s3.S3
	downloader *s3manager.Downloader
	uploader   *s3manager.Uploader
	bucketName string
}

func NewS3Store(awsSession *session.Session, config *aws.Config, bucketName string) S3Store {
	s3client := s3.New(awsSession, config)

	return S3Store{
		s3client:   s3client,
		downloader: s3manager.NewDownloaderWithClient(s3client),
		uploader:   s3manager.NewUploaderWithClient(s3client),
		bucketName: bucketName,
	}
}

func (s S3Store) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		return transient.Wrap(err, "Failed to upload object to S3")
	}

	return nil
}

func (s S3Store) DownloadToFile(ctx context.Context, key string, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return errors.Wrap(err, "Failed to create local file for download")
	}

	defer file.Close()

	_, err = s.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	if err != nil {
		if isNoSuchKey(err) {
			return mark.Wrap(err, ObjectNotFoundMark, "No object exists at this key")
		}

		return transient.Wrap(err, "Failed to download object from S3")
	}

	return nil
}

func (s S3Store) Head(ctx context.Context, key string) (ObjectInfo, error) {
	output, err := s.s3client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	if err != nil {
		if isNoSuchKey(err) {
			return ObjectInfo{}, mark.Wrap(err, ObjectNotFoundMark, "No object exists at this key")
		}

		return ObjectInfo{}, transient.Wrap(err, "Failed to head object in S3")
	}

	return ObjectInfo{SizeBytes: aws.Int64Value(output.ContentLength)}, nil
}

func (s S3Store) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deletedCount := 0

	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucketName),
		Prefix: aws.String(prefix),
	}

	err := s.s3client.ListObjectsV2PagesWithContext(ctx, listInput, func(page *s3.ListObjectsV2Output, _ bool) bool {
		if len(page.Contents) == 0 {
			return true
		}

		objects := []*s3.ObjectIdentifier{}
		for _, object := range page.Contents {
			objects = append(objects, &s3.ObjectIdentifier{Key: object.Key})
		}

		output, err := s.s3client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucketName),
			Delete: &s3.Delete{Objects: objects},
		})

		if err != nil {
			log.WithError(err).
				WithField("prefix", prefix).
				Error("Failed to delete a page of objects")
			return false
		}

		deletedCount += len(objects) - len(output.Errors)
		return true
	})

	if err != nil {
		return deletedCount, transient.Wrap(err, "Failed to list objects under prefix")
	}

	return deletedCount, nil
}

func (s S3Store) PresignPut(key string, contentType string, expiry time.Duration) (string, error) {
	request, _ := s.s3client.PutObjectRequest(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})

	url, err := request.Presign(expiry)
	if err != nil {
		return "", errors.Wrap(err, "Failed to presign upload URL")
	}

	return url, nil
}

func (s S3Store) PresignGet(key string, expiry time.Duration) (string, error) {
	request, _ := s.s3client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	url, err := request.Presign(expiry)
	if err != nil {
		return "", errors.Wrap(err, "Failed to presign download URL")
	}

	return url, nil
}

func isNoSuchKey(err error) bool {
	var awsErr awserr.Error
	if !errors.As(err, &awsErr) {
		return false
	}

	switch awsErr.Code() {
	case s3.ErrCodeNoSuchKey, "NotFound":
		return true
	default:
		return false
	}
}
