package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotConfigured is returned by Init when MINIO_ENDPOINT is unset
var ErrNotConfigured = errors.New("no object storage configuration")

// PresignExpiry is how long download URLs stay valid
const PresignExpiry = 24 * time.Hour

var Client *minio.Client
var BucketName string

func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		return ErrNotConfigured
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "marksheets"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Create the bucket on first start
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	Client = client
	BucketName = bucket
	return nil
}

// Available reports whether uploads and exports are being stored
func Available() bool {
	return Client != nil
}

// Ping checks the bucket for the health endpoint
func Ping(ctx context.Context) error {
	if Client == nil {
		return ErrNotConfigured
	}
	_, err := Client.BucketExists(ctx, BucketName)
	return err
}

// ObjectName builds the object key for a run file.
// Path format: YYYY/MM/{run_id}/{filename}
func ObjectName(now time.Time, runID, filename string) string {
	return fmt.Sprintf("%d/%02d/%s/%s", now.Year(), now.Month(), runID, filename)
}

// UploadRunFile stores one file of a scan run and returns its bucket-qualified path
func UploadRunFile(ctx context.Context, runID, filename string, data []byte, contentType string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}
	objectName := ObjectName(time.Now(), runID, filename)

	_, err := Client.PutObject(ctx, BucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	// Return the full path for storage in DB
	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a presigned download URL; downloadName sets the attachment file name
func GetPresignedURL(ctx context.Context, objectPath, downloadName string) (string, error) {
	if Client == nil {
		return "", ErrNotConfigured
	}

	params := url.Values{}
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}

	u, err := Client.PresignedGetObject(ctx, BucketName, objectKey(objectPath), PresignExpiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

// DeleteObjects removes stored run files; empty paths are ignored
func DeleteObjects(ctx context.Context, objectPaths ...string) error {
	if Client == nil {
		return ErrNotConfigured
	}
	var errs []error
	for _, p := range objectPaths {
		if p == "" {
			continue
		}
		if err := Client.RemoveObject(ctx, BucketName, objectKey(p), minio.RemoveObjectOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// objectKey removes the bucket prefix if present
func objectKey(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}
