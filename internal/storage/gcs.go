// Package storage uploads document and label photos to Google Cloud Storage
// and hands back the public URL stored on the owning record.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// ErrBucketNotConfigured is returned when no bucket name was provided.
var ErrBucketNotConfigured = errors.New("storage bucket is not configured")

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, originalFilename string, r io.Reader) (string, error)
}

type gcsUploader struct {
	bucket          string
	credentialsJSON string
}

// NewGCSUploader creates an Uploader for the given bucket. With an empty
// credentials JSON the client falls back to application default credentials.
func NewGCSUploader(bucket, credentialsJSON string) Uploader {
	return &gcsUploader{bucket: bucket, credentialsJSON: credentialsJSON}
}

func (u *gcsUploader) newClient(ctx context.Context) (*gcs.Client, error) {
	if strings.TrimSpace(u.credentialsJSON) != "" {
		return gcs.NewClient(ctx, option.WithCredentialsJSON([]byte(u.credentialsJSON)))
	}
	return gcs.NewClient(ctx)
}

// Upload writes the file under folder/<uuid><ext> so concurrent uploads of
// identically named files never collide.
func (u *gcsUploader) Upload(ctx context.Context, folder, originalFilename string, r io.Reader) (string, error) {
	if u.bucket == "" {
		return "", ErrBucketNotConfigured
	}

	client, err := u.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating storage client: %w", err)
	}
	defer client.Close()

	ext := strings.ToLower(filepath.Ext(originalFilename))
	objectName := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.New().String(), ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	wc := client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("writing object %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalizing object %s: %w", objectName, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, objectName), nil
}
