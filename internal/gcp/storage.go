package gcp

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// NewStorageClient creates the Cloud Storage client used for customer asset
// uploads.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// BlobBucket adapts one GCS bucket to the upload task's blob-store contract.
// Objects are write-once: a destination must not be considered valid until
// the writer's Close returns nil.
type BlobBucket struct {
	bucket *storage.BucketHandle
	name   string
}

func NewBlobBucket(client *storage.Client, name string) *BlobBucket {
	return &BlobBucket{bucket: client.Bucket(name), name: name}
}

// NewWriter opens a writer for the destination object. Canceling ctx aborts
// the transfer without finalizing the object.
func (b *BlobBucket) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := b.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

// PublicURL returns the durable download locator for a finalized object.
func (b *BlobBucket) PublicURL(object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.name, object)
}
