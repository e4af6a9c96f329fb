package screen

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore reads uploaded resumes from an S3-compatible bucket.
type ObjectStore struct {
	client *s3.Client
	bucket string
}

// NewObjectStore builds a client against the Cloudflare R2 endpoint
// for the configured account.
func NewObjectStore(cfg aws.Config, r2 R2Config) *ObjectStore {
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return &ObjectStore{client: client, bucket: r2.Bucket}
}

// Download fetches one object into memory.
func (o *ObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return buf.Bytes(), nil
}
