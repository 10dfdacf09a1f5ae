package s3blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"stock-trades/internal/storage"
)

const (
	// Objects above this size go through the multipart uploader.
	multipartThreshold = 64 << 20
	// S3 minimum part size.
	minPartSize int64 = 5 << 20
)

// Backend implements storage.Backend. Keys are <prefix>/<path>.
type Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

func cleanPrefix(p string) string {
	return strings.Trim(p, "/")
}

func (b *Backend) key(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" {
		return b.prefix
	}
	if b.prefix == "" {
		return p
	}
	return b.prefix + "/" + p
}

func (b *Backend) rel(key string) string {
	if b.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, b.prefix+"/")
}

// Health issues a HeadBucket to verify connectivity and permissions.
func (b *Backend) Health(ctx context.Context) error {
	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.bucket)}); err != nil {
		return fmt.Errorf("s3blob: health check for bucket %s: %w", b.bucket, err)
	}
	return nil
}

// List returns the objects directly under dir, following continuation tokens.
func (b *Backend) List(ctx context.Context, dir string) ([]storage.Object, error) {
	prefix := b.key(dir) + "/"
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var out []storage.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3blob: list %s: %w", dir, err)
		}
		for _, obj := range page.Contents {
			o := storage.Object{
				Path: b.rel(aws.ToString(obj.Key)),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				o.ModTime = *obj.LastModified
			}
			out = append(out, o)
		}
	}
	return out, nil
}

func (b *Backend) Get(ctx context.Context, p string) ([]byte, error) {
	output, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: get %s: %w", p, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("s3blob: get %s: %w", p, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("s3blob: read %s: %w", p, err)
	}
	return data, nil
}

// Put uploads data in one request, or with the multipart manager for large objects.
// S3 only exposes an object once the upload completes.
func (b *Backend) Put(ctx context.Context, p string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key(p)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(p)),
	}
	if len(data) <= multipartThreshold {
		if _, err := b.client.PutObject(ctx, input); err != nil {
			return fmt.Errorf("s3blob: put %s: %w", p, err)
		}
		return nil
	}

	uploader := manager.NewUploader(b.client, func(u *manager.Uploader) {
		u.PartSize = max(minPartSize, int64(len(data))/1000)
	})
	if _, err := uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("s3blob: multipart upload %s: %w", p, err)
	}
	return nil
}

func contentType(p string) string {
	switch path.Ext(p) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

// isNotFound reports whether err means the object does not exist.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	// some S3-compatible providers only return a bare 404
	type httpResponseError interface {
		HTTPStatusCode() int
	}
	var httpErr httpResponseError
	return errors.As(err, &httpErr) && httpErr.HTTPStatusCode() == 404
}

var _ storage.Backend = (*Backend)(nil)
