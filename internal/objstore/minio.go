package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"drsnap/internal/config"
)

// Minio covers every S3-compatible endpoint (MinIO, R2, Ceph RGW) that a
// secondary region may run on.
type Minio struct {
	client *minio.Client
	region string
	bucket string
	prefix string
}

func NewMinio(region config.Region) (*Minio, error) {
	endpoint := region.Endpoint
	secure := !region.Insecure
	if strings.HasPrefix(endpoint, "https://") {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	} else if strings.HasPrefix(endpoint, "http://") {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		secure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(region.AccessKey, region.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	return &Minio{
		client: client,
		region: region.Name,
		bucket: region.Bucket,
		prefix: region.Prefix,
	}, nil
}

func (m *Minio) Region() string {
	return m.region
}

func (m *Minio) Put(ctx context.Context, key string, data []byte, checksum string) (string, error) {
	fullKey := joinKey(m.prefix, key)

	info, err := m.client.PutObject(ctx, m.bucket, fullKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  "application/json",
			UserMetadata: map[string]string{checksumMetaKey: checksum},
		})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", fullKey, err)
	}

	location := fmt.Sprintf("minio://%s/%s", m.bucket, fullKey)
	slog.Info("Uploaded to MinIO", "region", m.region, "location", location, "bytes", info.Size)
	return location, nil
}

func (m *Minio) Get(ctx context.Context, key string) ([]byte, *Metadata, error) {
	fullKey := joinKey(m.prefix, key)

	obj, err := m.client.GetObject(ctx, m.bucket, fullKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object %s: %w", fullKey, err)
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat object %s: %w", fullKey, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object %s: %w", fullKey, err)
	}

	meta := &Metadata{
		Size:     stat.Size,
		Checksum: metaChecksum(stat.UserMetadata),
	}
	return data, meta, nil
}

func (m *Minio) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := joinKey(m.prefix, prefix)

	var objects []ObjectInfo
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", fullPrefix, object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          stripPrefix(m.prefix, object.Key),
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}
	return objects, nil
}

func (m *Minio) Remove(ctx context.Context, key string) error {
	fullKey := joinKey(m.prefix, key)

	if err := m.client.RemoveObject(ctx, m.bucket, fullKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fullKey, err)
	}
	return nil
}

func (m *Minio) VerifyAccess(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to verify bucket access: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket does not exist: %s", m.bucket)
	}
	slog.Info("Bucket access verified", "region", m.region, "bucket", m.bucket)
	return nil
}
