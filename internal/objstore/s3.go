package objstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"drsnap/internal/config"
)

type S3 struct {
	client       *s3.Client
	uploader     *manager.Uploader
	region       string
	bucket       string
	prefix       string
	storageClass types.StorageClass
}

func NewS3(ctx context.Context, region config.Region) (*S3, error) {
	configOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region.Name),
		awsconfig.WithRetryMaxAttempts(3),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if region.AccessKey != "" && region.SecretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(region.AccessKey, region.SecretKey, "")
	}

	var client *s3.Client
	if region.Endpoint != "" {
		client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(region.Endpoint)
			o.UsePathStyle = region.PathStyle
		})
		slog.Info("S3 client initialized with custom endpoint", "region", region.Name, "endpoint", region.Endpoint)
	} else {
		client = s3.NewFromConfig(cfg)
	}

	storageClass := types.StorageClass(region.StorageClass)
	if storageClass == "" {
		storageClass = types.StorageClassStandard
	}
	if storageClass == types.StorageClassGlacier || storageClass == types.StorageClassDeepArchive {
		return nil, fmt.Errorf("storage class %s is not immediately accessible (requires restore)", storageClass)
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 16 * 1024 * 1024
		u.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenSupported
	})

	return &S3{
		client:       client,
		uploader:     uploader,
		region:       region.Name,
		bucket:       region.Bucket,
		prefix:       region.Prefix,
		storageClass: storageClass,
	}, nil
}

func (s *S3) Region() string {
	return s.region
}

func (s *S3) Put(ctx context.Context, key string, data []byte, checksum string) (string, error) {
	fullKey := joinKey(s.prefix, key)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(fullKey),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String("application/json"),
		StorageClass: s.storageClass,
		Metadata:     map[string]string{checksumMetaKey: checksum},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, fullKey)
	slog.Info("Uploaded to S3", "region", s.region, "location", location, "bytes", len(data))
	return location, nil
}

func (s *S3) Get(ctx context.Context, key string) ([]byte, *Metadata, error) {
	fullKey := joinKey(s.prefix, key)

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get object %s: %w", fullKey, err)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object %s: %w", fullKey, err)
	}

	meta := &Metadata{
		Size:     int64(len(data)),
		Checksum: metaChecksum(output.Metadata),
	}
	return data, meta, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := joinKey(s.prefix, prefix)

	var objects []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", fullPrefix, err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{Key: stripPrefix(s.prefix, aws.ToString(obj.Key))}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = *obj.LastModified
			}
			objects = append(objects, info)
		}
	}
	return objects, nil
}

func (s *S3) Remove(ctx context.Context, key string) error {
	fullKey := joinKey(s.prefix, key)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", fullKey, err)
	}
	return nil
}

func (s *S3) VerifyAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to verify credentials or bucket access: %w", err)
	}
	slog.Info("Bucket access verified", "region", s.region, "bucket", s.bucket)
	return nil
}
