// Package objstore provides per-region object storage backends for
// snapshot replication. Each configured region gets its own Store; the
// provider (S3 or MinIO compatible) is chosen per region in config.
package objstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"drsnap/internal/config"
)

type Metadata struct {
	Size     int64
	Checksum string
}

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type Store interface {
	Region() string
	Put(ctx context.Context, key string, data []byte, checksum string) (string, error)
	Get(ctx context.Context, key string) ([]byte, *Metadata, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Remove(ctx context.Context, key string) error
	VerifyAccess(ctx context.Context) error
}

// New builds the backend for one configured region.
func New(ctx context.Context, region config.Region) (Store, error) {
	switch region.Provider {
	case "", config.ProviderS3:
		return NewS3(ctx, region)
	case config.ProviderMinio:
		return NewMinio(region)
	}
	return nil, fmt.Errorf("unknown storage provider: %s", region.Provider)
}

// NewAll builds backends for every configured region, preferred first.
func NewAll(ctx context.Context, cfg *config.Config) (Store, []Store, error) {
	primary, err := New(ctx, cfg.PreferredRegion())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init preferred region %s: %w", cfg.PreferredRegion().Name, err)
	}

	secondaries := make([]Store, 0, len(cfg.Storage.Regions)-1)
	for _, r := range cfg.SecondaryRegions() {
		s, err := New(ctx, r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init region %s: %w", r.Name, err)
		}
		secondaries = append(secondaries, s)
	}
	return primary, secondaries, nil
}

const checksumMetaKey = "blake3"

// metaChecksum digs the recorded checksum out of provider metadata.
// S3 lowercases user metadata keys while MinIO canonicalizes them, so
// match case-insensitively.
func metaChecksum(meta map[string]string) string {
	for k, v := range meta {
		if strings.EqualFold(k, checksumMetaKey) {
			return v
		}
	}
	return ""
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// stripPrefix undoes joinKey on listed keys so List output feeds straight
// back into Get and Remove.
func stripPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, strings.TrimSuffix(prefix, "/")+"/")
}
