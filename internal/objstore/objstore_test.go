package objstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drsnap/internal/config"
)

func TestJoinKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{
			name:   "no prefix",
			prefix: "",
			key:    "backups/2026/08/bk_x.json",
			want:   "backups/2026/08/bk_x.json",
		},
		{
			name:   "plain prefix",
			prefix: "dr",
			key:    "backups/2026/08/bk_x.json",
			want:   "dr/backups/2026/08/bk_x.json",
		},
		{
			name:   "prefix with trailing slash",
			prefix: "dr/",
			key:    "safety/2026/08/bk_x_users.json.zst",
			want:   "dr/safety/2026/08/bk_x_users.json.zst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinKey(tt.prefix, tt.key))
		})
	}
}

func TestStripPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{
			name:   "round trips joinKey",
			prefix: "dr",
			key:    "dr/backups/2026/08/bk_x.json",
			want:   "backups/2026/08/bk_x.json",
		},
		{
			name:   "no prefix",
			prefix: "",
			key:    "backups/2026/08/bk_x.json",
			want:   "backups/2026/08/bk_x.json",
		},
		{
			name:   "trailing slash prefix",
			prefix: "dr/",
			key:    "dr/safety/2026/08/bk_x_users.json.zst",
			want:   "safety/2026/08/bk_x_users.json.zst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripPrefix(tt.prefix, tt.key))
		})
	}
}

func TestMetaChecksum(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]string
		want string
	}{
		{
			name: "lowercase key from aws",
			meta: map[string]string{"blake3": "abc123"},
			want: "abc123",
		},
		{
			name: "canonicalized key from minio",
			meta: map[string]string{"Blake3": "def456"},
			want: "def456",
		},
		{
			name: "missing",
			meta: map[string]string{"etag": "x"},
			want: "",
		},
		{
			name: "nil map",
			meta: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, metaChecksum(tt.meta))
		})
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.Region{
		Name:     "us-east-1",
		Provider: "gcs",
		Bucket:   "b",
	})
	assert.ErrorContains(t, err, "unknown storage provider")
}

func TestNewS3RejectsArchivalStorageClass(t *testing.T) {
	for _, class := range []string{"GLACIER", "DEEP_ARCHIVE"} {
		t.Run(class, func(t *testing.T) {
			_, err := NewS3(context.Background(), config.Region{
				Name:         "us-east-1",
				Bucket:       "dr-backups",
				StorageClass: class,
			})
			assert.ErrorContains(t, err, "not immediately accessible")
		})
	}
}

func TestNewMinioStripsScheme(t *testing.T) {
	m, err := NewMinio(config.Region{
		Name:      "eu-west-1",
		Provider:  config.ProviderMinio,
		Bucket:    "dr-backups",
		Endpoint:  "https://minio.internal:9000",
		AccessKey: "ak",
		SecretKey: "sk",
	})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", m.Region())
}
