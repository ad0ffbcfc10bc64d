package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

const idTimeLayout = "20060102T150405Z"

// NewID returns an id like bk_20260823T101500Z_9f3a2c1b. The timestamp
// orders ids within a month prefix, the uuid fragment keeps concurrent
// runs apart.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("bk_%s_%s", now.UTC().Format(idTimeLayout), suffix)
}

// ObjectKey is the replication path of a manifest in every region:
// backups/{year}/{month}/{id}.json, derived from the creation time.
func ObjectKey(id string, createdAt time.Time) string {
	t := createdAt.UTC()
	return fmt.Sprintf("backups/%04d/%02d/%s.json", t.Year(), int(t.Month()), id)
}

// IDTime recovers the creation timestamp embedded in a backup id, which
// is enough to rebuild the object key without holding the manifest.
func IDTime(id string) (time.Time, error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != "bk" {
		return time.Time{}, fmt.Errorf("malformed backup id %q", id)
	}
	t, err := time.Parse(idTimeLayout, parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed backup id %q: %w", id, err)
	}
	return t, nil
}

// SafetyKey is where the pre-restore snapshot of a table is kept, in the
// preferred region only.
func SafetyKey(backupID, table string, now time.Time) string {
	t := now.UTC()
	return fmt.Sprintf("safety/%04d/%02d/%s_%s.json.zst", t.Year(), int(t.Month()), backupID, table)
}

func (m *BackupManifest) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("manifest id is required")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("manifest %s: invalid kind %q", m.ID, m.Kind)
	}
	if !m.Status.Valid() {
		return fmt.Errorf("manifest %s: invalid status %q", m.ID, m.Status)
	}
	if m.CreatedAt.IsZero() {
		return fmt.Errorf("manifest %s: created_at is required", m.ID)
	}
	return nil
}

func Encode(m *BackupManifest) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest %s: %w", m.ID, err)
	}
	return data, nil
}

func Decode(data []byte) (*BackupManifest, error) {
	var m BackupManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Checksum returns the BLAKE3 hash of an encoded manifest. Every region
// upload stores it next to the object so retrieval can verify integrity.
func Checksum(data []byte) string {
	hasher := blake3.New()
	hasher.Write(data)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
