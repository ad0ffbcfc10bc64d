package restore

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
	"drsnap/internal/rowstore"
)

// safetyKeeper uploads a compressed copy of a table's live rows to the
// preferred region before a restore overwrites them. Losing the safety
// copy must never block recovery, so callers record failures as
// warnings on the table result instead of propagating them.
type safetyKeeper struct {
	rows    rowstore.Store
	primary objstore.Store
}

func (k *safetyKeeper) keep(ctx context.Context, backupID, table string, now time.Time) (string, error) {
	rows, err := k.rows.ReadAllRows(ctx, table)
	if err != nil {
		return "", fmt.Errorf("failed to read current rows of %s: %w", table, err)
	}
	if rows == nil {
		rows = []rowstore.Row{}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to serialize current rows of %s: %w", table, err)
	}

	compressed, err := compress(data)
	if err != nil {
		return "", err
	}

	key := manifest.SafetyKey(backupID, table, now)
	location, err := k.primary.Put(ctx, key, compressed, manifest.Checksum(compressed))
	if err != nil {
		return "", fmt.Errorf("failed to upload safety snapshot of %s: %w", table, err)
	}
	return location, nil
}

func compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return compressed, nil
}
