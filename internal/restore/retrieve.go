package restore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
)

// Retriever downloads snapshots with region fallback: the preferred
// region first, then every remaining region in configured order.
type Retriever struct {
	stores      []objstore.Store
	unitTimeout time.Duration
}

func NewRetriever(primary objstore.Store, secondaries []objstore.Store, unitTimeout time.Duration) *Retriever {
	stores := make([]objstore.Store, 0, 1+len(secondaries))
	stores = append(stores, primary)
	stores = append(stores, secondaries...)

	return &Retriever{stores: stores, unitTimeout: unitTimeout}
}

// Retrieve walks the fallback chain and returns the first snapshot that
// downloads and verifies. A non-empty preferredRegion moves that region
// to the front of the chain; the configured order covers the rest.
func (r *Retriever) Retrieve(ctx context.Context, backupID, preferredRegion string) (*manifest.Snapshot, error) {
	createdAt, err := manifest.IDTime(backupID)
	if err != nil {
		return nil, err
	}
	key := manifest.ObjectKey(backupID, createdAt)

	stores := r.stores
	if preferredRegion != "" {
		stores = reorder(stores, preferredRegion)
	}

	tried := make([]string, 0, len(stores))
	for _, store := range stores {
		snap, err := r.retrieveOne(ctx, store, backupID, key)
		if err != nil {
			slog.Warn("Backup not retrievable from region", "backup_id", backupID, "region", store.Region(), "error", err)
			tried = append(tried, store.Region())
			continue
		}
		return snap, nil
	}
	return nil, &RegionNotFoundError{BackupID: backupID, Regions: tried}
}

// RetrieveFrom fetches from one named region without fallback.
func (r *Retriever) RetrieveFrom(ctx context.Context, region, backupID string) (*manifest.Snapshot, error) {
	createdAt, err := manifest.IDTime(backupID)
	if err != nil {
		return nil, err
	}

	for _, store := range r.stores {
		if store.Region() == region {
			return r.retrieveOne(ctx, store, backupID, manifest.ObjectKey(backupID, createdAt))
		}
	}
	return nil, fmt.Errorf("region %s is not configured", region)
}

func (r *Retriever) retrieveOne(ctx context.Context, store objstore.Store, backupID, key string) (*manifest.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.unitTimeout)
	defer cancel()

	data, meta, err := store.Get(ctx, key)
	if err != nil {
		regionRetrievals.WithLabelValues(store.Region(), "failed").Inc()
		return nil, fmt.Errorf("failed to download %s from %s: %w", key, store.Region(), err)
	}

	// A checksum mismatch counts as the region failing, the chain moves on.
	if meta != nil && meta.Checksum != "" {
		if got := manifest.Checksum(data); got != meta.Checksum {
			regionRetrievals.WithLabelValues(store.Region(), "failed").Inc()
			return nil, fmt.Errorf("BLAKE3 mismatch for %s in %s: expected %s, got %s", key, store.Region(), meta.Checksum, got)
		}
	}

	snap, err := manifest.DecodeSnapshot(data)
	if err != nil {
		regionRetrievals.WithLabelValues(store.Region(), "failed").Inc()
		return nil, fmt.Errorf("failed to decode snapshot %s from %s: %w", backupID, store.Region(), err)
	}

	regionRetrievals.WithLabelValues(store.Region(), "success").Inc()
	return snap, nil
}

func reorder(stores []objstore.Store, region string) []objstore.Store {
	out := make([]objstore.Store, 0, len(stores))
	for _, store := range stores {
		if store.Region() == region {
			out = append(out, store)
		}
	}
	for _, store := range stores {
		if store.Region() != region {
			out = append(out, store)
		}
	}
	return out
}
