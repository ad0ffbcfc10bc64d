package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
)

type Replicator struct {
	stores      []objstore.Store
	unitTimeout time.Duration
}

// NewReplicator keeps the preferred region first; results come back in
// the same order.
func NewReplicator(primary objstore.Store, secondaries []objstore.Store, unitTimeout time.Duration) *Replicator {
	stores := make([]objstore.Store, 0, 1+len(secondaries))
	stores = append(stores, primary)
	stores = append(stores, secondaries...)

	return &Replicator{stores: stores, unitTimeout: unitTimeout}
}

// Replicate serializes the snapshot once and uploads it to every region
// concurrently. Every region is always attempted; the returned error is
// non-nil only when the snapshot cannot be serialized at all. Callers
// interpret zero successful results as a fatal replication failure.
func (r *Replicator) Replicate(ctx context.Context, snap *manifest.Snapshot) ([]manifest.RegionUploadResult, error) {
	data, err := manifest.EncodeSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	checksum := manifest.Checksum(data)
	key := manifest.ObjectKey(snap.Manifest.ID, snap.Manifest.CreatedAt)
	slog.Info("Replicating snapshot", "id", snap.Manifest.ID, "key", key, "bytes", len(data), "regions", len(r.stores))

	results := make([]manifest.RegionUploadResult, len(r.stores))
	var wg sync.WaitGroup
	for i, store := range r.stores {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[i] = r.uploadOne(ctx, store, key, data, checksum)
		}()
	}
	wg.Wait()

	return results, nil
}

func (r *Replicator) uploadOne(ctx context.Context, store objstore.Store, key string, data []byte, checksum string) manifest.RegionUploadResult {
	unitCtx, cancel := context.WithTimeout(ctx, r.unitTimeout)
	defer cancel()

	location, err := store.Put(unitCtx, key, data, checksum)
	if err != nil {
		regionUploads.WithLabelValues(store.Region(), "failed").Inc()
		uploadErr := &RegionUploadError{Region: store.Region(), Err: err}
		slog.Error("Region upload failed", "region", store.Region(), "key", key, "error", err)

		return manifest.RegionUploadResult{
			Region:     store.Region(),
			Status:     manifest.UploadFailed,
			UploadedAt: time.Now().UTC(),
			Error:      uploadErr.Error(),
		}
	}

	regionUploads.WithLabelValues(store.Region(), "success").Inc()

	return manifest.RegionUploadResult{
		Region:     store.Region(),
		Status:     manifest.UploadSuccess,
		Location:   location,
		Checksum:   checksum,
		UploadedAt: time.Now().UTC(),
	}
}

// SuccessCount reports how many regions accepted the upload.
func SuccessCount(results []manifest.RegionUploadResult) int {
	n := 0
	for _, res := range results {
		if res.Status == manifest.UploadSuccess {
			n++
		}
	}
	return n
}
