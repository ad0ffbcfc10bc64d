package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"drsnap/internal/objstore"
)

type Pruner struct {
	stores        []objstore.Store
	retentionDays int
}

func NewPruner(primary objstore.Store, secondaries []objstore.Store, retentionDays int) *Pruner {
	stores := make([]objstore.Store, 0, 1+len(secondaries))
	stores = append(stores, primary)
	stores = append(stores, secondaries...)

	return &Pruner{stores: stores, retentionDays: retentionDays}
}

// Prune deletes snapshots and safety objects older than the retention
// window from every region. The newest snapshot in a region survives
// regardless of age, so a stalled scheduler can never leave a region
// empty.
func (p *Pruner) Prune(ctx context.Context, now time.Time) (int, error) {
	deadline := now.Add(-time.Duration(p.retentionDays) * 24 * time.Hour)

	removed := 0
	var errs []error
	for _, store := range p.stores {
		n, err := p.pruneRegion(ctx, store, deadline)
		removed += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return removed, fmt.Errorf("failed to prune %d region(s): %w", len(errs), errors.Join(errs...))
	}
	return removed, nil
}

func (p *Pruner) pruneRegion(ctx context.Context, store objstore.Store, deadline time.Time) (int, error) {
	snapshots, err := store.List(ctx, "backups/")
	if err != nil {
		return 0, fmt.Errorf("failed to list snapshots in %s: %w", store.Region(), err)
	}

	var newestKey string
	var newestTime time.Time
	for _, obj := range snapshots {
		if obj.LastModified.After(newestTime) {
			newestTime = obj.LastModified
			newestKey = obj.Key
		}
	}

	removed := 0
	for _, obj := range snapshots {
		if obj.Key == newestKey || !obj.LastModified.Before(deadline) {
			continue
		}
		if err := store.Remove(ctx, obj.Key); err != nil {
			slog.Warn("Failed to delete expired snapshot", "region", store.Region(), "key", obj.Key, "error", err)
			continue
		}
		removed++
		prunedObjects.Inc()
		slog.Info("Deleted expired snapshot", "region", store.Region(), "key", obj.Key, "age", time.Since(obj.LastModified).Round(time.Hour))
	}

	safety, err := store.List(ctx, "safety/")
	if err != nil {
		slog.Warn("Failed to list safety snapshots", "region", store.Region(), "error", err)
		return removed, nil
	}
	for _, obj := range safety {
		if !obj.LastModified.Before(deadline) {
			continue
		}
		if err := store.Remove(ctx, obj.Key); err != nil {
			slog.Warn("Failed to delete expired safety snapshot", "region", store.Region(), "key", obj.Key, "error", err)
			continue
		}
		removed++
		prunedObjects.Inc()
	}

	if removed > 0 {
		slog.Info("Retention enforced", "region", store.Region(), "removed", removed)
	}
	return removed, nil
}
