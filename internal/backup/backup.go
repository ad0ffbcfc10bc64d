// Package backup snapshots the configured critical tables and replicates
// the resulting snapshot across every storage region.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"drsnap/internal/config"
	"drsnap/internal/eventlog"
	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
	"drsnap/internal/rowstore"
)

type Orchestrator struct {
	cfg         *config.Config
	log         eventlog.Log
	snapshotter *Snapshotter
	replicator  *Replicator
}

func NewOrchestrator(cfg *config.Config, store rowstore.Store, log eventlog.Log, primary objstore.Store, secondaries []objstore.Store) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		log:         log,
		snapshotter: NewSnapshotter(store, cfg.BackupWorkers(), cfg.UnitTimeout()),
		replicator:  NewReplicator(primary, secondaries, cfg.UnitTimeout()),
	}
}

// CreateBackup snapshots every critical table and replicates the result.
// Per-table failures are recorded in the manifest without failing the
// run; the returned error is non-nil only when the snapshot cannot be
// serialized or no region accepted it. The manifest is returned in both
// cases so callers can surface partial failures.
func (o *Orchestrator) CreateBackup(ctx context.Context, kind manifest.Kind) (*manifest.BackupManifest, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid backup kind: %s", kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("backup cancelled before start: %w", err)
	}

	start := time.Now()
	m := &manifest.BackupManifest{
		ID:          manifest.NewID(start),
		CreatedAt:   start.UTC(),
		Kind:        kind,
		Status:      manifest.StatusInProgress,
		Environment: o.cfg.Environment,
		Tables:      make(map[string]manifest.TableBackupResult),
	}

	tables := o.cfg.Database.CriticalTables
	slog.Info("Backup started", "id", m.ID, "kind", kind, "tables", len(tables))

	rows := make(map[string]json.RawMessage)
	for _, snap := range o.snapshotter.SnapshotTables(ctx, tables) {
		m.Tables[snap.Result.Table] = snap.Result
		if snap.Result.Status == manifest.TableCompleted {
			m.TotalBytes += snap.Result.Bytes
			rows[snap.Result.Table] = snap.Rows
		}
	}
	m.TableCount = len(m.Tables)

	// Tables are done: the run itself succeeds even with partial table
	// failures, unless replication leaves no copy anywhere.
	m.Status = manifest.StatusCompleted

	results, err := o.replicator.Replicate(ctx, &manifest.Snapshot{Manifest: m, Rows: rows})
	if err != nil {
		m.Status = manifest.StatusFailed
		o.appendEvent(ctx, m, eventlog.TypeBackupFailed)
		backupOperations.WithLabelValues(string(kind), "failed").Inc()

		return m, err
	}

	if SuccessCount(results) == 0 {
		m.Status = manifest.StatusFailed
		o.appendEvent(ctx, m, eventlog.TypeBackupFailed)
		backupOperations.WithLabelValues(string(kind), "failed").Inc()

		return m, fmt.Errorf("replication of backup %s failed in all %d regions", m.ID, len(results))
	}

	o.appendEvent(ctx, m, eventlog.TypeBackupCompleted)
	backupOperations.WithLabelValues(string(kind), "completed").Inc()
	backupDuration.Observe(time.Since(start).Seconds())
	backupSizeBytes.Set(float64(m.TotalBytes))

	slog.Info("Backup completed",
		"id", m.ID,
		"tables", m.TableCount,
		"bytes", m.TotalBytes,
		"regions_ok", SuccessCount(results),
		"regions", len(results),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return m, nil
}

// appendEvent records the run in the event log. The backup itself
// already succeeded or failed on its own terms, so a bookkeeping error
// is logged rather than propagated.
func (o *Orchestrator) appendEvent(ctx context.Context, m *manifest.BackupManifest, eventType string) {
	event, err := eventlog.NewEvent(m.ID, eventType, m)
	if err != nil {
		slog.Warn("Failed to build event", "id", m.ID, "type", eventType, "error", err)
		return
	}
	if err := o.log.Append(ctx, event); err != nil {
		slog.Warn("Failed to append event", "id", m.ID, "type", eventType, "error", err)
	}
}
