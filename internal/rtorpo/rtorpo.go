// Package rtorpo derives recovery point and recovery time estimates
// from the backup event history. Metrics are computed on every query,
// never stored.
package rtorpo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"

	"drsnap/internal/config"
	"drsnap/internal/eventlog"
	"drsnap/internal/manifest"
)

type Calculator struct {
	log        eventlog.Log
	window     int
	targetRPO  float64
	targetRTO  float64
	throughput float64
}

func NewCalculator(cfg *config.Config, log eventlog.Log) *Calculator {
	return &Calculator{
		log:        log,
		window:     cfg.HistoryWindow(),
		targetRPO:  cfg.TargetRPOHours(),
		targetRTO:  cfg.TargetRTOHours(),
		throughput: cfg.ThroughputMBPerHour(),
	}
}

// Compute derives current metrics from the most recent completed
// backups. An empty history yields the unknown sentinel, not an error;
// the error is reserved for the event log itself failing.
func (c *Calculator) Compute(ctx context.Context, now time.Time) (*manifest.RTORPOMetrics, error) {
	events, err := c.log.QueryRecent(ctx, eventlog.TypeBackupCompleted, c.window)
	if err != nil {
		return nil, fmt.Errorf("failed to query backup history: %w", err)
	}
	if len(events) == 0 {
		return manifest.UnknownMetrics(c.targetRPO, c.targetRTO), nil
	}

	latest := events[0]
	backupTime := latest.CreatedAt
	var sizeBytes int64

	var m manifest.BackupManifest
	if err := json.Unmarshal([]byte(latest.Payload), &m); err != nil {
		slog.Warn("Backup event payload is unreadable", "backup_id", latest.BackupID, "error", err)
	} else {
		backupTime = m.CreatedAt
		sizeBytes = m.TotalBytes
	}

	// Linear transfer model at the configured throughput, with a one
	// hour floor.
	rpo := now.Sub(backupTime).Hours()
	sizeMB := float64(sizeBytes) / (1024 * 1024)
	rto := max(1, sizeMB/c.throughput)

	metrics := &manifest.RTORPOMetrics{
		Known:                true,
		RPOHours:             rpo,
		RTOEstimateHours:     rto,
		LastBackup:           &backupTime,
		LastBackupID:         latest.BackupID,
		BackupFrequencyHours: frequency(events),
		TargetRPOHours:       c.targetRPO,
		TargetRTOHours:       c.targetRTO,
		Compliant:            rpo <= c.targetRPO && rto <= c.targetRTO,
	}

	rpoHours.Set(rpo)
	rtoEstimateHours.Set(rto)
	if metrics.Compliant {
		targetCompliance.Set(1)
	} else {
		targetCompliance.Set(0)
	}
	return metrics, nil
}

// frequency is the mean gap between successive backups, or the unknown
// sentinel with fewer than two entries. Events arrive newest first.
func frequency(events []eventlog.Event) float64 {
	if len(events) < 2 {
		return manifest.UnknownValue
	}

	var total time.Duration
	for i := 0; i < len(events)-1; i++ {
		total += events[i].CreatedAt.Sub(events[i+1].CreatedAt)
	}
	return (total / time.Duration(len(events)-1)).Hours()
}
