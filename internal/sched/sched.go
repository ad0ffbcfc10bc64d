// Package sched runs scheduled backups on a fixed interval, with
// retention pruning after every run. One daemon instance per host,
// guarded by a file lock.
package sched

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"drsnap/internal/config"
	"drsnap/internal/lock"
	"drsnap/internal/manifest"
)

type BackupRunner interface {
	CreateBackup(ctx context.Context, kind manifest.Kind) (*manifest.BackupManifest, error)
}

type PruneRunner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}

type Daemon struct {
	cfg     *config.Config
	backups BackupRunner
	pruner  PruneRunner
}

func NewDaemon(cfg *config.Config, backups BackupRunner, pruner PruneRunner) *Daemon {
	return &Daemon{cfg: cfg, backups: backups, pruner: pruner}
}

// Run blocks until ctx is cancelled. Each tick creates one scheduled
// backup and then prunes expired snapshots; a failed run never stops
// the loop.
func (d *Daemon) Run(ctx context.Context) error {
	release, err := lock.Acquire(d.cfg.LockFile())
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	if addr := d.cfg.Schedule.MetricsListen; addr != "" {
		go serveMetrics(ctx, addr)
	}

	interval := d.cfg.ScheduleInterval()
	next := nextRun(time.Now(), interval, d.cfg.Schedule.PreferredHour)
	nextRunTimestamp.Set(float64(next.Unix()))
	slog.Info("Schedule started",
		"interval", interval.String(),
		"next_run", next.Format(time.RFC3339))

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Schedule stopped")
			return nil
		case <-timer.C:
			d.runOnce(ctx)

			next = nextRun(time.Now(), interval, d.cfg.Schedule.PreferredHour)
			nextRunTimestamp.Set(float64(next.Unix()))
			slog.Info("Next run scheduled", "next_run", next.Format(time.RFC3339))
			timer.Reset(time.Until(next))
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context) {
	m, err := d.backups.CreateBackup(ctx, manifest.KindScheduled)
	if err != nil {
		scheduledRuns.WithLabelValues("failed").Inc()
		slog.Error("Scheduled backup failed", "error", err)
	} else {
		scheduledRuns.WithLabelValues("success").Inc()
		slog.Info("Scheduled backup completed", "backup_id", m.ID)
	}

	if d.pruner == nil {
		return
	}
	removed, err := d.pruner.Prune(ctx, time.Now())
	if err != nil {
		slog.Error("Retention pruning failed", "error", err)
	}
	if removed > 0 {
		slog.Info("Retention pruning completed", "removed", removed)
	}
}

// nextRun picks the next tick. Intervals of a day or longer align to
// the preferred hour when one is configured; shorter intervals simply
// add the interval.
func nextRun(now time.Time, interval time.Duration, preferredHour *int) time.Time {
	if interval >= 24*time.Hour && preferredHour != nil {
		next := time.Date(now.Year(), now.Month(), now.Day(),
			*preferredHour, 0, 0, 0, now.Location())
		if next.Before(now) {
			next = next.Add(24 * time.Hour)
		}
		if days := int(interval.Hours() / 24); days > 1 {
			next = next.Add(time.Duration(days-1) * 24 * time.Hour)
		}
		return next
	}
	return now.Add(interval)
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Metrics listener started", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics listener failed", "error", err)
	}
}
