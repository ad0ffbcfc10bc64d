// Package status condenses recovery metrics, recent backup activity
// and the security posture into one operator-facing health report.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"drsnap/internal/alert"
	"drsnap/internal/config"
	"drsnap/internal/eventlog"
	"drsnap/internal/manifest"
)

type HealthState string

const (
	StateHealthy  HealthState = "healthy"
	StateWarning  HealthState = "warning"
	StateCritical HealthState = "critical"
	StateError    HealthState = "error"
)

const recentWindow = 7 * 24 * time.Hour

// Degradation thresholds: looser than the compliance targets, tight
// enough to page before a missed backup becomes a week old.
const (
	warnRPOHours = 48
	warnRTOHours = 8
)

type SecurityCompliance struct {
	EncryptionAtRest    bool    `json:"encryption_at_rest"`
	EncryptionInTransit bool    `json:"encryption_in_transit"`
	AccessControls      bool    `json:"access_controls"`
	MultiRegion         bool    `json:"multi_region"`
	Score               float64 `json:"score_percent"`
}

type Report struct {
	Environment   string                  `json:"environment"`
	GeneratedAt   time.Time               `json:"generated_at"`
	State         HealthState             `json:"status"`
	Metrics       *manifest.RTORPOMetrics `json:"metrics,omitempty"`
	RecentBackups int64                   `json:"recent_backup_count"`
	Security      SecurityCompliance      `json:"security_compliance"`
}

// MetricsSource is the slice of the calculator the reporter needs.
type MetricsSource interface {
	Compute(ctx context.Context, now time.Time) (*manifest.RTORPOMetrics, error)
}

type Reporter struct {
	cfg     *config.Config
	events  eventlog.Log
	metrics MetricsSource
	notify  alert.Notifier
}

func NewReporter(cfg *config.Config, events eventlog.Log, metrics MetricsSource, notify alert.Notifier) *Reporter {
	return &Reporter{
		cfg:     cfg,
		events:  events,
		metrics: metrics,
		notify:  notify,
	}
}

// GetStatus always returns a report; event log failures surface as the
// error state instead of an error return.
func (r *Reporter) GetStatus(ctx context.Context) *Report {
	now := time.Now()
	report := &Report{
		Environment: r.cfg.Environment,
		GeneratedAt: now.UTC(),
		Security:    r.securityChecklist(),
	}

	metrics, err := r.metrics.Compute(ctx, now)
	if err != nil {
		slog.Error("Failed to compute recovery metrics", "error", err)
		report.State = StateError
		healthStatus.Set(stateSeverity(StateError))
		return report
	}
	report.Metrics = metrics

	recent, err := r.events.CountSince(ctx, eventlog.TypeBackupCompleted, now.Add(-recentWindow))
	if err != nil {
		slog.Error("Failed to count recent backups", "error", err)
		report.State = StateError
		healthStatus.Set(stateSeverity(StateError))
		return report
	}
	report.RecentBackups = recent

	report.State = deriveState(metrics, recent)
	healthStatus.Set(stateSeverity(report.State))

	if metrics.Known && !metrics.Compliant {
		subject := fmt.Sprintf("RPO/RTO compliance breach (%s)", r.cfg.Environment)
		body := fmt.Sprintf("rpo_hours=%.2f (target %.0f) rto_estimate_hours=%.2f (target %.0f)",
			metrics.RPOHours, metrics.TargetRPOHours, metrics.RTOEstimateHours, metrics.TargetRTOHours)
		if err := r.notify.Notify(ctx, subject, body); err != nil {
			slog.Warn("Failed to send compliance alert", "error", err)
		}
	}
	return report
}

func deriveState(metrics *manifest.RTORPOMetrics, recent int64) HealthState {
	switch {
	case recent == 0:
		return StateCritical
	case metrics.Known && (metrics.RPOHours > warnRPOHours || metrics.RTOEstimateHours > warnRTOHours):
		return StateWarning
	default:
		return StateHealthy
	}
}

// securityChecklist is static posture, not a probe: encryption at rest
// comes with the object store, in transit counts only while no region
// is marked insecure, access controls only when every region carries
// explicit credentials, and multi-region needs at least one secondary.
func (r *Reporter) securityChecklist() SecurityCompliance {
	sc := SecurityCompliance{
		EncryptionAtRest:    true,
		EncryptionInTransit: true,
		AccessControls:      len(r.cfg.Storage.Regions) > 0,
		MultiRegion:         len(r.cfg.SecondaryRegions()) > 0,
	}
	for _, region := range r.cfg.Storage.Regions {
		if region.Insecure {
			sc.EncryptionInTransit = false
		}
		if region.AccessKey == "" || region.SecretKey == "" {
			sc.AccessControls = false
		}
	}

	passed := 0
	for _, ok := range []bool{sc.EncryptionAtRest, sc.EncryptionInTransit, sc.AccessControls, sc.MultiRegion} {
		if ok {
			passed++
		}
	}
	sc.Score = float64(passed) / 4 * 100
	return sc
}

func stateSeverity(state HealthState) float64 {
	switch state {
	case StateHealthy:
		return 0
	case StateWarning:
		return 1
	case StateCritical:
		return 2
	default:
		return 3
	}
}
