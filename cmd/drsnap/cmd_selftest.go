package main

import (
	"context"
	"fmt"
	"time"

	"drsnap/internal/backup"
	"drsnap/internal/drtest"
	"drsnap/internal/manifest"
	"drsnap/internal/restore"
	"drsnap/internal/rtorpo"
	"drsnap/internal/status"
)

func runSelfTest(ctx context.Context, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDatabase(); err != nil {
		return err
	}
	if err := a.connectStorage(ctx); err != nil {
		return err
	}

	backups := backup.NewOrchestrator(a.cfg, a.rows, a.events, a.primary, a.secondaries)
	restores := restore.NewOrchestrator(a.cfg, a.rows, a.events, a.primary, a.secondaries)
	calc := rtorpo.NewCalculator(a.cfg, a.events)

	runner := drtest.NewRunner(a.cfg, backups, restores, restores.Retriever(), calc, a.notify)
	result := runner.RunTest(ctx)

	if err := printJSON(result); err != nil {
		return err
	}
	if result.Verdict == manifest.VerdictFailed {
		return fmt.Errorf("self-test failed")
	}
	return nil
}

func runStatus(ctx context.Context, configPath string, asJSON bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectDatabase(); err != nil {
		return err
	}

	reporter := status.NewReporter(a.cfg, a.events, rtorpo.NewCalculator(a.cfg, a.events), a.notify)
	report := reporter.GetStatus(ctx)

	if asJSON {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func printReport(r *status.Report) {
	fmt.Printf("Environment:    %s\n", r.Environment)
	fmt.Printf("Status:         %s\n", r.State)
	fmt.Printf("Recent backups: %d (last 7 days)\n", r.RecentBackups)

	if m := r.Metrics; m != nil && m.Known {
		fmt.Printf("RPO:            %.1f h (target %.0f h)\n", m.RPOHours, m.TargetRPOHours)
		fmt.Printf("RTO estimate:   %.1f h (target %.0f h)\n", m.RTOEstimateHours, m.TargetRTOHours)
		if m.LastBackup != nil {
			fmt.Printf("Last backup:    %s\n", m.LastBackup.Format(time.RFC3339))
		}
		fmt.Printf("Compliant:      %t\n", m.Compliant)
	} else {
		fmt.Printf("RPO/RTO:        unknown, no backup history\n")
	}

	fmt.Printf("Security score: %.0f%%\n", r.Security.Score)
}
