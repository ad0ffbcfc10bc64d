package main

import (
	"context"
	"fmt"
	"sort"

	"drsnap/internal/manifest"
	"drsnap/internal/restore"
)

func runRestore(ctx context.Context, configPath, backupID string, tables []string, dryRun bool) error {
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

	orch := restore.NewOrchestrator(a.cfg, a.rows, a.events, a.primary, a.secondaries)
	outcome, err := orch.Restore(ctx, backupID, restore.Options{
		DryRun: dryRun,
		Tables: tables,
	})
	if err != nil {
		return err
	}

	printOutcome(outcome)

	if n := outcome.FailedTables(); n > 0 {
		return fmt.Errorf("restore finished with %d failed table(s)", n)
	}
	return nil
}

func printOutcome(outcome *manifest.RestoreOutcome) {
	if outcome.DryRun {
		fmt.Printf("\n=== DRY RUN MODE ===\n")
		fmt.Printf("Would restore backup %s:\n", outcome.BackupID)
	} else {
		fmt.Printf("Restore of backup %s %s\n", outcome.BackupID, outcome.Status)
	}

	names := make([]string, 0, len(outcome.Tables))
	for name := range outcome.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := outcome.Tables[name]
		switch res.Status {
		case manifest.RestoreTableCompleted:
			fmt.Printf("  %-24s %-9s  %6d rows\n", name, res.Status, res.Rows)
		case manifest.RestoreTableSkipped:
			fmt.Printf("  %-24s %-9s  %s\n", name, res.Status, res.Reason)
		case manifest.RestoreTableFailed:
			fmt.Printf("  %-24s %-9s  %s\n", name, res.Status, res.Reason)
		}
		if res.Warning != "" {
			fmt.Printf("    warning: %s\n", res.Warning)
		}
		if res.SafetyBackup != "" {
			fmt.Printf("    safety snapshot: %s\n", res.SafetyBackup)
		}
	}

	if outcome.DryRun {
		fmt.Printf("\nNo changes made.\n")
	}
}
