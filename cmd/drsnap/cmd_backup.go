package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"drsnap/internal/backup"
	"drsnap/internal/manifest"
	"drsnap/internal/util"
)

func runBackup(ctx context.Context, configPath, kindName string) error {
	kind := manifest.Kind(kindName)
	if !kind.Valid() {
		return fmt.Errorf("invalid backup kind %q, expected scheduled, manual, test, daily or incremental", kindName)
	}

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

	orch := backup.NewOrchestrator(a.cfg, a.rows, a.events, a.primary, a.secondaries)

	// A partial manifest comes back even when the run fails, so the
	// summary is printed before the error surfaces.
	m, runErr := orch.CreateBackup(ctx, kind)
	if m != nil {
		printBackupSummary(m)
	}
	return runErr
}

func printBackupSummary(m *manifest.BackupManifest) {
	fmt.Printf("Backup %s %s\n", m.ID, m.Status)
	fmt.Printf("  Tables: %d\n", m.TableCount)
	fmt.Printf("  Size:   %s\n", util.HumanBytes(m.TotalBytes))

	names := make([]string, 0, len(m.Tables))
	for name := range m.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		res := m.Tables[name]
		if res.Status == manifest.TableCompleted {
			fmt.Printf("  %-24s %6d rows  %10s\n", name, res.Rows, util.HumanBytes(res.Bytes))
		} else {
			fmt.Printf("  %-24s failed: %s\n", name, res.Error)
		}
	}
}

func runPrune(ctx context.Context, configPath string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectStorage(ctx); err != nil {
		return err
	}

	pruner := backup.NewPruner(a.primary, a.secondaries, a.cfg.RetentionDays())
	removed, err := pruner.Prune(ctx, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d object(s) older than %d days\n", removed, a.cfg.RetentionDays())
	return nil
}
