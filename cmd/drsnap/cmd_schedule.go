package main

import (
	"context"

	"drsnap/internal/backup"
	"drsnap/internal/sched"
)

func runSchedule(ctx context.Context, configPath string) error {
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
	pruner := backup.NewPruner(a.primary, a.secondaries, a.cfg.RetentionDays())

	daemon := sched.NewDaemon(a.cfg, backups, pruner)
	return daemon.Run(ctx)
}
