package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "drsnap",
		Usage:   "Disaster recovery backups for critical tables",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Verify configuration, database and every storage region",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runCheck(ctx, cmd.String("config"))
				},
			},
			{
				Name:  "backup",
				Usage: "Snapshot the critical tables and replicate to all regions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Backup kind: scheduled, manual, test, daily or incremental",
						Value: "manual",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runBackup(ctx, cmd.String("config"), cmd.String("kind"))
				},
			},
			{
				Name:  "restore",
				Usage: "Restore tables from a stored backup",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "backup-id",
						Usage:    "Backup to restore from",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "table",
						Usage: "Restore only this table (repeatable; default: every table in the backup)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Show what would be restored without touching the database",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runRestore(ctx, cmd.String("config"), cmd.String("backup-id"),
						cmd.StringSlice("table"), cmd.Bool("dry-run"))
				},
			},
			{
				Name:  "list",
				Usage: "List stored backups in every region",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the inventory as JSON",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runList(ctx, cmd.String("config"), cmd.Bool("json"))
				},
			},
			{
				Name:  "selftest",
				Usage: "Run the disaster recovery self-test",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSelfTest(ctx, cmd.String("config"))
				},
			},
			{
				Name:  "status",
				Usage: "Report overall disaster recovery health",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the full report as JSON",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStatus(ctx, cmd.String("config"), cmd.Bool("json"))
				},
			},
			{
				Name:  "prune",
				Usage: "Remove backups past the retention window",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runPrune(ctx, cmd.String("config"))
				},
			},
			{
				Name:  "schedule",
				Usage: "Run the scheduled backup daemon",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runSchedule(ctx, cmd.String("config"))
				},
			},
		},
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		if ctx.Err() == context.Canceled {
			fmt.Fprintln(os.Stderr, "\n⚠ Interrupted by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		slog.Error("CLI error", "error", err)
		os.Exit(1)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "path to configuration yaml file",
		Value: "drsnap.yaml",
	}
}
