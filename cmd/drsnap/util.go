package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"drsnap/internal/alert"
	"drsnap/internal/config"
	"drsnap/internal/eventlog"
	"drsnap/internal/objstore"
	"drsnap/internal/rowstore"
	"drsnap/internal/util"
)

// app carries what a command needs. Every command loads config and
// logging; the database and the object stores are connected only by the
// commands that use them.
type app struct {
	cfg     *config.Config
	logFile *os.File
	notify  alert.Notifier

	rows   *rowstore.DB
	events *eventlog.DB

	primary     objstore.Store
	secondaries []objstore.Store
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err := util.SetupLogging(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	slog.SetDefault(logger)

	return &app{cfg: cfg, logFile: logFile, notify: alert.New(cfg)}, nil
}

func (a *app) connectDatabase() error {
	db, err := gorm.Open(mysql.Open(a.cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.rows = rowstore.New(db)

	events, err := eventlog.New(db)
	if err != nil {
		return fmt.Errorf("failed to prepare event log: %w", err)
	}
	a.events = events

	return nil
}

func (a *app) connectStorage(ctx context.Context) error {
	primary, secondaries, err := objstore.NewAll(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.primary = primary
	a.secondaries = secondaries

	return nil
}

// allStores returns every region backend, preferred first.
func (a *app) allStores() []objstore.Store {
	return append([]objstore.Store{a.primary}, a.secondaries...)
}

func (a *app) close() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
