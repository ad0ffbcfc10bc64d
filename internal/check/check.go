// Package check runs the preflight verification: configuration, the row
// store, and every configured region, in dependency order.
package check

import (
	"context"
	"fmt"
	"io"
	"time"

	"drsnap/internal/config"
	"drsnap/internal/objstore"
	"drsnap/internal/rowstore"
)

// TableChecker is an optional row store capability. The gorm-backed
// store implements it; when the store cannot answer, table existence
// checks are skipped rather than failed.
type TableChecker interface {
	HasTable(ctx context.Context, table string) (bool, error)
}

// Run walks the checks front to back and stops at the first failure.
func Run(ctx context.Context, cfg *config.Config, rows rowstore.Store, stores []objstore.Store, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fmt.Fprintln(w, "config: OK")

	if err := withTimeout(ctx, cfg.UnitTimeout(), rows.Ping); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	fmt.Fprintln(w, "database: OK")

	if checker, ok := rows.(TableChecker); ok {
		for _, table := range cfg.Database.CriticalTables {
			if err := checkTable(ctx, cfg.UnitTimeout(), checker, table); err != nil {
				return err
			}
			fmt.Fprintf(w, "table %s: OK\n", table)
		}
	}

	for _, store := range stores {
		if err := withTimeout(ctx, cfg.UnitTimeout(), store.VerifyAccess); err != nil {
			return fmt.Errorf("region %s: %w", store.Region(), err)
		}
		fmt.Fprintf(w, "region %s: OK\n", store.Region())
	}

	fmt.Fprintln(w, "all checks passed")
	return nil
}

func checkTable(ctx context.Context, timeout time.Duration, checker TableChecker, table string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := checker.HasTable(ctx, table)
	if err != nil {
		return fmt.Errorf("table %s: %w", table, err)
	}
	if !ok {
		return fmt.Errorf("table %s: not found", table)
	}
	return nil
}

func withTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
