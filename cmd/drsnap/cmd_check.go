package main

import (
	"context"
	"os"

	"drsnap/internal/check"
)

func runCheck(ctx context.Context, configPath string) error {
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

	return check.Run(ctx, a.cfg, a.rows, a.allStores(), os.Stdout)
}
