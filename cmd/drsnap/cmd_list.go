package main

import (
	"context"
	"os"

	"drsnap/internal/list"
)

func runList(ctx context.Context, configPath string, asJSON bool) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectStorage(ctx); err != nil {
		return err
	}

	return list.Run(ctx, a.cfg, a.allStores(), os.Stdout, asJSON)
}
