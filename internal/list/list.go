// Package list reports the snapshots currently stored in each region.
package list

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"drsnap/internal/config"
	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
	"drsnap/internal/util"
)

type Info struct {
	ID          string    `json:"id,omitempty"`
	Key         string    `json:"key"`
	CreatedAt   time.Time `json:"created_at"`
	Kind        string    `json:"kind,omitempty"`
	Status      string    `json:"status,omitempty"`
	TableCount  int       `json:"table_count"`
	TotalBytes  int64     `json:"total_size_bytes"`
	StoredBytes int64     `json:"stored_bytes"`
	Error       string    `json:"error,omitempty"`
}

type RegionListing struct {
	Region  string `json:"region"`
	Error   string `json:"error,omitempty"`
	Backups []Info `json:"backups"`
}

type Summary struct {
	TotalObjects    int   `json:"total_objects"`
	DistinctBackups int   `json:"distinct_backups"`
	StoredBytes     int64 `json:"stored_bytes"`
}

type Output struct {
	Environment string          `json:"environment"`
	Regions     []RegionListing `json:"regions"`
	Summary     Summary         `json:"summary"`
}

// Collect inventories every region independently: one unreachable
// region is reported inline and never hides the others.
func Collect(ctx context.Context, cfg *config.Config, stores []objstore.Store) *Output {
	out := &Output{Environment: cfg.Environment}
	distinct := make(map[string]bool)

	for _, store := range stores {
		listing := collectRegion(ctx, store, cfg.UnitTimeout())
		for _, info := range listing.Backups {
			out.Summary.TotalObjects++
			out.Summary.StoredBytes += info.StoredBytes
			if info.ID != "" {
				distinct[info.ID] = true
			}
		}
		out.Regions = append(out.Regions, listing)
	}
	out.Summary.DistinctBackups = len(distinct)
	return out
}

func collectRegion(ctx context.Context, store objstore.Store, unitTimeout time.Duration) RegionListing {
	listing := RegionListing{Region: store.Region(), Backups: []Info{}}

	ctx, cancel := context.WithTimeout(ctx, unitTimeout)
	defer cancel()

	objects, err := store.List(ctx, "backups/")
	if err != nil {
		slog.Warn("Failed to list region", "region", store.Region(), "error", err)
		listing.Error = err.Error()
		return listing
	}

	for _, obj := range objects {
		data, _, err := store.Get(ctx, obj.Key)
		if err != nil {
			listing.Backups = append(listing.Backups, Info{
				Key:         obj.Key,
				StoredBytes: obj.Size,
				Error:       fmt.Sprintf("failed to download: %v", err),
			})
			continue
		}
		listing.Backups = append(listing.Backups, describe(obj.Key, obj.Size, data))
	}

	// Newest first; undecodable objects sink to the end.
	sort.Slice(listing.Backups, func(i, j int) bool {
		return listing.Backups[i].CreatedAt.After(listing.Backups[j].CreatedAt)
	})
	return listing
}

func describe(key string, storedBytes int64, data []byte) Info {
	info := Info{Key: key, StoredBytes: storedBytes}

	var envelope struct {
		Manifest *manifest.BackupManifest `json:"manifest"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Manifest == nil {
		info.Error = "snapshot is undecodable"
		return info
	}

	m := envelope.Manifest
	info.ID = m.ID
	info.CreatedAt = m.CreatedAt
	info.Kind = string(m.Kind)
	info.Status = string(m.Status)
	info.TableCount = m.TableCount
	info.TotalBytes = m.TotalBytes
	return info
}

// Run prints the inventory, as indented JSON or a plain text summary.
// It fails only when no region could be listed at all.
func Run(ctx context.Context, cfg *config.Config, stores []objstore.Store, w io.Writer, asJSON bool) error {
	out := Collect(ctx, cfg, stores)

	failed := 0
	for _, region := range out.Regions {
		if region.Error != "" {
			failed++
		}
	}
	if len(out.Regions) > 0 && failed == len(out.Regions) {
		return fmt.Errorf("listing failed in all %d regions", failed)
	}

	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}

	printText(w, out)
	return nil
}

func printText(w io.Writer, out *Output) {
	for _, region := range out.Regions {
		if region.Error != "" {
			fmt.Fprintf(w, "Region %s: unavailable (%s)\n", region.Region, region.Error)
			continue
		}
		fmt.Fprintf(w, "Region %s: %d snapshot(s)\n", region.Region, len(region.Backups))
		for _, info := range region.Backups {
			if info.Error != "" {
				fmt.Fprintf(w, "  %-44s  %s\n", info.Key, info.Error)
				continue
			}
			fmt.Fprintf(w, "  %-44s  %-10s  %-9s  %2d tables  %10s\n",
				info.ID,
				info.Kind,
				info.Status,
				info.TableCount,
				util.HumanBytes(info.TotalBytes),
			)
		}
	}
	fmt.Fprintf(w, "Total: %d object(s), %d distinct backup(s), %s stored\n",
		out.Summary.TotalObjects,
		out.Summary.DistinctBackups,
		util.HumanBytes(out.Summary.StoredBytes),
	)
}
