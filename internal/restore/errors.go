package restore

import (
	"fmt"
	"strings"
)

// RegionNotFoundError means retrieval exhausted every region in the
// fallback chain. It is fatal to the restore or test that asked.
type RegionNotFoundError struct {
	BackupID string
	Regions  []string
}

func (e *RegionNotFoundError) Error() string {
	return fmt.Sprintf("backup %s not found in any region (tried %s)", e.BackupID, strings.Join(e.Regions, ", "))
}

// TableRestoreError marks one table's clear-or-insert failure. It is
// recorded on the table result and never aborts the other tables.
type TableRestoreError struct {
	Table string
	Err   error
}

func (e *TableRestoreError) Error() string {
	return fmt.Sprintf("failed to restore table %s: %v", e.Table, e.Err)
}

func (e *TableRestoreError) Unwrap() error {
	return e.Err
}
