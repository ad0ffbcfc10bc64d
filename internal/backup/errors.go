package backup

import "fmt"

// TableSnapshotError marks one table's snapshot failure. It is recorded
// on the table result and never aborts the run.
type TableSnapshotError struct {
	Table string
	Err   error
}

func (e *TableSnapshotError) Error() string {
	return fmt.Sprintf("failed to snapshot table %s: %v", e.Table, e.Err)
}

func (e *TableSnapshotError) Unwrap() error {
	return e.Err
}

// RegionUploadError marks one region's replication failure. It is
// recorded on the region result and never aborts the other regions.
type RegionUploadError struct {
	Region string
	Err    error
}

func (e *RegionUploadError) Error() string {
	return fmt.Sprintf("failed to upload to region %s: %v", e.Region, e.Err)
}

func (e *RegionUploadError) Unwrap() error {
	return e.Err
}
