// Package manifest defines the records produced by backup, restore and
// self-test runs, plus the object key scheme and JSON codec that move
// them through object storage.
package manifest

import (
	"sort"
	"time"
)

type Kind string

const (
	KindScheduled   Kind = "scheduled"
	KindManual      Kind = "manual"
	KindTest        Kind = "test"
	KindDaily       Kind = "daily"
	KindIncremental Kind = "incremental"
)

func (k Kind) Valid() bool {
	switch k {
	case KindScheduled, KindManual, KindTest, KindDaily, KindIncremental:
		return true
	}
	return false
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

type TableStatus string

const (
	TableCompleted TableStatus = "completed"
	TableFailed    TableStatus = "failed"
)

type TableBackupResult struct {
	Table       string      `json:"table"`
	Status      TableStatus `json:"status"`
	Rows        int64       `json:"row_count"`
	Bytes       int64       `json:"size_bytes"`
	CompletedAt time.Time   `json:"completed_at"`
	Error       string      `json:"error,omitempty"`
}

// BackupManifest is mutated only while its own run is in progress and is
// immutable once Status is terminal.
type BackupManifest struct {
	ID          string                       `json:"id"`
	CreatedAt   time.Time                    `json:"created_at"`
	Kind        Kind                         `json:"kind"`
	Status      Status                       `json:"status"`
	Environment string                       `json:"environment"`
	Tables      map[string]TableBackupResult `json:"tables"`
	TotalBytes  int64                        `json:"total_size_bytes"`
	TableCount  int                          `json:"table_count"`
}

// CompletedTables returns the tables whose snapshot succeeded, sorted.
func (m *BackupManifest) CompletedTables() []string {
	names := make([]string, 0, len(m.Tables))
	for name, res := range m.Tables {
		if res.Status == TableCompleted {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

type UploadStatus string

const (
	UploadSuccess UploadStatus = "success"
	UploadFailed  UploadStatus = "failed"
)

type RegionUploadResult struct {
	Region     string       `json:"region"`
	Status     UploadStatus `json:"status"`
	Location   string       `json:"location,omitempty"`
	Checksum   string       `json:"checksum,omitempty"`
	UploadedAt time.Time    `json:"uploaded_at"`
	Error      string       `json:"error,omitempty"`
}

type RestoreTableStatus string

const (
	RestoreTableCompleted RestoreTableStatus = "completed"
	RestoreTableSkipped   RestoreTableStatus = "skipped"
	RestoreTableFailed    RestoreTableStatus = "failed"
)

const (
	ReasonBackupNotAvailable = "backup_not_available"
	ReasonClearFailed        = "clear_failed"
	ReasonInsertFailed       = "insert_failed"
	ReasonDryRun             = "dry_run"
)

// A safety snapshot failure sets Warning, it never fails the table.
type TableRestoreResult struct {
	Table        string             `json:"table"`
	Status       RestoreTableStatus `json:"status"`
	Rows         int64              `json:"rows_restored"`
	Reason       string             `json:"reason,omitempty"`
	SafetyBackup string             `json:"safety_backup,omitempty"`
	Warning      string             `json:"warning,omitempty"`
}

type RestoreOutcome struct {
	BackupID        string                        `json:"backup_id"`
	RequestedTables []string                      `json:"requested_tables,omitempty"`
	DryRun          bool                          `json:"dry_run"`
	Environment     string                        `json:"environment"`
	Status          Status                        `json:"status"`
	Tables          map[string]TableRestoreResult `json:"tables"`
	CompletedAt     time.Time                     `json:"completed_at"`
}

func (o *RestoreOutcome) FailedTables() int {
	n := 0
	for _, res := range o.Tables {
		if res.Status == RestoreTableFailed {
			n++
		}
	}
	return n
}

type Verdict string

const (
	VerdictPassed  Verdict = "passed"
	VerdictWarning Verdict = "warning"
	VerdictFailed  Verdict = "failed"
)

type BackupCreationTest struct {
	Status     Verdict `json:"status"`
	BackupID   string  `json:"backup_id,omitempty"`
	TableCount int     `json:"table_count"`
	TotalBytes int64   `json:"total_size_bytes"`
	Error      string  `json:"error,omitempty"`
}

type RegionAvailability struct {
	Region    string `json:"region"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

type MultiRegionTest struct {
	Status  Verdict              `json:"status"`
	Regions []RegionAvailability `json:"regions"`
}

type RestoreStepTest struct {
	Status Verdict `json:"status"`
	Table  string  `json:"table,omitempty"`
	Error  string  `json:"error,omitempty"`
}

type RTORPOTest struct {
	Status  Verdict        `json:"status"`
	Metrics *RTORPOMetrics `json:"metrics,omitempty"`
}

type DRTestResult struct {
	StartedAt      time.Time          `json:"started_at"`
	BackupCreation BackupCreationTest `json:"backup_creation"`
	MultiRegion    MultiRegionTest    `json:"multi_region"`
	RestoreTest    RestoreStepTest    `json:"restore_test"`
	RTORPOCheck    RTORPOTest         `json:"rto_rpo"`
	Verdict        Verdict            `json:"verdict"`
	Errors         []string           `json:"errors,omitempty"`
}

// Downgrade lowers the verdict, never raises it.
func (r *DRTestResult) Downgrade(to Verdict) {
	if r.Verdict == VerdictFailed {
		return
	}
	if to == VerdictFailed || (to == VerdictWarning && r.Verdict == VerdictPassed) {
		r.Verdict = to
	}
}

// UnknownValue fills the numeric metric fields when no backup history
// exists.
const UnknownValue = -1

// RTORPOMetrics is derived from the event log on every query, never stored.
type RTORPOMetrics struct {
	Known                bool       `json:"known"`
	RPOHours             float64    `json:"rpo_hours"`
	RTOEstimateHours     float64    `json:"rto_estimate_hours"`
	LastBackup           *time.Time `json:"last_backup,omitempty"`
	LastBackupID         string     `json:"last_backup_id,omitempty"`
	BackupFrequencyHours float64    `json:"backup_frequency_hours"`
	TargetRPOHours       float64    `json:"target_rpo_hours"`
	TargetRTOHours       float64    `json:"target_rto_hours"`
	Compliant            bool       `json:"compliant"`
}

func UnknownMetrics(targetRPO, targetRTO float64) *RTORPOMetrics {
	return &RTORPOMetrics{
		Known:                false,
		RPOHours:             UnknownValue,
		RTOEstimateHours:     UnknownValue,
		BackupFrequencyHours: UnknownValue,
		TargetRPOHours:       targetRPO,
		TargetRTOHours:       targetRTO,
	}
}
