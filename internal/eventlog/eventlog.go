// Package eventlog is the append-only record of backup and restore runs.
// It is the sole durable history: RTO/RPO metrics and health status are
// derived by scanning recent entries, never by mutating old ones.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

const (
	TypeBackupCompleted  = "backup_completed"
	TypeBackupFailed     = "backup_failed"
	TypeRestoreCompleted = "restore_completed"
	TypeRestoreFailed    = "restore_failed"
)

// Event rows are inserted once and never updated.
type Event struct {
	ID        uint      `gorm:"primaryKey"`
	BackupID  string    `gorm:"size:64;index"`
	Type      string    `gorm:"size:32;index"`
	Payload   string    `gorm:"type:mediumtext"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (Event) TableName() string {
	return "dr_events"
}

// NewEvent serializes payload (a manifest or restore outcome) into an
// appendable event.
func NewEvent(backupID, eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{
		BackupID:  backupID,
		Type:      eventType,
		Payload:   string(data),
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Log interface {
	Append(ctx context.Context, event *Event) error
	QueryRecent(ctx context.Context, eventType string, limit int) ([]Event, error)
	CountSince(ctx context.Context, eventType string, since time.Time) (int64, error)
}

type DB struct {
	db *gorm.DB
}

// New migrates the dr_events table and returns the log.
func New(db *gorm.DB) (*DB, error) {
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("failed to migrate event log: %w", err)
	}
	return &DB{db: db}, nil
}

func (l *DB) Append(ctx context.Context, event *Event) error {
	if err := l.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append %s event: %w", event.Type, err)
	}
	return nil
}

// QueryRecent returns up to limit events of one type, newest first.
func (l *DB) QueryRecent(ctx context.Context, eventType string, limit int) ([]Event, error) {
	var events []Event
	if err := l.db.WithContext(ctx).
		Where("type = ?", eventType).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s events: %w", eventType, err)
	}
	return events, nil
}

func (l *DB) CountSince(ctx context.Context, eventType string, since time.Time) (int64, error) {
	var n int64
	if err := l.db.WithContext(ctx).
		Model(&Event{}).
		Where("type = ? AND created_at >= ?", eventType, since).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count %s events: %w", eventType, err)
	}
	return n, nil
}
