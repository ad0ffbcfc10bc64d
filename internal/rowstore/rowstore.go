// Package rowstore reads and writes whole tables in the primary
// relational store. Backup snapshots read through it, restores clear and
// repopulate through it.
package rowstore

import (
	"context"
	"fmt"
	"regexp"

	"gorm.io/gorm"
)

// Row is one table row as column to value pairs.
type Row = map[string]any

type Store interface {
	Ping(ctx context.Context) error
	ReadAllRows(ctx context.Context, table string) ([]Row, error)
	DeleteAllRows(ctx context.Context, table string) error
	InsertRows(ctx context.Context, table string, rows []Row) error
}

// Table names come from config and manifests, never from end users, but
// they still end up in raw statements.
var validTable = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func checkTable(table string) error {
	if !validTable.MatchString(table) {
		return fmt.Errorf("invalid table name: %q", table)
	}
	return nil
}

type DB struct {
	db *gorm.DB
}

func New(db *gorm.DB) *DB {
	return &DB{db: db}
}

func (s *DB) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// HasTable reports whether the table exists in the connected schema.
func (s *DB) HasTable(ctx context.Context, table string) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	return s.db.WithContext(ctx).Migrator().HasTable(table), nil
}

func (s *DB) ReadAllRows(ctx context.Context, table string) ([]Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	var rows []Row
	if err := s.db.WithContext(ctx).Table(table).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", table, err)
	}
	return rows, nil
}

func (s *DB) DeleteAllRows(ctx context.Context, table string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM `%s`", table)).Error; err != nil {
		return fmt.Errorf("failed to clear table %s: %w", table, err)
	}
	return nil
}

func (s *DB) InsertRows(ctx context.Context, table string, rows []Row) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Table(table).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to insert %d rows into %s: %w", len(rows), table, err)
	}
	return nil
}
