//go:build e2e

package e2e

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drsnap/internal/alert"
	"drsnap/internal/backup"
	"drsnap/internal/drtest"
	"drsnap/internal/eventlog"
	"drsnap/internal/list"
	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
	"drsnap/internal/restore"
	"drsnap/internal/rowstore"
	"drsnap/internal/rtorpo"
)

func TestBackupRestoreCycle(t *testing.T) {
	cfg := e2eConfig(t)
	db := openDatabase(t, cfg)
	primary, secondaries := openStores(t, cfg)

	rows := rowstore.New(db)
	events, err := eventlog.New(db)
	require.NoError(t, err)

	seedUsers(t, db, 3)

	backups := backup.NewOrchestrator(cfg, rows, events, primary, secondaries)
	m, err := backups.CreateBackup(context.Background(), manifest.KindManual)
	require.NoError(t, err)
	require.Equal(t, manifest.StatusCompleted, m.Status)
	assert.Equal(t, 1, m.TableCount)

	// The snapshot must be listable in every region.
	out := list.Collect(context.Background(), cfg, append([]objstore.Store{primary}, secondaries...))
	require.Len(t, out.Regions, 2)
	for _, listing := range out.Regions {
		require.Empty(t, listing.Error)

		found := false
		for _, info := range listing.Backups {
			if info.ID == m.ID {
				found = true
			}
		}
		assert.True(t, found, "backup %s missing in region %s", m.ID, listing.Region)
	}

	// Lose data, then restore it.
	require.NoError(t, db.Exec("DELETE FROM "+usersTable+" WHERE id > 1").Error)
	require.Equal(t, 1, countUsers(t, rows))

	restores := restore.NewOrchestrator(cfg, rows, events, primary, secondaries)
	outcome, err := restores.Restore(context.Background(), m.ID, restore.Options{})
	require.NoError(t, err)
	require.Equal(t, manifest.StatusCompleted, outcome.Status)
	require.Equal(t, manifest.RestoreTableCompleted, outcome.Tables[usersTable].Status)

	assert.Equal(t, 3, countUsers(t, rows))
}

func TestDryRunRestoreLeavesDataUntouched(t *testing.T) {
	cfg := e2eConfig(t)
	db := openDatabase(t, cfg)
	primary, secondaries := openStores(t, cfg)

	rows := rowstore.New(db)
	events, err := eventlog.New(db)
	require.NoError(t, err)

	seedUsers(t, db, 2)

	backups := backup.NewOrchestrator(cfg, rows, events, primary, secondaries)
	m, err := backups.CreateBackup(context.Background(), manifest.KindManual)
	require.NoError(t, err)

	require.NoError(t, db.Exec("DELETE FROM "+usersTable+" WHERE id = 2").Error)

	restores := restore.NewOrchestrator(cfg, rows, events, primary, secondaries)
	outcome, err := restores.Restore(context.Background(), m.ID, restore.Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), outcome.Tables[usersTable].Rows, "reports what would be restored")

	assert.Equal(t, 1, countUsers(t, rows), "dry run never writes")
}

func TestSelfTest(t *testing.T) {
	cfg := e2eConfig(t)
	db := openDatabase(t, cfg)
	primary, secondaries := openStores(t, cfg)

	rows := rowstore.New(db)
	events, err := eventlog.New(db)
	require.NoError(t, err)

	seedUsers(t, db, 2)

	backups := backup.NewOrchestrator(cfg, rows, events, primary, secondaries)
	restores := restore.NewOrchestrator(cfg, rows, events, primary, secondaries)
	calc := rtorpo.NewCalculator(cfg, events)

	runner := drtest.NewRunner(cfg, backups, restores, restores.Retriever(), calc, alert.Nop{})
	result := runner.RunTest(context.Background())

	assert.Equal(t, manifest.VerdictPassed, result.Verdict, "errors: %v", result.Errors)
	assert.Equal(t, manifest.VerdictPassed, result.BackupCreation.Status)
	assert.Equal(t, manifest.VerdictPassed, result.MultiRegion.Status)
	assert.Equal(t, manifest.VerdictPassed, result.RestoreTest.Status)
}
