package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "drsnap.lock")

	release, err := Acquire(lockPath)
	require.NoError(t, err)

	_, err = os.Stat(lockPath)
	require.NoError(t, err)

	require.NoError(t, release())
}

func TestAcquireBlocked(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "drsnap.lock")

	release, err := Acquire(lockPath)
	require.NoError(t, err)
	defer release()

	_, err = Acquire(lockPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "another instance holds the lock")
}

func TestReacquireAfterRelease(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "drsnap.lock")

	release, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, release())

	release2, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, release2())
}

func TestReleaseIdempotent(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "drsnap.lock")

	release, err := Acquire(lockPath)
	require.NoError(t, err)

	require.NoError(t, release())
	require.NoError(t, release())
}
