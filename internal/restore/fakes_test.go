package restore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"drsnap/internal/config"
	"drsnap/internal/eventlog"
	"drsnap/internal/manifest"
	"drsnap/internal/objstore"
	"drsnap/internal/rowstore"
)

const testBackupID = "bk_20260815T093000Z_9f3a2c1b"

var testCreatedAt = time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "production",
		Database: config.DatabaseConfig{
			DSN:            "dsn",
			CriticalTables: []string{"users"},
		},
		Storage: config.StorageConfig{
			Regions: []config.Region{
				{Name: "us-east-1", Bucket: "b1"},
				{Name: "eu-west-1", Bucket: "b2"},
			},
		},
	}
}

type fakeRowStore struct {
	mu         sync.Mutex
	tables     map[string][]rowstore.Row
	failRead   map[string]error
	failDelete map[string]error
	failInsert map[string]error
	batches    map[string][]int
}

func newFakeRowStore() *fakeRowStore {
	return &fakeRowStore{
		tables:     make(map[string][]rowstore.Row),
		failRead:   make(map[string]error),
		failDelete: make(map[string]error),
		failInsert: make(map[string]error),
		batches:    make(map[string][]int),
	}
}

func (f *fakeRowStore) Ping(context.Context) error {
	return nil
}

func (f *fakeRowStore) ReadAllRows(_ context.Context, table string) ([]rowstore.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failRead[table]; err != nil {
		return nil, err
	}
	return f.tables[table], nil
}

func (f *fakeRowStore) DeleteAllRows(_ context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDelete[table]; err != nil {
		return err
	}
	f.tables[table] = nil
	return nil
}

func (f *fakeRowStore) InsertRows(_ context.Context, table string, rows []rowstore.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failInsert[table]; err != nil {
		return err
	}
	f.batches[table] = append(f.batches[table], len(rows))
	f.tables[table] = append(f.tables[table], rows...)
	return nil
}

func (f *fakeRowStore) rowCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

type fakeObject struct {
	data     []byte
	checksum string
}

type fakeObjStore struct {
	mu       sync.Mutex
	region   string
	objects  map[string]fakeObject
	getErr   error
	putErr   error
	getCalls int
	putCalls int
}

func newFakeObjStore(region string) *fakeObjStore {
	return &fakeObjStore{
		region:  region,
		objects: make(map[string]fakeObject),
	}
}

func (f *fakeObjStore) Region() string {
	return f.region
}

func (f *fakeObjStore) Put(_ context.Context, key string, data []byte, checksum string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	if f.putErr != nil {
		return "", f.putErr
	}
	f.objects[key] = fakeObject{data: data, checksum: checksum}
	return fmt.Sprintf("s3://%s/%s", f.region, key), nil
}

func (f *fakeObjStore) Get(_ context.Context, key string) ([]byte, *objstore.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("no such key: %s", key)
	}
	return obj.data, &objstore.Metadata{Size: int64(len(obj.data)), Checksum: obj.checksum}, nil
}

func (f *fakeObjStore) List(_ context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var infos []objstore.ObjectInfo
	for key, obj := range f.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, objstore.ObjectInfo{Key: key, Size: int64(len(obj.data))})
		}
	}
	return infos, nil
}

func (f *fakeObjStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjStore) VerifyAccess(context.Context) error {
	return nil
}

func (f *fakeObjStore) object(key string) (fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

type fakeEventLog struct {
	mu        sync.Mutex
	events    []eventlog.Event
	appendErr error
}

func (f *fakeEventLog) Append(_ context.Context, event *eventlog.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeEventLog) QueryRecent(_ context.Context, eventType string, limit int) ([]eventlog.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []eventlog.Event
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].Type == eventType {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

func (f *fakeEventLog) CountSince(_ context.Context, eventType string, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, e := range f.events {
		if e.Type == eventType && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// snapshotWithTables builds a completed backup of the given rows, the
// shape the replicator would have stored.
func snapshotWithTables(t *testing.T, rows map[string][]rowstore.Row) *manifest.Snapshot {
	t.Helper()

	m := &manifest.BackupManifest{
		ID:          testBackupID,
		CreatedAt:   testCreatedAt,
		Kind:        manifest.KindManual,
		Status:      manifest.StatusCompleted,
		Environment: "production",
		Tables:      make(map[string]manifest.TableBackupResult),
	}
	raw := make(map[string]json.RawMessage, len(rows))
	for table, tableRows := range rows {
		data, err := json.Marshal(tableRows)
		require.NoError(t, err)
		raw[table] = data
		m.Tables[table] = manifest.TableBackupResult{
			Table:       table,
			Status:      manifest.TableCompleted,
			Rows:        int64(len(tableRows)),
			Bytes:       int64(len(data)),
			CompletedAt: testCreatedAt,
		}
	}
	m.TableCount = len(m.Tables)
	return &manifest.Snapshot{Manifest: m, Rows: raw}
}

// storeSnapshot plants an encoded snapshot in a region under its object key.
func storeSnapshot(t *testing.T, store *fakeObjStore, snap *manifest.Snapshot) {
	t.Helper()

	data, err := manifest.EncodeSnapshot(snap)
	require.NoError(t, err)
	key := manifest.ObjectKey(snap.Manifest.ID, snap.Manifest.CreatedAt)

	store.mu.Lock()
	defer store.mu.Unlock()
	store.objects[key] = fakeObject{data: data, checksum: manifest.Checksum(data)}
}
