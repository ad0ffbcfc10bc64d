package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drsnap/internal/eventlog"
	"drsnap/internal/objstore"
	"drsnap/internal/rowstore"
)

type fakeRowStore struct {
	mu     sync.Mutex
	tables map[string][]rowstore.Row
	failOn map[string]error
}

func newFakeRowStore() *fakeRowStore {
	return &fakeRowStore{
		tables: make(map[string][]rowstore.Row),
		failOn: make(map[string]error),
	}
}

func (f *fakeRowStore) Ping(context.Context) error {
	return nil
}

func (f *fakeRowStore) ReadAllRows(_ context.Context, table string) ([]rowstore.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[table]; err != nil {
		return nil, err
	}
	return f.tables[table], nil
}

func (f *fakeRowStore) DeleteAllRows(_ context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[table]; err != nil {
		return err
	}
	f.tables[table] = nil
	return nil
}

func (f *fakeRowStore) InsertRows(_ context.Context, table string, rows []rowstore.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[table]; err != nil {
		return err
	}
	f.tables[table] = append(f.tables[table], rows...)
	return nil
}

type fakeObject struct {
	data         []byte
	checksum     string
	lastModified time.Time
}

type fakeObjStore struct {
	mu       sync.Mutex
	region   string
	objects  map[string]fakeObject
	putErr   error
	listErr  error
	putCalls int
	removed  []string
}

func newFakeObjStore(region string) *fakeObjStore {
	return &fakeObjStore{
		region:  region,
		objects: make(map[string]fakeObject),
	}
}

func (f *fakeObjStore) seed(key string, age time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{
		data:         []byte("{}"),
		lastModified: time.Now().Add(-age),
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
	f.objects[key] = fakeObject{data: data, checksum: checksum, lastModified: time.Now()}
	return fmt.Sprintf("s3://%s/%s", f.region, key), nil
}

func (f *fakeObjStore) Get(_ context.Context, key string) ([]byte, *objstore.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("no such key: %s", key)
	}
	return obj.data, &objstore.Metadata{Size: int64(len(obj.data)), Checksum: obj.checksum}, nil
}

func (f *fakeObjStore) List(_ context.Context, prefix string) ([]objstore.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var infos []objstore.ObjectInfo
	for key, obj := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			infos = append(infos, objstore.ObjectInfo{
				Key:          key,
				Size:         int64(len(obj.data)),
				LastModified: obj.lastModified,
			})
		}
	}
	return infos, nil
}

func (f *fakeObjStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("no such key: %s", key)
	}
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeObjStore) VerifyAccess(context.Context) error {
	return nil
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
