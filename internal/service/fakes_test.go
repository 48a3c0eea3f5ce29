package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/arun279/notebook-sources/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClient implements domain.SourceClient with overridable behavior per
// method. Unset methods return zero values.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	submitParseFn       func(sourceURL string) (string, error)
	submitScrapeFn      func(recordIDs []string, aggressive bool) (string, error)
	progressFn          func(jobID string) (domain.ProgressSnapshot, error)
	jobRecordsFn        func(jobID string) ([]domain.Record, error)
	listCollectionsFn   func() ([]domain.Collection, error)
	collectionRecordsFn func(collectionID string) ([]domain.Record, error)
	renameFn            func(collectionID, title string) (domain.Collection, error)
	deleteFn            func(collectionID string) error
	refreshFn           func(collectionID string) error
	downloadFn          func() ([]byte, string, error)
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

// count records an invocation and returns its 1-based sequence number.
func (f *fakeClient) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.calls[method]
}

func (f *fakeClient) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeClient) SubmitParse(_ context.Context, sourceURL string) (string, error) {
	f.count("SubmitParse")
	if f.submitParseFn != nil {
		return f.submitParseFn(sourceURL)
	}
	return "", nil
}

func (f *fakeClient) SubmitScrape(_ context.Context, recordIDs []string, aggressive bool) (string, error) {
	f.count("SubmitScrape")
	if f.submitScrapeFn != nil {
		return f.submitScrapeFn(recordIDs, aggressive)
	}
	return "", nil
}

func (f *fakeClient) Progress(_ context.Context, jobID string) (domain.ProgressSnapshot, error) {
	f.count("Progress")
	if f.progressFn != nil {
		return f.progressFn(jobID)
	}
	return domain.ProgressSnapshot{}, nil
}

func (f *fakeClient) JobRecords(_ context.Context, jobID string) ([]domain.Record, error) {
	f.count("JobRecords")
	if f.jobRecordsFn != nil {
		return f.jobRecordsFn(jobID)
	}
	return nil, nil
}

func (f *fakeClient) ListCollections(_ context.Context) ([]domain.Collection, error) {
	f.count("ListCollections")
	if f.listCollectionsFn != nil {
		return f.listCollectionsFn()
	}
	return nil, nil
}

func (f *fakeClient) CollectionRecords(_ context.Context, collectionID string) ([]domain.Record, error) {
	f.count("CollectionRecords")
	if f.collectionRecordsFn != nil {
		return f.collectionRecordsFn(collectionID)
	}
	return nil, nil
}

func (f *fakeClient) RenameCollection(_ context.Context, collectionID, title string) (domain.Collection, error) {
	f.count("RenameCollection")
	if f.renameFn != nil {
		return f.renameFn(collectionID, title)
	}
	return domain.Collection{}, nil
}

func (f *fakeClient) DeleteCollection(_ context.Context, collectionID string) error {
	f.count("DeleteCollection")
	if f.deleteFn != nil {
		return f.deleteFn(collectionID)
	}
	return nil
}

func (f *fakeClient) RefreshCollection(_ context.Context, collectionID string) error {
	f.count("RefreshCollection")
	if f.refreshFn != nil {
		return f.refreshFn(collectionID)
	}
	return nil
}

func (f *fakeClient) DownloadCollection(_ context.Context, _ string) ([]byte, string, error) {
	f.count("DownloadCollection")
	if f.downloadFn != nil {
		return f.downloadFn()
	}
	return nil, "", nil
}

func (f *fakeClient) DownloadRecords(_ context.Context, _ []string) ([]byte, string, error) {
	f.count("DownloadRecords")
	if f.downloadFn != nil {
		return f.downloadFn()
	}
	return nil, "", nil
}

func (f *fakeClient) OpenProgress(_ context.Context, _ string) (domain.ProgressStream, error) {
	f.count("OpenProgress")
	return nil, domain.ErrServerOffline
}

// fakeCache is an in-memory domain.CacheStore.
type fakeCache struct {
	mu          sync.Mutex
	collections []domain.Collection
	hasCols     bool
	records     map[string][]domain.Record
}

func newFakeCache() *fakeCache {
	return &fakeCache{records: make(map[string][]domain.Record)}
}

func (c *fakeCache) Collections() ([]domain.Collection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCols {
		return nil, false
	}
	out := make([]domain.Collection, len(c.collections))
	copy(out, c.collections)
	return out, true
}

func (c *fakeCache) SaveCollections(collections []domain.Collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collections = make([]domain.Collection, len(collections))
	copy(c.collections, collections)
	c.hasCols = true
	return nil
}

func (c *fakeCache) Records(collectionID string) ([]domain.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, ok := c.records[collectionID]
	if !ok {
		return nil, false
	}
	out := make([]domain.Record, len(records))
	copy(out, records)
	return out, true
}

func (c *fakeCache) SaveRecords(collectionID string, records []domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Record, len(records))
	copy(out, records)
	c.records[collectionID] = out
	return nil
}

func (c *fakeCache) DeleteCollection(collectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, collectionID)
	kept := c.collections[:0]
	for _, col := range c.collections {
		if col.ID != collectionID {
			kept = append(kept, col)
		}
	}
	c.collections = kept
}

func (c *fakeCache) Close() error { return nil }
