package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/arun279/notebook-sources/internal/domain"
)

// CollectionService keeps the client's view of collections and records
// consistent with server state. It is a read-through cache: the UI renders
// from the cache immediately and every summary poll or targeted fetch
// overwrites it with fresh server truth, run through the Reconciler so the
// derived refreshing flag stays coherent.
type CollectionService struct {
	client     domain.SourceClient
	cache      domain.CacheStore
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewCollectionService creates a collection service.
func NewCollectionService(client domain.SourceClient, cache domain.CacheStore, reconciler *Reconciler, logger *slog.Logger) *CollectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollectionService{
		client:     client,
		cache:      cache,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Cached returns the last known collection summaries without touching the
// network, annotated with the current refreshing state.
func (s *CollectionService) Cached() []domain.Collection {
	collections, ok := s.cache.Collections()
	if !ok {
		return nil
	}
	annotated, _ := s.reconciler.Step(collections)
	return annotated
}

// CachedRecords returns the last known records of a collection, if any.
func (s *CollectionService) CachedRecords(collectionID string) ([]domain.Record, bool) {
	return s.cache.Records(collectionID)
}

// Sync fetches the collection summary snapshot, feeds it through the
// reconciliation engine, and caches the result. completed lists the
// collections whose signal-less refresh was detected as finished.
func (s *CollectionService) Sync(ctx context.Context) (collections []domain.Collection, completed []string, err error) {
	snapshot, err := s.client.ListCollections(ctx)
	if err != nil {
		s.logger.Error("failed to list collections", "error", err)
		return nil, nil, err
	}

	annotated, completed := s.reconciler.Step(snapshot)
	if err := s.cache.SaveCollections(annotated); err != nil {
		s.logger.Warn("failed to cache collections", "error", err)
	}
	return annotated, completed, nil
}

// Records fetches a collection's records from the server and refreshes the
// cache. Used both for initial display and for targeted re-fetch after a
// record_done push event.
func (s *CollectionService) Records(ctx context.Context, collectionID string) ([]domain.Record, error) {
	records, err := s.client.CollectionRecords(ctx, collectionID)
	if err != nil {
		s.logger.Error("failed to fetch records", "error", err, "collectionID", collectionID)
		return nil, err
	}
	if err := s.cache.SaveRecords(collectionID, records); err != nil {
		s.logger.Warn("failed to cache records", "error", err, "collectionID", collectionID)
	}
	return records, nil
}

// FindRecordCollection locates the cached collection owning a record id.
// Returns false for records the client has never seen; the caller then
// falls back to a broader re-fetch instead of dropping the event.
func (s *CollectionService) FindRecordCollection(recordID string) (string, bool) {
	collections, ok := s.cache.Collections()
	if !ok {
		return "", false
	}
	for _, c := range collections {
		records, ok := s.cache.Records(c.ID)
		if !ok {
			continue
		}
		for _, r := range records {
			if r.ID == recordID {
				return c.ID, true
			}
		}
	}
	return "", false
}

// ApplyProgress merges a progress snapshot's record statuses into the
// cached records of a collection. Overwriting with the latest server-side
// status makes duplicate or out-of-order application harmless.
func (s *CollectionService) ApplyProgress(collectionID string, items []domain.RecordProgress) []domain.Record {
	records, ok := s.cache.Records(collectionID)
	if !ok || len(items) == 0 {
		return records
	}

	statuses := make(map[string]domain.RecordStatus, len(items))
	for _, item := range items {
		statuses[item.RecordID] = item.Status
	}

	changed := false
	for i := range records {
		if status, ok := statuses[records[i].ID]; ok && records[i].Status != status {
			records[i].Status = status
			changed = true
		}
	}
	if changed {
		if err := s.cache.SaveRecords(collectionID, records); err != nil {
			s.logger.Warn("failed to cache records", "error", err, "collectionID", collectionID)
		}
	}
	return records
}

// Refresh requests a signal-less re-parse of a collection. The baseline is
// captured from the latest known snapshot at request time; a collection
// already refreshing is rejected so the original baseline survives. A
// transport error leaves both the baseline set and the cache untouched.
func (s *CollectionService) Refresh(ctx context.Context, collectionID string) error {
	if s.reconciler.Refreshing(collectionID) {
		return domain.ErrRefreshPending
	}

	current, ok := s.lookupCached(collectionID)
	if !ok {
		return domain.ErrCollectionNotFound
	}

	if err := s.client.RefreshCollection(ctx, collectionID); err != nil {
		return err
	}

	s.reconciler.Begin(current)
	return nil
}

// Rename sets a collection's display title and updates the cached summary.
func (s *CollectionService) Rename(ctx context.Context, collectionID, title string) (domain.Collection, error) {
	renamed, err := s.client.RenameCollection(ctx, collectionID, title)
	if err != nil {
		return domain.Collection{}, err
	}

	if collections, ok := s.cache.Collections(); ok {
		for i := range collections {
			if collections[i].ID == collectionID {
				collections[i].Title = renamed.Title
			}
		}
		if err := s.cache.SaveCollections(collections); err != nil {
			s.logger.Warn("failed to cache collections", "error", err)
		}
	}
	return renamed, nil
}

// Delete removes a collection server-side, drops its cache entries, and
// discards any refresh baseline it still held.
func (s *CollectionService) Delete(ctx context.Context, collectionID string) error {
	if err := s.client.DeleteCollection(ctx, collectionID); err != nil {
		return err
	}
	s.cache.DeleteCollection(collectionID)
	s.reconciler.Forget(collectionID)
	return nil
}

// Download saves a collection's scraped artifacts into dir and returns the
// written path. One-shot: nothing about it is tracked afterwards.
func (s *CollectionService) Download(ctx context.Context, collectionID, dir string) (string, error) {
	blob, name, err := s.client.DownloadCollection(ctx, collectionID)
	if err != nil {
		return "", err
	}
	return s.writeArtifact(dir, name, blob)
}

// DownloadRecords saves artifacts for an explicit record id set into dir.
func (s *CollectionService) DownloadRecords(ctx context.Context, recordIDs []string, dir string) (string, error) {
	blob, name, err := s.client.DownloadRecords(ctx, recordIDs)
	if err != nil {
		return "", err
	}
	return s.writeArtifact(dir, name, blob)
}

func (s *CollectionService) writeArtifact(dir, name string, blob []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, blob, 0644); err != nil {
		return "", err
	}
	s.logger.Info("saved artifacts", "path", path, "bytes", len(blob))
	return path, nil
}

func (s *CollectionService) lookupCached(collectionID string) (domain.Collection, bool) {
	collections, ok := s.cache.Collections()
	if !ok {
		return domain.Collection{}, false
	}
	for _, c := range collections {
		if c.ID == collectionID {
			return c, true
		}
	}
	return domain.Collection{}, false
}
