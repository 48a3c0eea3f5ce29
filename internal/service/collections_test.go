package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/arun279/notebook-sources/internal/domain"
)

func newCollectionFixture(t *testing.T) (*CollectionService, *fakeClient, *fakeCache, *Reconciler) {
	t.Helper()
	client := newFakeClient()
	cache := newFakeCache()
	reconciler := NewReconciler(testLogger())
	svc := NewCollectionService(client, cache, reconciler, testLogger())
	return svc, client, cache, reconciler
}

func TestSyncAnnotatesAndCaches(t *testing.T) {
	svc, client, cache, reconciler := newCollectionFixture(t)
	client.listCollectionsFn = func() ([]domain.Collection, error) {
		return []domain.Collection{col("p1", 10, 3), col("p2", 4, 4)}, nil
	}
	reconciler.Begin(col("p1", 10, 3))

	collections, completed, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("completed = %v, want none", completed)
	}
	if !collections[0].Refreshing || collections[1].Refreshing {
		t.Errorf("refreshing flags = %v/%v, want true/false",
			collections[0].Refreshing, collections[1].Refreshing)
	}

	cached, ok := cache.Collections()
	if !ok || len(cached) != 2 {
		t.Fatalf("cache not populated: %v %v", cached, ok)
	}
}

func TestSyncErrorLeavesCache(t *testing.T) {
	svc, client, cache, _ := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 10, 3)})
	client.listCollectionsFn = func() ([]domain.Collection, error) {
		return nil, domain.ErrServerOffline
	}

	if _, _, err := svc.Sync(context.Background()); !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("err = %v, want ErrServerOffline", err)
	}

	cached, _ := cache.Collections()
	if len(cached) != 1 {
		t.Error("failed sync must not clobber the cached snapshot")
	}
}

func TestRefreshCapturesBaseline(t *testing.T) {
	svc, client, cache, reconciler := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 10, 3)})

	if err := svc.Refresh(context.Background(), "p1"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if client.callCount("RefreshCollection") != 1 {
		t.Errorf("RefreshCollection called %d times, want 1", client.callCount("RefreshCollection"))
	}

	base, ok := reconciler.BaselineFor("p1")
	if !ok || base.Total != 10 || base.Completed != 3 {
		t.Errorf("baseline = %+v %v, want {10 3}", base, ok)
	}
}

func TestRefreshRejectedWhilePending(t *testing.T) {
	svc, client, cache, _ := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 10, 3)})

	if err := svc.Refresh(context.Background(), "p1"); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if err := svc.Refresh(context.Background(), "p1"); !errors.Is(err, domain.ErrRefreshPending) {
		t.Fatalf("second Refresh err = %v, want ErrRefreshPending", err)
	}

	// The rejected re-issue never reaches the server.
	if client.callCount("RefreshCollection") != 1 {
		t.Errorf("RefreshCollection called %d times, want 1", client.callCount("RefreshCollection"))
	}
}

func TestRefreshUnknownCollection(t *testing.T) {
	svc, _, _, _ := newCollectionFixture(t)
	if err := svc.Refresh(context.Background(), "nope"); !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("err = %v, want ErrCollectionNotFound", err)
	}
}

func TestRefreshClientErrorLeavesNoBaseline(t *testing.T) {
	svc, client, cache, reconciler := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 10, 3)})
	client.refreshFn = func(string) error { return domain.ErrServerOffline }

	if err := svc.Refresh(context.Background(), "p1"); !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("err = %v, want ErrServerOffline", err)
	}
	if reconciler.Refreshing("p1") {
		t.Error("a failed request must not capture a baseline")
	}
}

func TestApplyProgressIdempotent(t *testing.T) {
	svc, _, cache, _ := newCollectionFixture(t)
	cache.SaveRecords("p1", []domain.Record{
		{ID: "r1", Status: domain.StatusPending},
		{ID: "r2", Status: domain.StatusPending},
	})

	items := []domain.RecordProgress{
		{RecordID: "r1", Status: domain.StatusScraped},
		{RecordID: "r9", Status: domain.StatusScraped}, // not in this collection
	}

	merged := svc.ApplyProgress("p1", items)
	if merged[0].Status != domain.StatusScraped {
		t.Errorf("r1 status = %v, want scraped", merged[0].Status)
	}
	if merged[1].Status != domain.StatusPending {
		t.Errorf("r2 status = %v, want pending", merged[1].Status)
	}

	// Applying the identical snapshot again changes nothing.
	again := svc.ApplyProgress("p1", items)
	for i := range merged {
		if again[i].Status != merged[i].Status {
			t.Errorf("record %d drifted on replay: %v vs %v", i, again[i].Status, merged[i].Status)
		}
	}

	// The merge persists.
	records, _ := cache.Records("p1")
	if records[0].Status != domain.StatusScraped {
		t.Error("merged status not cached")
	}
}

func TestFindRecordCollection(t *testing.T) {
	svc, _, cache, _ := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 1, 0), col("p2", 1, 0)})
	cache.SaveRecords("p1", []domain.Record{{ID: "r1"}})
	cache.SaveRecords("p2", []domain.Record{{ID: "r2"}})

	if id, ok := svc.FindRecordCollection("r2"); !ok || id != "p2" {
		t.Errorf("FindRecordCollection(r2) = %q, %v", id, ok)
	}
	if _, ok := svc.FindRecordCollection("r9"); ok {
		t.Error("unknown record must report not found")
	}
}

func TestRenameUpdatesCache(t *testing.T) {
	svc, client, cache, _ := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{{ID: "p1", Title: "Old"}})
	client.renameFn = func(collectionID, title string) (domain.Collection, error) {
		return domain.Collection{ID: collectionID, Title: title}, nil
	}

	renamed, err := svc.Rename(context.Background(), "p1", "New")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if renamed.Title != "New" {
		t.Errorf("Title = %q, want New", renamed.Title)
	}

	cached, _ := cache.Collections()
	if cached[0].Title != "New" {
		t.Errorf("cached title = %q, want New", cached[0].Title)
	}
}

func TestDeleteDropsCacheAndBaseline(t *testing.T) {
	svc, _, cache, reconciler := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 10, 3), col("p2", 1, 1)})
	cache.SaveRecords("p1", []domain.Record{{ID: "r1"}})
	reconciler.Begin(col("p1", 10, 3))

	if err := svc.Delete(context.Background(), "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok := cache.Records("p1"); ok {
		t.Error("records should be dropped")
	}
	cached, _ := cache.Collections()
	if len(cached) != 1 || cached[0].ID != "p2" {
		t.Errorf("cached collections = %v, want only p2", cached)
	}
	if reconciler.Refreshing("p1") {
		t.Error("baseline should be dropped with the collection")
	}
}

func TestDeleteClientErrorKeepsCache(t *testing.T) {
	svc, client, cache, _ := newCollectionFixture(t)
	cache.SaveCollections([]domain.Collection{col("p1", 1, 0)})
	client.deleteFn = func(string) error { return domain.ErrServerOffline }

	if err := svc.Delete(context.Background(), "p1"); err == nil {
		t.Fatal("expected error")
	}
	if cached, _ := cache.Collections(); len(cached) != 1 {
		t.Error("failed delete must keep the cache entry")
	}
}

func TestDownloadWritesArtifact(t *testing.T) {
	svc, client, _, _ := newCollectionFixture(t)
	client.downloadFn = func() ([]byte, string, error) {
		return []byte("%PDF-1.4"), "go_wiki.pdf", nil
	}

	dir := t.TempDir()
	path, err := svc.Download(context.Background(), "p1", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(dir, "go_wiki.pdf") {
		t.Errorf("path = %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("artifact content = %q", data)
	}
}
