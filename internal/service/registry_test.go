package service

import (
	"context"
	"errors"
	"testing"

	"github.com/arun279/notebook-sources/internal/domain"
)

func TestRegistrySubmitParse(t *testing.T) {
	client := newFakeClient()
	client.submitParseFn = func(sourceURL string) (string, error) {
		if sourceURL != "https://en.wikipedia.org/wiki/Go" {
			t.Errorf("unexpected source URL %q", sourceURL)
		}
		return "job-1", nil
	}
	r := NewRegistry(client, testLogger())

	job, err := r.SubmitParse(context.Background(), "https://en.wikipedia.org/wiki/Go")
	if err != nil {
		t.Fatalf("SubmitParse: %v", err)
	}
	if job.ID != "job-1" || job.Kind != domain.JobParse {
		t.Errorf("job = %+v, want id job-1 kind parse", job)
	}

	got, err := r.Get("job-1")
	if err != nil || got.SourceURL != "https://en.wikipedia.org/wiki/Go" {
		t.Errorf("Get(job-1) = %+v, %v", got, err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistrySubmitScrapeCopiesIDs(t *testing.T) {
	client := newFakeClient()
	client.submitScrapeFn = func([]string, bool) (string, error) { return "job-2", nil }
	r := NewRegistry(client, testLogger())

	ids := []string{"r1", "r2"}
	job, err := r.SubmitScrape(context.Background(), ids, true)
	if err != nil {
		t.Fatalf("SubmitScrape: %v", err)
	}

	// Mutating the caller's slice must not reach the tracked job.
	ids[0] = "mutated"
	got, _ := r.Get(job.ID)
	if got.RecordIDs[0] != "r1" {
		t.Errorf("RecordIDs[0] = %q, want r1", got.RecordIDs[0])
	}
}

func TestRegistrySubmitErrorNotTracked(t *testing.T) {
	client := newFakeClient()
	client.submitParseFn = func(string) (string, error) {
		return "", errors.New("boom")
	}
	r := NewRegistry(client, testLogger())

	if _, err := r.SubmitParse(context.Background(), "https://example.org"); err == nil {
		t.Fatal("expected error")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d after failed submit, want 0", r.Len())
	}
}

func TestRegistryForget(t *testing.T) {
	client := newFakeClient()
	client.submitParseFn = func(string) (string, error) { return "job-1", nil }
	r := NewRegistry(client, testLogger())
	r.SubmitParse(context.Background(), "https://example.org")

	r.Forget("job-1")
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if _, err := r.Get("job-1"); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("Get after Forget = %v, want ErrJobNotFound", err)
	}

	// Duplicate terminal signals make this path run twice.
	r.Forget("job-1")
	if r.Len() != 0 {
		t.Errorf("Len() = %d after duplicate Forget, want 0", r.Len())
	}
}

func TestRegistrySetProgressIgnoresUnknown(t *testing.T) {
	client := newFakeClient()
	client.submitScrapeFn = func([]string, bool) (string, error) { return "job-3", nil }
	r := NewRegistry(client, testLogger())
	r.SubmitScrape(context.Background(), []string{"r1"}, false)

	r.SetProgress("job-3", 42)
	got, _ := r.Get("job-3")
	if got.Progress != 42 {
		t.Errorf("Progress = %v, want 42", got.Progress)
	}

	// A late poll for a forgotten job must not resurrect it.
	r.Forget("job-3")
	r.SetProgress("job-3", 99)
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}
