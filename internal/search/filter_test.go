package search

import (
	"testing"

	"github.com/arun279/notebook-sources/internal/domain"
)

var sampleRecords = []domain.Record{
	{ID: "r1", Title: "The Go Programming Language", URL: "https://go.dev/ref/spec", Status: domain.StatusScraped},
	{ID: "r2", Title: "Concurrency is not parallelism", URL: "https://blog.golang.org/waza-talk", Status: domain.StatusPending},
	{ID: "r3", Title: "Paywalled piece", URL: "https://example.com/article", Status: domain.StatusPaywalled},
	{ID: "r4", Title: "", URL: "https://Go.Dev/doc/faq", Status: domain.StatusScraped},
}

func ids(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func assertIDs(t *testing.T, got []domain.Record, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	assertIDs(t, Filter(sampleRecords, ""), "r1", "r2", "r3", "r4")
	assertIDs(t, Filter(sampleRecords, "   "), "r1", "r2", "r3", "r4")
}

func TestFilterTitleSubstring(t *testing.T) {
	assertIDs(t, Filter(sampleRecords, "parallel"), "r2")
	// Case-insensitive both ways.
	assertIDs(t, Filter(sampleRecords, "PAYWALLED"), "r3")
}

func TestFilterURLAndHost(t *testing.T) {
	// Matches URL path text.
	assertIDs(t, Filter(sampleRecords, "waza"), "r2")
	// Matches the host even when the URL's casing differs.
	assertIDs(t, Filter(sampleRecords, "go.dev"), "r1", "r4")
}

func TestFilterNoMatches(t *testing.T) {
	if got := Filter(sampleRecords, "zzzz"); len(got) != 0 {
		t.Errorf("got %v, want none", ids(got))
	}
}

func TestScrapedSubset(t *testing.T) {
	assertIDs(t, ScrapedSubset(sampleRecords), "r1", "r4")

	// Composes with Filter: scraped within the filtered set.
	assertIDs(t, ScrapedSubset(Filter(sampleRecords, "spec")), "r1")
}

func TestIDs(t *testing.T) {
	got := IDs(sampleRecords[:2])
	if len(got) != 2 || got[0] != "r1" || got[1] != "r2" {
		t.Errorf("IDs = %v", got)
	}
}
