package search

import (
	"strings"

	"github.com/arun279/notebook-sources/internal/domain"
)

// Filter returns the records whose title, URL, or URL host contains the
// query as a case-insensitive substring. A pure projection over current
// record state: no lifecycle, recomputed on every call. An empty query
// matches everything.
func Filter(records []domain.Record, query string) []domain.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	var matched []domain.Record
	for _, r := range records {
		if matchRecord(r, query) {
			matched = append(matched, r)
		}
	}
	return matched
}

func matchRecord(r domain.Record, query string) bool {
	if strings.Contains(strings.ToLower(r.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(r.URL), query) {
		return true
	}
	return strings.Contains(r.Host(), query)
}

// ScrapedSubset returns the records with a scraped status, preserving
// order. Composed after Filter to derive "scraped within the filtered set".
func ScrapedSubset(records []domain.Record) []domain.Record {
	var scraped []domain.Record
	for _, r := range records {
		if r.Status == domain.StatusScraped {
			scraped = append(scraped, r)
		}
	}
	return scraped
}

// IDs projects records to their ids, preserving order.
func IDs(records []domain.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
