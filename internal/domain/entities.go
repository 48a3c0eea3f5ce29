package domain

import (
	"net/url"
	"strings"
)

// RecordStatus tracks the scrape lifecycle of a single record.
// The zero value is not valid; records always arrive from the server
// with an explicit status.
type RecordStatus string

const (
	StatusPending   RecordStatus = "pending"
	StatusScraping  RecordStatus = "scraping"
	StatusScraped   RecordStatus = "scraped"
	StatusFailed    RecordStatus = "failed"
	StatusPaywalled RecordStatus = "paywalled"
)

// Terminal reports whether the status is an end state. A terminal record
// never transitions again except by an explicit user reset on the server.
func (s RecordStatus) Terminal() bool {
	switch s {
	case StatusScraped, StatusFailed, StatusPaywalled:
		return true
	}
	return false
}

// String returns the wire representation of the status.
func (s RecordStatus) String() string { return string(s) }

// Record is one extracted reference with its own scrape lifecycle.
// The ID is assigned by the server and stable across collection refreshes.
type Record struct {
	ID           string       // Server-assigned opaque identifier
	CollectionID string       // Owning collection (empty until known)
	Title        string       // Display title
	URL          string       // Source reference URL
	PubDate      string       // Publication date, ISO date or empty
	AccessDate   string       // Access date, ISO date or empty
	Suspected    bool         // Suspected paywall flag
	Status       RecordStatus // Scrape lifecycle status
}

// Host returns the lowercased hostname of the record URL, or "" when the
// URL does not parse. Used by the textual filter.
func (r Record) Host() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// DisplayTitle returns the title, falling back to the URL for untitled records.
func (r Record) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.URL
}

// Collection is a parsed source document and the aggregate state of its
// records. The server owns it; the client holds a read-through cache.
// Refreshing is client-local derived state (a refresh baseline exists for
// this collection) and is never supplied by the server.
type Collection struct {
	ID               string // Server-assigned opaque identifier
	URL              string // Source document URL
	Title            string // Optional display title
	TotalRecords     int    // Records extracted at last parse
	CompletedRecords int    // Records with a terminal scrape status
	Refreshing       bool   // In-flight signal-less refresh (client-local)
}

// PercentComplete derives the scrape completion percentage in [0,100].
func (c Collection) PercentComplete() float64 {
	if c.TotalRecords == 0 {
		return 0
	}
	return float64(c.CompletedRecords) / float64(c.TotalRecords) * 100
}

// DisplayTitle returns the title, falling back to the source URL host.
func (c Collection) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	if u, err := url.Parse(c.URL); err == nil && u.Hostname() != "" {
		return u.Hostname() + u.Path
	}
	return c.URL
}

// JobKind distinguishes the two asynchronous server-side work units.
type JobKind int

const (
	JobParse JobKind = iota
	JobScrape
)

// String returns a human-readable kind name.
func (k JobKind) String() string {
	switch k {
	case JobParse:
		return "parse"
	case JobScrape:
		return "scrape"
	default:
		return "unknown"
	}
}

// Job is a transient, client-observed handle on a server-side unit of work.
// Created on submission, discarded once its terminal condition is observed:
// artifact availability for parse, a job_complete event or channel closure
// plus converged polling for scrape.
type Job struct {
	ID        string   // Server-assigned opaque identifier
	Kind      JobKind  // parse or scrape
	SourceURL string   // Parse target (empty for scrape jobs)
	RecordIDs []string // Scrape targets (empty for parse jobs)
	Progress  float64  // Last displayed percent in [0,100]
}

// RecordProgress is one record's status as reported by a progress poll.
type RecordProgress struct {
	RecordID string
	Status   RecordStatus
}

// ProgressSnapshot is the result of a single progress poll for a job.
// Percent is displayed as-is; the client imposes no monotonicity.
type ProgressSnapshot struct {
	Percent float64
	Items   []RecordProgress
}
