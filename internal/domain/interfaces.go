package domain

import "context"

// SourceClient is the boundary to the scraper server. The concrete
// implementation lives in internal/scraperd; services depend on this
// interface so tests can substitute fakes.
type SourceClient interface {
	// SubmitParse begins asynchronous parsing of a source URL and returns
	// the server-assigned job id.
	SubmitParse(ctx context.Context, sourceURL string) (string, error)

	// SubmitScrape begins scraping the given records and returns the job id.
	SubmitScrape(ctx context.Context, recordIDs []string, aggressive bool) (string, error)

	// Progress returns the completion snapshot for a job. Returns
	// ErrNotReady while the server does not know the job yet.
	Progress(ctx context.Context, jobID string) (ProgressSnapshot, error)

	// JobRecords returns the records produced by a parse job. Returns
	// ErrNotReady until the parse artifact exists.
	JobRecords(ctx context.Context, jobID string) ([]Record, error)

	// ListCollections returns summaries of all collections. Refreshing is
	// never populated here; it is derived client-side.
	ListCollections(ctx context.Context) ([]Collection, error)

	// CollectionRecords returns the current records of a known collection.
	CollectionRecords(ctx context.Context, collectionID string) ([]Record, error)

	// RenameCollection sets a collection's display title.
	RenameCollection(ctx context.Context, collectionID, title string) (Collection, error)

	// DeleteCollection removes a collection and its records.
	DeleteCollection(ctx context.Context, collectionID string) error

	// RefreshCollection re-parses a collection's source. Fire-and-forget:
	// the server returns immediately and emits no completion signal.
	RefreshCollection(ctx context.Context, collectionID string) error

	// DownloadCollection fetches the archived artifacts of a collection's
	// scraped records as a single blob (PDF or ZIP) plus a file name.
	DownloadCollection(ctx context.Context, collectionID string) ([]byte, string, error)

	// DownloadRecords fetches artifacts for an explicit id set.
	DownloadRecords(ctx context.Context, recordIDs []string) ([]byte, string, error)

	// OpenProgress opens the push channel for a scrape job. Close is
	// client-initiated; a drop without job_complete is not an error.
	OpenProgress(ctx context.Context, jobID string) (ProgressStream, error)
}

// ProgressStream is a live push channel for one scrape job.
type ProgressStream interface {
	// Events returns the event channel. It is closed when the stream ends,
	// whether by job_complete, Close, or transport failure.
	Events() <-chan PushEvent

	// Close tears the stream down. Safe to call more than once.
	Close() error
}

// CacheStore persists the client's read-through cache of server state so the
// UI can render instantly and reconcile once fresh snapshots arrive.
type CacheStore interface {
	Collections() ([]Collection, bool)
	SaveCollections([]Collection) error
	Records(collectionID string) ([]Record, bool)
	SaveRecords(collectionID string, records []Record) error
	DeleteCollection(collectionID string)
	Close() error
}
