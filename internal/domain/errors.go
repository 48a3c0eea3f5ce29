package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotReady indicates an artifact was requested before its job
	// completed. Expected and non-fatal: the caller keeps polling.
	ErrNotReady = errors.New("artifact not ready yet")

	// ErrServerOffline indicates the scraper server is unreachable
	ErrServerOffline = errors.New("scraper server is unreachable")

	// ErrJobNotFound indicates the job id is unknown locally
	ErrJobNotFound = errors.New("job not found")

	// ErrCollectionNotFound indicates the requested collection does not exist
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrRefreshPending indicates a refresh was requested for a collection
	// that already has one in flight; the first baseline is kept untouched.
	ErrRefreshPending = errors.New("refresh already in progress")

	// ErrNoArtifacts indicates a download was requested but no scraped
	// artifacts exist for the given ids.
	ErrNoArtifacts = errors.New("no artifacts available")
)
