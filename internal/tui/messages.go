package tui

import (
	"github.com/arun279/notebook-sources/internal/domain"
	"github.com/arun279/notebook-sources/internal/service"
)

// Message types for the TUI

// ErrMsg represents an unexpected transport/server error surfaced for
// display. Expected conditions (not-ready, channel drop) never produce one.
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CollectionsSyncedMsg carries a reconciled summary snapshot.
type CollectionsSyncedMsg struct {
	Collections []domain.Collection
	Completed   []string // Collections whose signal-less refresh finished
	FromCache   bool
}

// RecordsLoadedMsg signals that a collection's records have been fetched.
type RecordsLoadedMsg struct {
	CollectionID string
	Records      []domain.Record
}

// ParseSubmittedMsg signals that a parse job was accepted by the server.
type ParseSubmittedMsg struct {
	Job domain.Job
}

// ScrapeSubmittedMsg signals that a scrape job was accepted by the server.
type ScrapeSubmittedMsg struct {
	Job domain.Job
}

// PollUpdateMsg carries one observation from a job's poll loop.
type PollUpdateMsg struct {
	Update service.PollUpdate
}

// PollFinishedMsg signals that a job's poll loop closed its channel.
type PollFinishedMsg struct {
	JobID string
}

// PushEventMsg carries one push-channel event for a scrape job.
type PushEventMsg struct {
	JobID string
	Event domain.PushEvent
}

// PushClosedMsg signals the push channel ended without job_complete; the
// poller remains the channel of record.
type PushClosedMsg struct {
	JobID string
}

// RefreshRequestedMsg signals a refresh was accepted and a baseline captured.
type RefreshRequestedMsg struct {
	CollectionID string
}

// RenamedMsg signals a collection rename completed.
type RenamedMsg struct {
	Collection domain.Collection
}

// DeletedMsg signals a collection delete completed.
type DeletedMsg struct {
	CollectionID string
}

// DownloadedMsg signals artifacts were saved locally.
type DownloadedMsg struct {
	Path string
}

// summaryTickMsg drives the periodic collection summary poll.
type summaryTickMsg struct{}

// spinnerTickMsg drives the inline spinner animation.
type spinnerTickMsg struct{}
