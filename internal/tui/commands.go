package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arun279/notebook-sources/internal/domain"
	"github.com/arun279/notebook-sources/internal/service"
)

// Command factories for async operations. Every factory runs off the event
// loop and re-enters it as a typed message, so model state is only ever
// mutated inside Update.

const requestTimeout = 30 * time.Second

// SyncCollectionsCmd fetches the collection summary snapshot and runs it
// through the reconciliation engine.
func SyncCollectionsCmd(svc *service.CollectionService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		collections, completed, err := svc.Sync(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "syncing collections"}
		}
		return CollectionsSyncedMsg{Collections: collections, Completed: completed}
	}
}

// LoadCachedCollectionsCmd serves the last cached snapshot for instant
// first paint; a real sync follows behind it.
func LoadCachedCollectionsCmd(svc *service.CollectionService) tea.Cmd {
	return func() tea.Msg {
		cached := svc.Cached()
		if cached == nil {
			return nil
		}
		return CollectionsSyncedMsg{Collections: cached, FromCache: true}
	}
}

// LoadRecordsCmd fetches a collection's records.
func LoadRecordsCmd(svc *service.CollectionService, collectionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		records, err := svc.Records(ctx, collectionID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading records"}
		}
		return RecordsLoadedMsg{CollectionID: collectionID, Records: records}
	}
}

// SubmitParseCmd submits a parse job for a source URL.
func SubmitParseCmd(registry *service.Registry, sourceURL string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		job, err := registry.SubmitParse(ctx, sourceURL)
		if err != nil {
			return ErrMsg{Err: err, Context: "submitting parse"}
		}
		return ParseSubmittedMsg{Job: job}
	}
}

// SubmitScrapeCmd submits a scrape job for the selected records.
func SubmitScrapeCmd(registry *service.Registry, recordIDs []string, aggressive bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		job, err := registry.SubmitScrape(ctx, recordIDs, aggressive)
		if err != nil {
			return ErrMsg{Err: err, Context: "submitting scrape"}
		}
		return ScrapeSubmittedMsg{Job: job}
	}
}

// RefreshCmd requests a signal-less collection refresh.
func RefreshCmd(svc *service.CollectionService, collectionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := svc.Refresh(ctx, collectionID); err != nil {
			return ErrMsg{Err: err, Context: "refreshing collection"}
		}
		return RefreshRequestedMsg{CollectionID: collectionID}
	}
}

// RenameCmd renames a collection.
func RenameCmd(svc *service.CollectionService, collectionID, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		renamed, err := svc.Rename(ctx, collectionID, title)
		if err != nil {
			return ErrMsg{Err: err, Context: "renaming collection"}
		}
		return RenamedMsg{Collection: renamed}
	}
}

// DeleteCmd deletes a collection.
func DeleteCmd(svc *service.CollectionService, collectionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := svc.Delete(ctx, collectionID); err != nil {
			return ErrMsg{Err: err, Context: "deleting collection"}
		}
		return DeletedMsg{CollectionID: collectionID}
	}
}

// DownloadCmd saves a collection's scraped artifacts to the download dir.
func DownloadCmd(svc *service.CollectionService, collectionID, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		path, err := svc.Download(ctx, collectionID, dir)
		if err != nil {
			return ErrMsg{Err: err, Context: "downloading artifacts"}
		}
		return DownloadedMsg{Path: path}
	}
}

// DownloadRecordsCmd saves artifacts for an explicit record id set.
func DownloadRecordsCmd(svc *service.CollectionService, recordIDs []string, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		path, err := svc.DownloadRecords(ctx, recordIDs, dir)
		if err != nil {
			return ErrMsg{Err: err, Context: "downloading artifacts"}
		}
		return DownloadedMsg{Path: path}
	}
}

// listenPollCmd waits for the next observation from a job's poll loop.
func listenPollCmd(jobID string, updates <-chan service.PollUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return PollFinishedMsg{JobID: jobID}
		}
		return PollUpdateMsg{Update: update}
	}
}

// openPushCmd opens the push channel for a scrape job. Failure to open is
// absorbed: the poller is already running as the channel of record.
func openPushCmd(client domain.SourceClient, jobID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		stream, err := client.OpenProgress(ctx, jobID)
		if err != nil {
			return PushClosedMsg{JobID: jobID}
		}
		return pushOpenedMsg{JobID: jobID, Stream: stream}
	}
}

// pushOpenedMsg hands the opened stream back to the model, which owns its
// lifecycle from here.
type pushOpenedMsg struct {
	JobID  string
	Stream domain.ProgressStream
}

// listenPushCmd waits for the next push event.
func listenPushCmd(jobID string, stream domain.ProgressStream) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-stream.Events()
		if !ok {
			return PushClosedMsg{JobID: jobID}
		}
		return PushEventMsg{JobID: jobID, Event: event}
	}
}

// summaryTickCmd schedules the next periodic summary poll.
func summaryTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return summaryTickMsg{}
	})
}

// spinnerTickCmd drives the inline spinner animation.
func spinnerTickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}
