package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/arun279/notebook-sources/internal/domain"
)

// PollUpdate is one observation from a job's poll loop, delivered on the
// updates channel. Err carries unexpected transport errors for the UI to
// display; not-ready responses never surface here.
type PollUpdate struct {
	JobID   string
	Kind    domain.JobKind
	Percent float64
	Items   []domain.RecordProgress
	Records []domain.Record // Parse artifact, set when Done
	Done    bool
	Err     error
}

// Poller polls job progress at a fixed cadence until the job's terminal
// condition is observed. For a parse job that is artifact availability; a
// "not ready" probe answer is the normal keep-going case, not a failure.
// For a scrape job the poller is the fallback behind the push channel and
// converges when the reported percent reaches 100.
type Poller struct {
	client   domain.SourceClient
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a poller with the given cadence. A non-positive
// interval falls back to one second.
func NewPoller(client domain.SourceClient, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, interval: interval, logger: logger}
}

// Run polls until the job reaches its terminal condition or ctx is
// cancelled, sending every observation to updates. The channel is closed on
// return; cancellation discards any in-flight result without a state update.
func (p *Poller) Run(ctx context.Context, job domain.Job, updates chan<- PollUpdate) {
	defer close(updates)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		// Poll immediately on entry, then on every tick.
		done := p.pollOnce(ctx, job, updates)
		if done {
			return
		}

		select {
		case <-ctx.Done():
			p.logger.Debug("poller cancelled", "jobID", job.ID)
			return
		case <-ticker.C:
		}
	}
}

// pollOnce performs one progress fetch plus, for parse jobs, one artifact
// probe. Returns true once the job is terminal.
func (p *Poller) pollOnce(ctx context.Context, job domain.Job, updates chan<- PollUpdate) bool {
	snapshot, err := p.client.Progress(ctx, job.ID)
	switch {
	case err == nil:
		update := PollUpdate{
			JobID:   job.ID,
			Kind:    job.Kind,
			Percent: snapshot.Percent,
			Items:   snapshot.Items,
		}
		// A scrape job is terminal once the server reports full completion.
		if job.Kind == domain.JobScrape && snapshot.Percent >= 100 {
			update.Done = true
			p.send(ctx, updates, update)
			p.logger.Info("scrape job converged via polling", "jobID", job.ID)
			return true
		}
		p.send(ctx, updates, update)
	case errors.Is(err, domain.ErrNotReady):
		// The server has not registered the job yet. Expected; keep polling.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		p.send(ctx, updates, PollUpdate{JobID: job.ID, Kind: job.Kind, Err: err})
	}

	if job.Kind != domain.JobParse {
		return false
	}

	records, err := p.client.JobRecords(ctx, job.ID)
	switch {
	case err == nil:
		p.send(ctx, updates, PollUpdate{
			JobID:   job.ID,
			Kind:    job.Kind,
			Percent: 100,
			Records: records,
			Done:    true,
		})
		p.logger.Info("parse artifact available", "jobID", job.ID, "records", len(records))
		return true
	case errors.Is(err, domain.ErrNotReady):
		// Artifact not there yet; continue polling.
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		p.send(ctx, updates, PollUpdate{JobID: job.ID, Kind: job.Kind, Err: err})
		return false
	}
}

// send delivers an update unless the context is gone, in which case the
// result is discarded rather than blocking a departed consumer.
func (p *Poller) send(ctx context.Context, updates chan<- PollUpdate, u PollUpdate) {
	select {
	case updates <- u:
	case <-ctx.Done():
	}
}
