package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/arun279/notebook-sources/internal/domain"
)

// Registry is the authoritative local record of outstanding jobs. Job ids
// come from the server boundary on submission; entries live until the
// caller observes a terminal condition and forgets them. Each session owns
// its own Registry instance.
type Registry struct {
	client domain.SourceClient
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*domain.Job
}

// NewRegistry creates an empty job registry.
func NewRegistry(client domain.SourceClient, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		client: client,
		logger: logger,
		jobs:   make(map[string]*domain.Job),
	}
}

// SubmitParse asks the server to parse a source URL and records the
// resulting job. The parse artifact is polled for separately; the caller
// forgets the job once the parsed collection is retrievable.
func (r *Registry) SubmitParse(ctx context.Context, sourceURL string) (domain.Job, error) {
	jobID, err := r.client.SubmitParse(ctx, sourceURL)
	if err != nil {
		return domain.Job{}, err
	}

	job := domain.Job{ID: jobID, Kind: domain.JobParse, SourceURL: sourceURL}
	r.track(job)
	return job, nil
}

// SubmitScrape asks the server to scrape the given records and records the
// resulting job. Its terminal condition arrives on the push channel and/or
// through polling convergence.
func (r *Registry) SubmitScrape(ctx context.Context, recordIDs []string, aggressive bool) (domain.Job, error) {
	jobID, err := r.client.SubmitScrape(ctx, recordIDs, aggressive)
	if err != nil {
		return domain.Job{}, err
	}

	ids := make([]string, len(recordIDs))
	copy(ids, recordIDs)
	job := domain.Job{ID: jobID, Kind: domain.JobScrape, RecordIDs: ids}
	r.track(job)
	return job, nil
}

func (r *Registry) track(job domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j := job
	r.jobs[job.ID] = &j
	r.logger.Info("tracking job", "jobID", job.ID, "kind", job.Kind.String())
}

// Forget removes a job. Forgetting an unknown id is a no-op, which keeps
// duplicate terminal signals (push event plus poll convergence) harmless.
func (r *Registry) Forget(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[jobID]; ok {
		delete(r.jobs, jobID)
		r.logger.Info("forgot job", "jobID", jobID)
	}
}

// Get returns a snapshot of a tracked job, or ErrJobNotFound for ids that
// were never tracked or already forgotten.
func (r *Registry) Get(jobID string) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return *j, nil
}

// SetProgress records the latest displayed percent for a job. Unknown ids
// are ignored: a late poll result for a forgotten job must not resurrect it.
func (r *Registry) SetProgress(jobID string, percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[jobID]; ok {
		j.Progress = percent
	}
}

// Jobs returns snapshots of all outstanding jobs.
func (r *Registry) Jobs() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, *j)
	}
	return jobs
}

// Len returns the number of outstanding jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
