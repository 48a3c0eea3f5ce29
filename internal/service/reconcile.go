package service

import (
	"log/slog"
	"sync"

	"github.com/arun279/notebook-sources/internal/domain"
)

// Baseline is the (total, completed) count pair captured when a
// signal-less refresh was requested. A collection is refreshing exactly
// while its baseline exists; the baseline is discarded the instant a later
// snapshot differs from it.
type Baseline struct {
	Total     int
	Completed int
}

// Reconciler detects completion of actions that mutate server state
// without any terminal signal. A refresh returns immediately; only the
// periodic collection summary poll reflects its effect, so completion is
// inferred by diffing polled snapshots against the captured baseline.
//
// Every step is an idempotent merge: applying the same snapshot twice
// yields the same state as applying it once. There is deliberately no
// timeout - a refresh whose counts never change keeps its baseline.
type Reconciler struct {
	logger *slog.Logger

	mu        sync.Mutex
	baselines map[string]Baseline
}

// NewReconciler creates an engine with no baselines.
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		logger:    logger,
		baselines: make(map[string]Baseline),
	}
}

// Begin captures a baseline for a collection at refresh-request time.
// Returns false without touching the existing baseline when one is already
// present: a refresh reissued mid-reconciliation must not clobber the
// original reference point.
func (e *Reconciler) Begin(c domain.Collection) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.baselines[c.ID]; exists {
		return false
	}
	e.baselines[c.ID] = Baseline{Total: c.TotalRecords, Completed: c.CompletedRecords}
	e.logger.Info("captured refresh baseline",
		"collectionID", c.ID, "total", c.TotalRecords, "completed", c.CompletedRecords)
	return true
}

// Refreshing reports whether a baseline exists for the collection.
func (e *Reconciler) Refreshing(collectionID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.baselines[collectionID]
	return ok
}

// Forget drops a collection's baseline, used when the collection itself is
// removed. Unknown ids are a no-op.
func (e *Reconciler) Forget(collectionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.baselines, collectionID)
}

// Step consumes one polled summary snapshot. For every collection with a
// baseline it compares the new counts: any difference means the refresh
// landed, so the baseline is discarded. Matching counts keep the baseline,
// however many snapshots that takes. The returned slice carries the
// Refreshing flag derived from surviving baselines; completed lists the
// collections whose refresh was detected as finished in this step.
func (e *Reconciler) Step(snapshot []domain.Collection) (annotated []domain.Collection, completed []string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	annotated = make([]domain.Collection, len(snapshot))
	copy(annotated, snapshot)

	for i := range annotated {
		base, ok := e.baselines[annotated[i].ID]
		if !ok {
			annotated[i].Refreshing = false
			continue
		}

		if base.Total != annotated[i].TotalRecords || base.Completed != annotated[i].CompletedRecords {
			delete(e.baselines, annotated[i].ID)
			annotated[i].Refreshing = false
			completed = append(completed, annotated[i].ID)
			e.logger.Info("refresh complete",
				"collectionID", annotated[i].ID,
				"total", annotated[i].TotalRecords,
				"completed", annotated[i].CompletedRecords)
			continue
		}

		annotated[i].Refreshing = true
	}

	return annotated, completed
}

// BaselineFor returns the stored baseline for a collection, if any.
func (e *Reconciler) BaselineFor(collectionID string) (Baseline, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.baselines[collectionID]
	return b, ok
}

// Pending returns the number of in-flight refreshes.
func (e *Reconciler) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.baselines)
}
