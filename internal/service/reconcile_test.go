package service

import (
	"testing"

	"github.com/arun279/notebook-sources/internal/domain"
)

func col(id string, total, completed int) domain.Collection {
	return domain.Collection{ID: id, TotalRecords: total, CompletedRecords: completed}
}

func TestReconcilerRefreshLifecycle(t *testing.T) {
	r := NewReconciler(testLogger())

	if !r.Begin(col("p1", 10, 3)) {
		t.Fatal("Begin should succeed with no existing baseline")
	}
	if !r.Refreshing("p1") {
		t.Fatal("expected p1 refreshing after Begin")
	}

	// Counts unchanged: refresh still in flight.
	annotated, completed := r.Step([]domain.Collection{col("p1", 10, 3)})
	if len(completed) != 0 {
		t.Fatalf("completed = %v, want none", completed)
	}
	if !annotated[0].Refreshing {
		t.Error("expected p1 annotated refreshing while counts match baseline")
	}

	// Same snapshot again: idempotent, nothing completes.
	annotated, completed = r.Step([]domain.Collection{col("p1", 10, 3)})
	if len(completed) != 0 || !annotated[0].Refreshing {
		t.Error("replaying an identical snapshot must not change state")
	}

	// Completed count moved: the refresh landed.
	annotated, completed = r.Step([]domain.Collection{col("p1", 10, 4)})
	if len(completed) != 1 || completed[0] != "p1" {
		t.Fatalf("completed = %v, want [p1]", completed)
	}
	if annotated[0].Refreshing {
		t.Error("p1 should no longer be refreshing")
	}
	if r.Refreshing("p1") {
		t.Error("baseline should be discarded after completion")
	}

	// The next identical snapshot completes nothing a second time.
	_, completed = r.Step([]domain.Collection{col("p1", 10, 4)})
	if len(completed) != 0 {
		t.Errorf("completed = %v after baseline discarded, want none", completed)
	}
}

func TestReconcilerTotalChangeCompletes(t *testing.T) {
	r := NewReconciler(testLogger())
	r.Begin(col("p1", 10, 10))

	// A refresh can also shrink or grow the record set.
	_, completed := r.Step([]domain.Collection{col("p1", 8, 8)})
	if len(completed) != 1 || completed[0] != "p1" {
		t.Fatalf("completed = %v, want [p1]", completed)
	}
}

func TestReconcilerBeginRejectsDuplicate(t *testing.T) {
	r := NewReconciler(testLogger())

	r.Begin(col("p1", 10, 3))
	if r.Begin(col("p1", 20, 15)) {
		t.Fatal("second Begin should be rejected while baseline exists")
	}

	// The original reference point survives the rejected re-issue.
	base, ok := r.BaselineFor("p1")
	if !ok {
		t.Fatal("baseline missing")
	}
	if base.Total != 10 || base.Completed != 3 {
		t.Errorf("baseline = %+v, want {10 3}", base)
	}
}

func TestReconcilerDerivesFlagFromBaseline(t *testing.T) {
	r := NewReconciler(testLogger())

	// A snapshot arriving with Refreshing set but no baseline is normalized:
	// the flag is derived state, never server input.
	stale := col("p1", 10, 3)
	stale.Refreshing = true
	annotated, _ := r.Step([]domain.Collection{stale})
	if annotated[0].Refreshing {
		t.Error("Refreshing must be false without a baseline")
	}
}

func TestReconcilerStepLeavesInputUntouched(t *testing.T) {
	r := NewReconciler(testLogger())
	r.Begin(col("p1", 10, 3))

	snapshot := []domain.Collection{col("p1", 10, 3)}
	r.Step(snapshot)
	if snapshot[0].Refreshing {
		t.Error("Step must annotate a copy, not the caller's slice")
	}
}

func TestReconcilerForget(t *testing.T) {
	r := NewReconciler(testLogger())
	r.Begin(col("p1", 10, 3))
	r.Begin(col("p2", 5, 0))

	r.Forget("p1")
	if r.Refreshing("p1") {
		t.Error("p1 baseline should be gone")
	}
	if !r.Refreshing("p2") {
		t.Error("p2 baseline should survive")
	}
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", r.Pending())
	}

	// Unknown ids are a no-op.
	r.Forget("p9")
	if r.Pending() != 1 {
		t.Errorf("Pending() = %d after no-op Forget, want 1", r.Pending())
	}
}

func TestReconcilerNoTimeout(t *testing.T) {
	r := NewReconciler(testLogger())
	r.Begin(col("p1", 10, 3))

	// However many unchanged snapshots arrive, the baseline persists.
	for i := 0; i < 50; i++ {
		annotated, completed := r.Step([]domain.Collection{col("p1", 10, 3)})
		if len(completed) != 0 || !annotated[0].Refreshing {
			t.Fatalf("step %d: refresh spuriously completed", i)
		}
	}
}
