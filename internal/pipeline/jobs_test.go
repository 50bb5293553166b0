package pipeline

import (
	"testing"
	"time"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusExtracting, "extracting"},
		{StatusMatching, "matching"},
		{StatusWritingTOC, "writing_toc"},
		{StatusAwaitingReview, "awaiting_review"},
		{StatusApplying, "applying"},
		{StatusComplete, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.GetStatus() != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.GetStatus())
		}
		snap := job.Snapshot()
		if snap.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, snap.Phase)
		}
		if !snap.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("page 3 unreadable")
	job.AddError("hook exited 1")

	snap := job.Snapshot()
	if len(snap.Counts.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Counts.Errors))
	}
	if snap.Counts.Errors[0] != "page 3 unreadable" {
		t.Errorf("expected first error %q, got %q", "page 3 unreadable", snap.Counts.Errors[0])
	}
}

func TestJob_SetCounts(t *testing.T) {
	job := &Job{ID: "counts-test", UpdatedAt: time.Now()}
	job.SetCounts(120, 3, 47)

	snap := job.Snapshot()
	if snap.Counts.Pages != 120 || snap.Counts.Groups != 3 || snap.Counts.Entries != 47 {
		t.Errorf("counts = %+v, want pages 120, groups 3, entries 47", snap.Counts)
	}
}

func TestJob_EditorSessionReplaceable(t *testing.T) {
	job := &Job{ID: "editor-test"}
	if job.Editor() != nil {
		t.Fatal("expected no editor before assembly")
	}

	first := toc.NewEditor(nil, 10)
	job.SetEditor(first)
	if job.Editor() != first {
		t.Error("expected installed editor back")
	}

	// Reloading the TOC file after a hook replaces the session.
	second := toc.NewEditor(nil, 10)
	job.SetEditor(second)
	if job.Editor() != second {
		t.Error("expected replacement editor back")
	}
}

func TestJob_PageCount(t *testing.T) {
	job := &Job{ID: "pages-test"}
	if job.PageCount() != 0 {
		t.Errorf("expected 0 before extraction, got %d", job.PageCount())
	}
	job.SetPageCount(42)
	if job.PageCount() != 42 {
		t.Errorf("expected 42, got %d", job.PageCount())
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Counts.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Counts.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Counts.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	removed := store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if len(removed) != 1 || removed[0] != "old" {
		t.Errorf("removed = %v, want [old]", removed)
	}
}
