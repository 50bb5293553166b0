package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jessemcg/Dog-Ear/internal/pagetext"
	"github.com/jessemcg/Dog-Ear/internal/toc"
	"github.com/jessemcg/Dog-Ear/internal/tocfile"
)

// Worker processes a single document job: extract pages, match
// patterns, write the editable TOC file, then either park the job for
// review or apply immediately.
type Worker struct {
	o   *Orchestrator
	log *slog.Logger
}

func NewWorker(o *Orchestrator) *Worker {
	return &Worker{o: o, log: o.log.With("component", "worker")}
}

// Process runs the full pipeline for a job. A panic anywhere on the
// document path (corrupt files can panic the PDF libraries) fails
// that job alone; the worker goroutine survives to take the next one.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r)
			job.AddError(fmt.Sprintf("panic: %v", r))
			job.SetStatus(StatusFailed, "panic")
		}
	}()

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting")
	pages, err := w.o.extractor.Extract(ctx, job.InputPath)
	if err != nil {
		log.Error("extraction failed", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	job.SetPageCount(len(pages))
	log.Info("extracted pages", "pages", len(pages))

	if err := pagetext.WriteDir(job.TextDir, pages); err != nil {
		log.Error("page text write failed", "error", err)
		job.AddError(fmt.Sprintf("write text dir: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}

	// Phase 2: Match and assemble
	job.SetStatus(StatusMatching, "matching")
	entries, err := w.o.assembler.Assemble(ctx, pages, w.o.groups)
	if err != nil {
		log.Error("assembly failed", "error", err)
		job.AddError(fmt.Sprintf("assemble: %s", err))
		job.SetStatus(StatusFailed, "matching")
		return
	}
	job.SetCounts(len(pages), len(toc.GroupNames(entries)), len(entries))
	log.Info("assembled toc", "entries", len(entries))

	// Phase 3: Write the editable TOC file
	job.SetStatus(StatusWritingTOC, "writing_toc")
	if err := tocfile.WriteFile(job.TOCPath, entries, tocfile.EncodeOptions{}); err != nil {
		log.Error("toc write failed", "error", err)
		job.AddError(fmt.Sprintf("write toc: %s", err))
		job.SetStatus(StatusFailed, "writing_toc")
		return
	}
	job.SetEditor(toc.NewEditor(entries, len(pages)))

	// Phase 4: Review or apply
	if !job.AutoApply {
		job.SetStatus(StatusAwaitingReview, "awaiting_review")
		return
	}
	if err := w.o.ApplyJob(ctx, job); err != nil {
		log.Error("auto-apply failed", "error", err)
	}
}
