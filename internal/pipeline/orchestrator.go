package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jessemcg/Dog-Ear/internal/config"
	"github.com/jessemcg/Dog-Ear/internal/match"
	"github.com/jessemcg/Dog-Ear/internal/outline"
	"github.com/jessemcg/Dog-Ear/internal/pagetext"
	"github.com/jessemcg/Dog-Ear/internal/pattern"
	"github.com/jessemcg/Dog-Ear/internal/store"
	"github.com/jessemcg/Dog-Ear/internal/toc"
)

// pageExtractor is the slice of pagetext.Extractor the worker needs.
type pageExtractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// Orchestrator manages the per-document bookmark pipeline. Each job
// runs on one worker; documents never share mutable state, so workers
// need no coordination beyond the queue.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	groups    []pattern.Group
	extractor pageExtractor
	assembler *toc.Assembler
	applier   *outline.Applier
	ws        *store.Workspace
	stats     *match.Stats
	log       *slog.Logger
	cfg       config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the pipeline. groups is the pattern set loaded
// at boot; its order fixes group ranks for every job.
func NewOrchestrator(cfg config.Config, groups []pattern.Group, ws *store.Workspace, log *slog.Logger) *Orchestrator {
	stats := match.NewStats(time.Hour)
	return &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		groups:    groups,
		extractor: &pagetext.Extractor{FallbackPdftotext: cfg.PDFFallbackPdftotext},
		assembler: &toc.Assembler{
			Concurrency: cfg.MatchConcurrency,
			Stats:       stats,
			Log:         log.With("component", "assembler"),
		},
		applier: &outline.Applier{Log: log.With("component", "applier")},
		ws:      ws,
		stats:   stats,
		log:     log,
		cfg:     cfg,
	}
}

// Start launches worker goroutines and the job-store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				for _, id := range o.jobs.Cleanup() {
					if err := o.ws.RemoveJob(id); err != nil {
						o.log.Warn("workspace cleanup failed", "job_id", id, "error", err)
					}
				}
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Groups returns the pattern groups loaded at boot.
func (o *Orchestrator) Groups() []pattern.Group {
	return o.groups
}

// Stats returns the rolling assembly duration stats.
func (o *Orchestrator) Stats() *match.Stats {
	return o.stats
}

// Workspace returns the on-disk job layout.
func (o *Orchestrator) Workspace() *store.Workspace {
	return o.ws
}

// ApplyJob commits the job's review session, builds the bookmark tree
// and writes the output PDF. It is used both by the worker's
// auto-apply path and by the API's apply endpoint; the applier's
// per-target lock rejects a concurrent second call.
func (o *Orchestrator) ApplyJob(ctx context.Context, job *Job) error {
	editor := job.Editor()
	if editor == nil {
		return fmt.Errorf("job %s has no TOC to apply yet", job.ID)
	}

	job.SetStatus(StatusApplying, "applying")
	entries := editor.Commit()
	root := outline.Build(entries)

	outPath := o.ws.OutputPath(job.ID)
	if err := o.applier.Apply(ctx, root, job.InputPath, outPath); err != nil {
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "applying")
		return err
	}

	job.SetOutputPath(outPath)
	job.SetStatus(StatusComplete, "done")
	o.log.Info("job complete", "job_id", job.ID, "output", outPath, "entries", len(entries))
	return nil
}
