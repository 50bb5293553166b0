package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

// JobStatus represents the state of one document's run.
type JobStatus string

const (
	StatusQueued         JobStatus = "queued"
	StatusExtracting     JobStatus = "extracting"
	StatusMatching       JobStatus = "matching"
	StatusWritingTOC     JobStatus = "writing_toc"
	StatusAwaitingReview JobStatus = "awaiting_review"
	StatusApplying       JobStatus = "applying"
	StatusComplete       JobStatus = "complete"
	StatusFailed         JobStatus = "failed"
)

// Counts summarizes what a run produced.
type Counts struct {
	Pages   int      `json:"pages"`
	Groups  int      `json:"groups"`
	Entries int      `json:"entries"`
	Errors  []string `json:"errors"`
}

// Job tracks one uploaded PDF through extract, match, review and
// apply. Each job is processed by exactly one worker; the API reads
// snapshots and drives the review phase through the job's editor
// session.
type Job struct {
	mu sync.Mutex

	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	AutoApply   bool      `json:"auto_apply"`

	InputPath  string `json:"-"`
	TextDir    string `json:"-"`
	TOCPath    string `json:"-"`
	OutputPath string `json:"output_path,omitempty"`

	Counts Counts `json:"counts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	pageCount int
	editor    *toc.Editor
	errors    []string
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// GetStatus returns the current status.
func (j *Job) GetStatus() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status
}

// AddError records a per-step error without changing status.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Counts.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetCounts records what assembly produced.
func (j *Job) SetCounts(pages, groups, entries int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Counts.Pages = pages
	j.Counts.Groups = groups
	j.Counts.Entries = entries
	j.UpdatedAt = time.Now()
}

// SetOutputPath records where the bookmarked PDF landed.
func (j *Job) SetOutputPath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputPath = path
	j.UpdatedAt = time.Now()
}

// SetPageCount stores the extracted page count used to validate
// retargets and reloaded TOC files.
func (j *Job) SetPageCount(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pageCount = n
}

// PageCount returns the extracted page count, zero before extraction.
func (j *Job) PageCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.pageCount
}

// SetEditor installs the review session for this job, replacing any
// previous one.
func (j *Job) SetEditor(e *toc.Editor) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.editor = e
	j.UpdatedAt = time.Now()
}

// Editor returns the job's review session, nil before assembly.
func (j *Job) Editor() *toc.Editor {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.editor
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	AutoApply   bool      `json:"auto_apply"`
	OutputPath  string    `json:"output_path,omitempty"`
	Counts      Counts    `json:"counts"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Counts.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		Status:      j.Status,
		Phase:       j.Phase,
		AutoApply:   j.AutoApply,
		OutputPath:  j.OutputPath,
		Counts: Counts{
			Pages:   j.Counts.Pages,
			Groups:  j.Counts.Groups,
			Entries: j.Counts.Entries,
			Errors:  errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs and returns their ids so the caller
// can delete the matching workspace directories.
func (s *JobStore) Cleanup() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var removed []string
	for id, job := range s.jobs {
		job.mu.Lock()
		stale := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if stale {
			delete(s.jobs, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
