// Package store manages the on-disk workspace: one directory per job
// holding the uploaded PDF, the extracted page text, the editable TOC
// file and the bookmarked output.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is the layout under one data root:
//
//	<root>/jobs/<id>/input.pdf
//	<root>/jobs/<id>/text/0001.txt ...
//	<root>/jobs/<id>/toc.txt
//	<root>/jobs/<id>/output.pdf
type Workspace struct {
	root string
}

func New(root string) *Workspace {
	return &Workspace{root: root}
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) JobDir(jobID string) string {
	return filepath.Join(w.root, "jobs", jobID)
}

func (w *Workspace) InputPath(jobID string) string {
	return filepath.Join(w.JobDir(jobID), "input.pdf")
}

func (w *Workspace) TextDir(jobID string) string {
	return filepath.Join(w.JobDir(jobID), "text")
}

func (w *Workspace) TOCPath(jobID string) string {
	return filepath.Join(w.JobDir(jobID), "toc.txt")
}

func (w *Workspace) OutputPath(jobID string) string {
	return filepath.Join(w.JobDir(jobID), "output.pdf")
}

// SaveInput writes the uploaded PDF into a fresh job directory and
// returns its path.
func (w *Workspace) SaveInput(jobID string, data []byte) (string, error) {
	if err := os.MkdirAll(w.JobDir(jobID), 0o755); err != nil {
		return "", fmt.Errorf("create job dir: %w", err)
	}
	path := w.InputPath(jobID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

// RemoveJob deletes a job's entire directory. Used by TTL cleanup.
func (w *Workspace) RemoveJob(jobID string) error {
	dir := w.JobDir(jobID)
	// Never remove anything outside the jobs tree.
	jobsRoot := filepath.Join(w.root, "jobs") + string(filepath.Separator)
	if !strings.HasPrefix(dir+string(filepath.Separator), jobsRoot) {
		return fmt.Errorf("job dir %s escapes workspace", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove job dir: %w", err)
	}
	return nil
}
