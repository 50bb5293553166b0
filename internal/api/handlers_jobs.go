package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jessemcg/Dog-Ear/internal/outline"
	"github.com/jessemcg/Dog-Ear/internal/pipeline"
	"github.com/jessemcg/Dog-Ear/internal/toc"
	"github.com/jessemcg/Dog-Ear/internal/tocfile"
)

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	autoApply := s.cfg.AutoApply
	if v := r.FormValue("auto_apply"); v != "" {
		autoApply = v == "true"
	}

	jobID := uuid.NewString()
	ws := s.orchestrator.Workspace()
	inputPath, err := ws.SaveInput(jobID, data)
	if err != nil {
		jsonError(w, "failed to store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}

	now := time.Now()
	job := &pipeline.Job{
		ID:          jobID,
		Filename:    filename,
		ContentHash: pipeline.ContentHashHex(data),
		Status:      pipeline.StatusQueued,
		Phase:       "queued",
		AutoApply:   autoApply,
		InputPath:   inputPath,
		TextDir:     ws.TextDir(jobID),
		TOCPath:     ws.TOCPath(jobID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleGetTOC(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	data, err := os.ReadFile(job.TOCPath)
	if err != nil {
		jsonError(w, "toc not written yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

func (s *Server) handlePutTOC(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	if job.Editor() == nil {
		jsonError(w, "job has no TOC yet", http.StatusConflict)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if err := os.WriteFile(job.TOCPath, data, 0o644); err != nil {
		jsonError(w, "failed to write toc: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.reloadTOC(w, job)
}

// reloadTOC re-reads the job's TOC file, revalidates page bounds and
// replaces the review session. Used after a PUT and after every hook
// run, because both are untrusted transforms of the file.
func (s *Server) reloadTOC(w http.ResponseWriter, job *pipeline.Job) {
	entries, diags, err := tocfile.ReadFile(job.TOCPath)
	if err != nil {
		jsonError(w, "failed to reload toc: "+err.Error(), http.StatusInternalServerError)
		return
	}
	job.SetEditor(toc.NewEditor(entries, job.PageCount()))

	diagStrs := make([]string, 0, len(diags))
	for _, d := range diags {
		diagStrs = append(diagStrs, d.String())
	}

	if errs := toc.ValidatePages(entries, job.PageCount()); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error":       "toc references pages outside the document",
			"violations":  msgs,
			"diagnostics": diagStrs,
			"entries":     len(entries),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries":     len(entries),
		"groups":      len(toc.GroupNames(entries)),
		"diagnostics": diagStrs,
		"generation":  job.Editor().Generation(),
	})
}

// editCommand is one mutation against a job's review session.
type editCommand struct {
	Op          string     `json:"op"`
	ID          string     `json:"id,omitempty"`
	AfterID     string     `json:"after_id,omitempty"`
	NewPosition int        `json:"new_position,omitempty"`
	NewPage     int        `json:"new_page_index,omitempty"`
	OldName     string     `json:"old_name,omitempty"`
	NewName     string     `json:"new_name,omitempty"`
	Draft       *toc.Draft `json:"draft,omitempty"`
}

type editRequest struct {
	Generation string        `json:"generation"`
	Commands   []editCommand `json:"commands"`
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	editor := job.Editor()
	if editor == nil {
		jsonError(w, "job has no TOC yet", http.StatusConflict)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid edit request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Generation != editor.Generation() {
		jsonError(w, "stale generation: reload the TOC first", http.StatusConflict)
		return
	}

	for i, cmd := range req.Commands {
		var err error
		switch cmd.Op {
		case "insert":
			if cmd.Draft == nil {
				err = fmt.Errorf("insert requires a draft")
			} else {
				_, err = editor.Insert(cmd.AfterID, *cmd.Draft)
			}
		case "delete":
			err = editor.Delete(cmd.ID)
		case "move":
			err = editor.Move(cmd.ID, cmd.NewPosition)
		case "retarget":
			err = editor.Retarget(cmd.ID, cmd.NewPage)
		case "rename_group":
			err = editor.RenameGroup(cmd.OldName, cmd.NewName)
		default:
			err = fmt.Errorf("unknown op %q", cmd.Op)
		}
		if err != nil {
			var invalid *toc.InvalidReferenceError
			code := http.StatusBadRequest
			if errors.As(err, &invalid) {
				code = http.StatusUnprocessableEntity
			}
			jsonError(w, fmt.Sprintf("command %d (%s): %s", i, cmd.Op, err), code)
			return
		}
	}

	// Keep the on-disk file in step with the session, so external
	// editors and hooks always see the latest state.
	if err := tocfile.WriteFile(job.TOCPath, editor.List(), tocfile.EncodeOptions{}); err != nil {
		jsonError(w, "failed to rewrite toc file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"applied":    len(req.Commands),
		"entries":    editor.List(),
		"generation": editor.Generation(),
	})
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	if job.Editor() == nil {
		jsonError(w, "job has no TOC yet", http.StatusConflict)
		return
	}

	if err := s.orchestrator.ApplyJob(r.Context(), job); err != nil {
		var busy *outline.DocumentBusyError
		var preexisting *outline.PreexistingOutlineError
		var outOfRange *toc.PageOutOfRangeError
		switch {
		case errors.As(err, &busy), errors.As(err, &preexisting):
			jsonError(w, err.Error(), http.StatusConflict)
		case errors.As(err, &outOfRange):
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":      snap.ID,
		"status":      snap.Status,
		"output_path": snap.OutputPath,
	})
}

func (s *Server) jobFromRequest(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	return job
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
