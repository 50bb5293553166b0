package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jessemcg/Dog-Ear/internal/hook"
)

func (s *Server) handleRunHook(w http.ResponseWriter, r *http.Request) {
	job := s.jobFromRequest(w, r)
	if job == nil {
		return
	}
	if job.Editor() == nil {
		jsonError(w, "job has no TOC yet", http.StatusConflict)
		return
	}

	name := chi.URLParam(r, "name")
	h, err := hook.Find(s.cfg.HookDir, name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}

	stdout, err := hook.Run(r.Context(), h, job.TOCPath, job.TextDir, s.cfg.HookTimeout)
	if stdout != "" {
		s.log.Info("hook output", "hook", name, "job_id", job.ID, "stdout", stdout)
	}
	if err != nil {
		job.AddError(err.Error())
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	// The hook may have rewritten the TOC file; reload and revalidate.
	s.reloadTOC(w, job)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	diags := make([]string, 0, len(s.patternDiags))
	for _, d := range s.patternDiags {
		diags = append(diags, d.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"groups":      summarizeGroups(s.orchestrator.Groups()),
		"diagnostics": diags,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"assembly":    s.orchestrator.Stats().Snapshot(),
	})
}
