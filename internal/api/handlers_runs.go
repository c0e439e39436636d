package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/regdigest/internal/pipeline"
	"github.com/dgallion1/regdigest/internal/volume"
)

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	vol, err := s.catalog.Lookup(chi.URLParam(r, "volumeID"))
	if err != nil {
		if errors.Is(err, volume.ErrUnknownVolume) {
			jsonError(w, err.Error(), http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch plan := r.URL.Query().Get("plan"); plan {
	case "", volume.PlanStandard:
	case volume.PlanSummary:
		vol = s.catalog.Summary(vol)
	default:
		jsonError(w, "plan must be standard or summary", http.StatusBadRequest)
		return
	}

	reuse := false
	if v := r.URL.Query().Get("reuse"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, "reuse must be a boolean", http.StatusBadRequest)
			return
		}
		reuse = b
	}

	run := pipeline.NewRun(vol, reuse)
	if err := s.orchestrator.Submit(run); err != nil {
		s.log.Warn("run rejected", "volume", vol.ID, "error", err)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.log.Info("run queued", "run_id", run.ID, "volume", vol.ID, "plan", vol.Plan, "reuse", reuse)
	writeJSON(w, http.StatusAccepted, run.Snapshot())
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":        s.orchestrator.ListRuns(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
