package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/modmap/internal/pipeline"
	"github.com/dgallion1/modmap/internal/register"
)

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	up := s.readUpload(w, r)
	if up == nil {
		return
	}

	job := pipeline.NewJob(up.Filename, up.Title, up.Data)
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
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	if snap.Status == pipeline.StatusFailed {
		jsonError(w, "job failed: "+lastError(snap.Progress.Errors), http.StatusConflict)
		return
	}
	res := job.Result()
	if res == nil {
		jsonError(w, fmt.Sprintf("job not completed (status: %s)", snap.Status), http.StatusConflict)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, res.JSONData)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="registers.csv"`)
		fmt.Fprint(w, res.CSVData)
	case "xlsx":
		data, err := register.ToXLSX(res.Registers)
		if err != nil {
			jsonError(w, "failed to render workbook: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="registers.xlsx"`)
		w.Write(data)
	default:
		jsonError(w, fmt.Sprintf("unknown format %q (want json, csv, or xlsx)", format), http.StatusBadRequest)
	}
}

func lastError(errs []string) string {
	if len(errs) == 0 {
		return "unknown error"
	}
	return errs[len(errs)-1]
}
