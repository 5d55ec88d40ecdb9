package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/marksheetIA/marksheet-ocr-service/internal/db"
	"github.com/marksheetIA/marksheet-ocr-service/internal/export"
	"github.com/marksheetIA/marksheet-ocr-service/internal/services"
	"github.com/marksheetIA/marksheet-ocr-service/internal/storage"
)

// GetRuns - GET /api/runs?limit=N
func (h *Handler) GetRuns(w http.ResponseWriter, r *http.Request) {
	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 500 {
			limit = val
		}
	}

	runs, err := db.GetRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("list runs failed", "error", err)
		h.sendError(w, http.StatusInternalServerError, "failed to get runs")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"runs":    runs,
		"count":   len(runs),
	})
}

// GetRun - GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	response := map[string]any{
		"success": true,
		"run":     run,
		"buckets": services.Bucketize(run.Records),
	}
	if run.ExportObject != "" && storage.Available() {
		if url, err := storage.GetPresignedURL(r.Context(), run.ExportObject, h.exportFilename()); err == nil {
			response["exportUrl"] = url
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ExportRun - GET /api/runs/{id}/export rebuilds the workbook from archived records
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := export.WriteWorkbook(&buf, services.Bucketize(run.Records))
	if errors.Is(err, export.ErrNothingToExport) {
		h.sendError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("export failed", "run", run.ID, "error", err)
		h.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.sendWorkbook(w, buf.Bytes())
}

// DeleteRun - DELETE /api/runs/{id}
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}

	if err := db.DeleteRun(r.Context(), run.ID.String()); err != nil {
		h.logger.Error("delete run failed", "run", run.ID, "error", err)
		h.sendError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}
	if storage.Available() {
		if err := storage.DeleteObjects(r.Context(), run.PDFObject, run.ExportObject); err != nil {
			// Log but don't fail - the archive row is already gone
			h.logger.Warn("failed to delete run files", "run", run.ID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"id":      run.ID,
	})
}

// loadRun fetches the run named in the route, writing the error response itself
func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	if !db.Available() {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return nil, false
	}

	run, err := db.GetRunByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, db.ErrRunNotFound) {
		h.sendError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("get run failed", "error", err)
		h.sendError(w, http.StatusInternalServerError, "failed to get run")
		return nil, false
	}
	return run, true
}
