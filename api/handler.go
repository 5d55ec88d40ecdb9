package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/marksheetIA/marksheet-ocr-service/internal/auth"
	"github.com/marksheetIA/marksheet-ocr-service/internal/db"
	"github.com/marksheetIA/marksheet-ocr-service/internal/export"
	"github.com/marksheetIA/marksheet-ocr-service/internal/models"
	"github.com/marksheetIA/marksheet-ocr-service/internal/ocr/tesseract"
	"github.com/marksheetIA/marksheet-ocr-service/internal/raster"
	"github.com/marksheetIA/marksheet-ocr-service/internal/services"
	"github.com/marksheetIA/marksheet-ocr-service/internal/storage"
)

const (
	MaxUploadSize = 25 * 1024 * 1024 // 25MB
	Version       = "1.0.0"
)

// Scanner runs one PDF through the extraction pipeline
type Scanner interface {
	Scan(ctx context.Context, pdf []byte) (*models.ScanResult, error)
}

// Handler handles HTTP requests for mark-sheet processing
type Handler struct {
	config  *models.Config
	scanner Scanner
	logger  *slog.Logger

	// tesseractVersion reports the linked libtesseract; empty means unavailable
	tesseractVersion func() string
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, scanner Scanner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		config:           config,
		scanner:          scanner,
		logger:           logger.With("component", "api"),
		tesseractVersion: tesseract.Version,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Main endpoint
	router.HandleFunc("/api/process-marksheet", h.ProcessMarksheet).Methods("POST")

	// Archived runs
	router.HandleFunc("/api/runs", h.GetRuns).Methods("GET")
	router.HandleFunc("/api/runs/{id}", h.GetRun).Methods("GET")
	router.HandleFunc("/api/runs/{id}", h.DeleteRun).Methods("DELETE")
	router.HandleFunc("/api/runs/{id}/export", h.ExportRun).Methods("GET")

	// Session
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")
	router.HandleFunc("/api/me", auth.MeHandler).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Tesseract ServiceStatus     `json:"tesseract"`
	Pdftoppm  ServiceStatus     `json:"pdftoppm"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	OCR       map[string]string `json:"ocr"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Check services
	tesseractStatus := checkLibrary(h.tesseractVersion, "libtesseract")
	pdftoppmStatus := checkBinary(ctx, "pdftoppm", "-v")
	databaseStatus := checkPing(ctx, db.Available(), db.Ping, "PostgreSQL")
	storageStatus := checkPing(ctx, storage.Available(), storage.Ping, "MinIO S3")

	// Build response
	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract: tesseractStatus,
		Pdftoppm:  pdftoppmStatus,
		Database:  databaseStatus,
		Storage:   storageStatus,
		OCR: map[string]string{
			"engine":     h.config.OCR.Engine,
			"rasterizer": h.config.PDF.Rasterizer,
		},
	}

	// The tesseract engine cannot read anything without libtesseract
	if h.config.OCR.Engine == "tesseract" && !tesseractStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkLibrary reports a linked library by its version string
func checkLibrary(version func() string, name string) ServiceStatus {
	v := ""
	if version != nil {
		v = strings.TrimSpace(version())
	}
	if v == "" {
		return ServiceStatus{
			Available: false,
			Error:     name + " not linked",
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   v,
	}
}

// checkBinary runs a version command and reports its first output line
func checkBinary(ctx context.Context, name string, args ...string) ServiceStatus {
	if _, err := exec.LookPath(name); err != nil {
		return ServiceStatus{
			Available: false,
			Error:     name + " not found or not executable",
		}
	}

	output, _ := exec.CommandContext(ctx, name, args...).CombinedOutput()
	version := "unknown"
	if line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n"); line != "" {
		version = strings.TrimSpace(line)
	}

	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// checkPing reports an optional backing service
func checkPing(ctx context.Context, configured bool, ping func(context.Context) error, version string) ServiceStatus {
	if !configured {
		return ServiceStatus{
			Available: false,
			Error:     "not configured",
		}
	}
	if err := ping(ctx); err != nil {
		return ServiceStatus{
			Available: false,
			Error:     err.Error(),
		}
	}
	return ServiceStatus{
		Available: true,
		Version:   version,
	}
}

// ProcessMarksheet runs an uploaded PDF through the pipeline.
// With ?format=xlsx the workbook is streamed instead of the JSON summary.
func (h *Handler) ProcessMarksheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	wantWorkbook := r.URL.Query().Get("format") == "xlsx"

	// Parse multipart form
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' field)")
		return
	}
	defer file.Close()

	pdfData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	runID := uuid.New()
	logger := h.logger.With("run", runID.String(), "file", header.Filename)

	result, err := h.scanner.Scan(ctx, pdfData)
	totalDuration := time.Since(start).Seconds()
	switch {
	case errors.Is(err, services.ErrNoData):
		logger.Warn("no text extracted")
		h.sendResponse(w, http.StatusOK, models.ProcessResponse{
			Success:       false,
			NoData:        true,
			Error:         services.NoDataMessage,
			Pages:         result.Pages,
			OCRDuration:   result.OCRDuration.Seconds(),
			TotalDuration: totalDuration,
		})
		return
	case errors.Is(err, raster.ErrUnreadableDocument), errors.Is(err, raster.ErrNoPageImages):
		logger.Warn("unreadable document", "error", err)
		h.sendResponse(w, http.StatusUnprocessableEntity, models.ProcessResponse{
			Success:       false,
			Error:         "Could not read the PDF: " + err.Error(),
			TotalDuration: totalDuration,
		})
		return
	case err != nil:
		logger.Error("scan failed", "error", err)
		h.sendResponse(w, http.StatusInternalServerError, models.ProcessResponse{
			Success:       false,
			Error:         err.Error(),
			TotalDuration: totalDuration,
		})
		return
	}

	var workbook []byte
	if result.Buckets.Len() > 0 {
		workbook, err = export.Workbook(result.Buckets)
		if err != nil {
			logger.Error("export failed", "error", err)
			h.sendError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if wantWorkbook {
		if workbook == nil {
			h.sendError(w, http.StatusUnprocessableEntity, export.ErrNothingToExport.Error())
			return
		}
		h.sendWorkbook(w, workbook)
		return
	}

	run := &db.Run{
		ID:       runID,
		Filename: header.Filename,
		Pages:    result.Pages,
		Summary:  result.Summary,
		Records:  result.Records,
	}
	if claims, err := auth.GetClaimsFromContext(ctx); err == nil {
		run.CreatedBy = claims.Email
	}

	response := models.ProcessResponse{
		Success:     true,
		RunID:       runID.String(),
		Summary:     &result.Summary,
		Buckets:     &result.Buckets,
		Pages:       result.Pages,
		OCRDuration: result.OCRDuration.Seconds(),
	}

	// Upload to MinIO (if configured)
	if storage.Available() {
		response.ExportURL = h.storeRunFiles(ctx, logger, run, pdfData, workbook)
	}

	// Archive (if configured)
	if db.Available() {
		response.SavedToDB = archiveRun(ctx, logger, run, db.SaveRun)
	}

	logger.Info("marksheet processed",
		"total", result.Summary.Total,
		"pages", result.Pages,
		"saved", response.SavedToDB,
	)
	response.TotalDuration = time.Since(start).Seconds()
	h.sendResponse(w, http.StatusOK, response)
}

// archiveRun saves the run and reports whether it was stored.
// A failed save is logged with the run's stored objects, which no archived
// run points to afterwards.
func archiveRun(ctx context.Context, logger *slog.Logger, run *db.Run, save func(context.Context, *db.Run) error) bool {
	err := save(ctx, run)
	if err == nil {
		return true
	}
	// Log but don't fail - the archive is optional
	if run.PDFObject != "" || run.ExportObject != "" {
		logger.Warn("failed to archive run, stored files are unreferenced",
			"error", err,
			"pdf_object", run.PDFObject,
			"export_object", run.ExportObject,
		)
	} else {
		logger.Warn("failed to archive run", "error", err)
	}
	return false
}

// storeRunFiles uploads the PDF and workbook and returns a download URL for the workbook
func (h *Handler) storeRunFiles(ctx context.Context, logger *slog.Logger, run *db.Run, pdfData, workbook []byte) string {
	id := run.ID.String()

	pdfObject, err := storage.UploadRunFile(ctx, id, "marksheet.pdf", pdfData, "application/pdf")
	if err != nil {
		logger.Warn("failed to upload pdf", "error", err)
	}
	run.PDFObject = pdfObject

	if workbook == nil {
		return ""
	}
	exportObject, err := storage.UploadRunFile(ctx, id, h.exportFilename(), workbook, export.ContentType)
	if err != nil {
		logger.Warn("failed to upload workbook", "error", err)
		return ""
	}
	run.ExportObject = exportObject

	url, err := storage.GetPresignedURL(ctx, exportObject, h.exportFilename())
	if err != nil {
		logger.Warn("failed to presign workbook", "error", err)
		return ""
	}
	return url
}

func (h *Handler) exportFilename() string {
	if h.config.Export.Filename != "" {
		return h.config.Export.Filename
	}
	return export.DefaultFilename
}

// sendWorkbook streams an xlsx attachment
func (h *Handler) sendWorkbook(w http.ResponseWriter, workbook []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", h.exportFilename()))
	w.Header().Set("Content-Length", fmt.Sprint(len(workbook)))
	w.WriteHeader(http.StatusOK)
	w.Write(workbook)
}

// sendResponse writes a processing outcome
func (h *Handler) sendResponse(w http.ResponseWriter, statusCode int, response models.ProcessResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
