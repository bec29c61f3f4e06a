// Package fileapi implements the file storage service: it accepts multipart
// uploads, stores them on disk under server-generated ids, and answers
// health checks.
package fileapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"filechat/internal/flowlog"
	"filechat/internal/models"
)

// MaxUploadSize bounds a single multipart upload.
const MaxUploadSize = 50 << 20 // 50 MB

// Server is the file storage HTTP service.
type Server struct {
	uploadDir string
	log       *flowlog.Logger
	router    *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the flow logger.
func WithLogger(log *flowlog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer creates a Server storing uploads under uploadDir. The directory
// is created on first upload if missing.
func NewServer(uploadDir string, opts ...Option) *Server {
	s := &Server{
		uploadDir: uploadDir,
		log:       flowlog.New(flowlog.ComponentFileAPI),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc(models.PathUpload, s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc(models.PathHealth, s.handleHealth).Methods(http.MethodGet)
	s.router = r

	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe starts the service on the given port.
func (s *Server) ListenAndServe(port int) error {
	s.log.Event(flowlog.Outbound, "startup", fmt.Sprintf("file-api starting on port %d", port), "")
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.router)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	traceID := r.Header.Get(models.TraceHeader)
	if traceID == "" {
		traceID = "unknown"
	}
	fileID := uuid.NewString()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.log.Event(flowlog.Inbound, "file_upload_error", "missing multipart file field: "+err.Error(), traceID)
		writeJSONError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	s.log.Event(flowlog.Inbound, "file_upload_received",
		fmt.Sprintf("Received multipart file upload: %s (%d bytes)", header.Filename, header.Size),
		traceID,
		flowlog.F("file_id", fileID),
	)

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.log.Event(flowlog.Outbound, "file_upload_error", "cannot create upload dir: "+err.Error(), traceID)
		writeJSONError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	// Files are stored under the server-generated id, never the
	// client-supplied filename.
	path := filepath.Join(s.uploadDir, fileID)
	dst, err := os.Create(path)
	if err != nil {
		s.log.Event(flowlog.Outbound, "file_upload_error", "cannot create file: "+err.Error(), traceID)
		writeJSONError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(path)
		s.log.Event(flowlog.Outbound, "file_upload_error", "write failed: "+err.Error(), traceID)
		writeJSONError(w, http.StatusInternalServerError, "write failed")
		return
	}

	s.log.Event(flowlog.Outbound, "file_upload_complete",
		fmt.Sprintf("File saved successfully: %s (%d bytes)", header.Filename, size),
		traceID,
		flowlog.F("file_id", fileID),
		flowlog.F("status_code", http.StatusOK),
		flowlog.F("duration_ms", time.Since(start).Milliseconds()),
	)

	writeJSON(w, http.StatusOK, models.UploadResult{Status: "success", FileID: fileID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
