package fileapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"filechat/internal/flowlog"
	"filechat/internal/models"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	return NewServer(dir, WithLogger(flowlog.Nop())), dir
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	srv, dir := newTestServer(t)

	body, contentType := multipartBody(t, "file", "report.pdf", "pdf bytes")
	req := httptest.NewRequest(http.MethodPost, models.PathUpload, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(models.TraceHeader, "deadbeef")
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result models.UploadResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("status = %q, want success", result.Status)
	}
	if !regexp.MustCompile(`^[0-9a-f-]{36}$`).MatchString(result.FileID) {
		t.Errorf("file_id %q is not a uuid", result.FileID)
	}

	// stored under the generated id, not the client filename
	stored, err := os.ReadFile(filepath.Join(dir, result.FileID))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(stored) != "pdf bytes" {
		t.Errorf("stored content = %q", stored)
	}
	if _, err := os.Stat(filepath.Join(dir, "report.pdf")); !os.IsNotExist(err) {
		t.Error("upload must not be stored under the client filename")
	}
}

func TestUploadWithoutTraceHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "file", "data.csv", "a,b,c")
	req := httptest.NewRequest(http.MethodPost, models.PathUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestUploadDistinctIDs(t *testing.T) {
	srv, _ := newTestServer(t)

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		body, contentType := multipartBody(t, "file", "f.txt", "same content")
		req := httptest.NewRequest(http.MethodPost, models.PathUpload, body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()

		srv.Router().ServeHTTP(rec, req)

		var result models.UploadResult
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if ids[result.FileID] {
			t.Fatalf("duplicate file id %q", result.FileID)
		}
		ids[result.FileID] = true
	}
}

func TestUploadMissingFileField(t *testing.T) {
	srv, _ := newTestServer(t)

	body, contentType := multipartBody(t, "wrong_field", "f.txt", "x")
	req := httptest.NewRequest(http.MethodPost, models.PathUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, models.PathUpload, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, models.PathHealth, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health models.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("status = %q, want ok", health.Status)
	}
}
