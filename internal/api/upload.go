package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	apierrors "filechat/internal/errors"
	"filechat/internal/flowlog"
	"filechat/internal/models"
)

const (
	// MaxUploadSize caps the file size accepted for upload.
	MaxUploadSize = 50 * 1024 * 1024 // 50MB
)

// Upload POSTs a file as multipart form data (field "file") to the
// server-supplied URL. The trace header is set only when traceID is
// non-empty: ui-mode uploads carry it, stream-mode uploads do not.
func (c *Client) Upload(ctx context.Context, uploadURL, filename string, content io.Reader, traceID string) (*models.UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(content, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("file size exceeds maximum %d bytes", MaxUploadSize)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	_ = writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if traceID != "" {
		req.Header.Set(models.TraceHeader, traceID)
	}

	c.log.Event(flowlog.Outbound, "file_upload", "Uploading "+filename, traceID,
		flowlog.F("upload_url", uploadURL),
		flowlog.F("size_bytes", len(data)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apierrors.NewAPIError(resp.StatusCode, uploadURL, readErrorBody(resp.Body))
	}

	var result models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierrors.NewParseError(err.Error(), uploadURL)
	}
	if result.FileID == "" {
		return nil, apierrors.ErrNoContent
	}

	c.log.Event(flowlog.Inbound, "file_upload_complete", "Upload finished: "+filename, traceID,
		flowlog.F("file_id", result.FileID),
		flowlog.F("duration_ms", time.Since(start).Milliseconds()),
	)

	return &result, nil
}

// UploadFile uploads a file from disk.
func (c *Client) UploadFile(ctx context.Context, uploadURL, path, traceID string) (*models.UploadResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > MaxUploadSize {
		return nil, fmt.Errorf("file size exceeds maximum %d bytes", MaxUploadSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return c.Upload(ctx, uploadURL, filepath.Base(path), file, traceID)
}
