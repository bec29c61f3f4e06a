package api

import (
	"context"
	"io"

	"filechat/internal/models"
)

// MockClient is a mock implementation of ServiceClient for testing.
type MockClient struct {
	// Mock return values
	HealthErr    error
	ChatResponse *models.ChatResponse
	ChatErr      error
	UploadResult *models.UploadResult
	UploadErr    error
	CompleteErr  error

	// Call recorders
	HealthCalled  bool
	ChatCalls     []MockChatCall
	UploadCalls   []MockUploadCall
	CompleteCalls []MockCompleteCall
}

// MockChatCall records one SendChat invocation.
type MockChatCall struct {
	Request models.ChatRequest
	TraceID string
}

// MockUploadCall records one Upload invocation.
type MockUploadCall struct {
	URL      string
	Filename string
	Content  []byte
	TraceID  string
}

// MockCompleteCall records one CompleteElicitation invocation.
type MockCompleteCall struct {
	FileID  string
	TraceID string
}

// Ensure MockClient implements ServiceClient
var _ ServiceClient = (*MockClient)(nil)

func (m *MockClient) Health(ctx context.Context) error {
	m.HealthCalled = true
	return m.HealthErr
}

func (m *MockClient) SendChat(ctx context.Context, req models.ChatRequest, traceID string) (*models.ChatResponse, error) {
	m.ChatCalls = append(m.ChatCalls, MockChatCall{Request: req, TraceID: traceID})
	if m.ChatErr != nil {
		return nil, m.ChatErr
	}
	if m.ChatResponse != nil {
		return m.ChatResponse, nil
	}
	return &models.ChatResponse{Response: "ok"}, nil
}

func (m *MockClient) Upload(ctx context.Context, uploadURL, filename string, content io.Reader, traceID string) (*models.UploadResult, error) {
	data, _ := io.ReadAll(content)
	m.UploadCalls = append(m.UploadCalls, MockUploadCall{
		URL:      uploadURL,
		Filename: filename,
		Content:  data,
		TraceID:  traceID,
	})
	if m.UploadErr != nil {
		return nil, m.UploadErr
	}
	if m.UploadResult != nil {
		return m.UploadResult, nil
	}
	return &models.UploadResult{Status: "success", FileID: "mock-file-id"}, nil
}

func (m *MockClient) CompleteElicitation(ctx context.Context, fileID, traceID string) error {
	m.CompleteCalls = append(m.CompleteCalls, MockCompleteCall{FileID: fileID, TraceID: traceID})
	return m.CompleteErr
}
