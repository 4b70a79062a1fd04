// internal/transport/httpapi/server_test.go
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripwise/internal/common/config"
	"tripwise/internal/common/errors"
	"tripwise/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger { return &TestLogger{t: t} }

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

// ==========================
// Test Helper Functions
// ==========================

type stubChat struct {
	chatResp *models.ChatResponse
	askResp  *models.AskResponse
	err      error
	lastReq  *models.ChatRequest
	lastAsk  string
}

func (s *stubChat) HandleTurn(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.chatResp, nil
}

func (s *stubChat) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	s.lastAsk = question
	if s.err != nil {
		return nil, s.err
	}
	return s.askResp, nil
}

func newTestServer(t *testing.T, chat ChatService) *Server {
	cfg := &config.Config{}
	cfg.App.Name = "tripwise"
	cfg.App.Version = "1.0.0"
	cfg.Server.Address = ":0"
	return NewServer(cfg, chat, NewTestLogger(t))
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

// ==========================
// POST /chat Tests
// ==========================

func TestHandleChat_Success(t *testing.T) {
	chat := &stubChat{chatResp: &models.ChatResponse{
		SessionID:  "sess-1",
		Reply:      "booked!",
		Agent:      "booking",
		Intent:     models.IntentBooking,
		Confidence: 0.93,
	}}
	server := newTestServer(t, chat)

	rec := doRequest(t, server, http.MethodPost, "/chat",
		`{"sessionId": "sess-1", "userId": "user-1", "message": "book JFK to LHR"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, "booked!", resp.Reply)
	assert.Equal(t, models.IntentBooking, resp.Intent)

	require.NotNil(t, chat.lastReq)
	assert.Equal(t, "book JFK to LHR", chat.lastReq.Message)
}

func TestHandleChat_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"sessionId": "sess-1"}`},
		{"empty message", `{"message": ""}`},
		{"unknown field", `{"message": "hi", "admin": true}`},
		{"not json", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &stubChat{})

			rec := doRequest(t, server, http.MethodPost, "/chat", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(errors.ErrCodeValidationFailed), resp.Code)
		})
	}
}

func TestHandleChat_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.ErrorCode
	}{
		{
			name:   "retryable maps to 503",
			err:    errors.NewSessionLoadFailedError(assert.AnError),
			status: http.StatusServiceUnavailable,
			code:   errors.ErrCodeSessionLoadFailed,
		},
		{
			name:   "validation maps to 400",
			err:    errors.NewValidationFailedError("bad"),
			status: http.StatusBadRequest,
			code:   errors.ErrCodeValidationFailed,
		},
		{
			name:   "not found maps to 404",
			err:    errors.NewSessionNotFoundError("sess-x"),
			status: http.StatusNotFound,
			code:   errors.ErrCodeSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &stubChat{err: tt.err})

			rec := doRequest(t, server, http.MethodPost, "/chat", `{"message": "hi"}`)

			assert.Equal(t, tt.status, rec.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
		})
	}
}

// ==========================
// POST /ask Tests
// ==========================

func TestHandleAsk_Success(t *testing.T) {
	chat := &stubChat{askResp: &models.AskResponse{
		Answer:  "23kg included",
		Sources: []models.Source{{ID: "baggage:0", Source: "baggage", Score: 1.9}},
	}}
	server := newTestServer(t, chat)

	rec := doRequest(t, server, http.MethodPost, "/ask", `{"question": "baggage allowance?"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "23kg included", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "baggage allowance?", chat.lastAsk)
}

func TestHandleAsk_EmptyQuestion(t *testing.T) {
	server := newTestServer(t, &stubChat{})

	rec := doRequest(t, server, http.MethodPost, "/ask", `{"question": ""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAsk_UpstreamError(t *testing.T) {
	server := newTestServer(t, &stubChat{err: errors.NewKnowledgeQueryFailedError(assert.AnError)})

	rec := doRequest(t, server, http.MethodPost, "/ask", `{"question": "baggage?"}`)

	// Knowledge query failures are retryable
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ==========================
// GET /health and /metrics Tests
// ==========================

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t, &stubChat{})

	rec := doRequest(t, server, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "tripwise", resp["service"])
	assert.Equal(t, "1.0.0", resp["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t, &stubChat{})

	rec := doRequest(t, server, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
