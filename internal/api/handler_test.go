package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RichardoC/askweb/internal/ask"
	"github.com/RichardoC/askweb/internal/cache"
	"github.com/RichardoC/askweb/internal/models"
	"github.com/RichardoC/askweb/internal/search"
	"github.com/RichardoC/askweb/internal/thread"
	"go.uber.org/zap"
)

// fixedSearcher returns a fixed payload with one progress update.
type fixedSearcher struct {
	payload json.RawMessage
}

func (s fixedSearcher) Search(ctx context.Context, query string, history models.Thread, onProgress search.ProgressFunc) (json.RawMessage, error) {
	onProgress(search.Progress{Title: "Searching", Content: query})
	return s.payload, nil
}

// fixedGenerator streams a fixed text in one chunk.
type fixedGenerator struct {
	text string
}

func (g fixedGenerator) StreamResponse(ctx context.Context, history models.Thread, current models.AssistantMessage, errorMessage string, emit func(chunk string) error) (string, error) {
	if err := emit(g.text); err != nil {
		return "", err
	}
	return g.text, nil
}

func newTestHandler(t *testing.T) (*Handler, *thread.Repository) {
	t.Helper()
	logger := zap.NewNop()
	repo := thread.NewRepository(cache.NewMemory(), logger, time.Hour)
	orchestrator := ask.NewOrchestrator(repo,
		fixedSearcher{payload: json.RawMessage(`"findings"`)},
		fixedGenerator{text: "the answer"},
		logger)
	return NewHandler(repo, orchestrator, search.NewCSEClient("k", "cx"), logger), repo
}

func TestHandleAskStreamsEvents(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"prompt":"cats?"}`))
	rec := httptest.NewRecorder()
	h.HandleAsk(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("got content type %q", got)
	}
	if rec.Header().Get("X-Thread-Id") == "" {
		t.Error("expected a generated thread id header")
	}
	if got := rec.Header().Get("X-Thread-Status"); got != "new" {
		t.Errorf("expected thread status new, got %q", got)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: think\n") {
		t.Error("expected a think event")
	}
	if !strings.Contains(body, "event: content\ndata: \"the answer\"\n\n") {
		t.Errorf("expected a content event, body:\n%s", body)
	}
	if !strings.HasSuffix(body, "event: done\ndata: {}\n\n") {
		t.Errorf("expected a trailing done event, body:\n%s", body)
	}
}

func TestHandleAskExistingThreadStatus(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"prompt":"cats?","threadId":"t1"}`))
	rec := httptest.NewRecorder()
	h.HandleAsk(rec, req)

	if got := rec.Header().Get("X-Thread-Id"); got != "t1" {
		t.Errorf("expected the supplied thread id echoed, got %q", got)
	}
	if got := rec.Header().Get("X-Thread-Status"); got != "existing" {
		t.Errorf("expected thread status existing, got %q", got)
	}
}

func TestHandleAskValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	cases := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", http.StatusBadRequest},
		{"empty prompt", http.MethodPost, `{"prompt":""}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/ask", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.HandleAsk(rec, req)
			if rec.Code != tc.status {
				t.Errorf("got status %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestHandleAskClientAlreadyGone(t *testing.T) {
	h, _ := newTestHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"prompt":"cats?"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.HandleAsk(rec, req)

	if rec.Code != statusClientClosedRequest {
		t.Errorf("got status %d, want %d", rec.Code, statusClientClosedRequest)
	}
}

func TestHandleValidateThread(t *testing.T) {
	h, repo := newTestHandler(t)
	repo.AddUserMessage(context.Background(), "t1", "cats")
	repo.AddAssistantMessage(context.Background(), "t1", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/validate-thread", strings.NewReader(`{"threadId":"t1"}`))
	rec := httptest.NewRecorder()
	h.HandleValidateThread(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp ValidateThreadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !resp.Exists || resp.ThreadID != "t1" || resp.MessageCount != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleValidateThreadUnknownID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/validate-thread", strings.NewReader(`{"threadId":"nope"}`))
	rec := httptest.NewRecorder()
	h.HandleValidateThread(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp ValidateThreadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Exists || resp.MessageCount != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleValidateThreadMissingID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/validate-thread", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleValidateThread(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp ValidateThreadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Exists {
		t.Error("missing id must report exists=false")
	}
}

func TestHandleWebSearchValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/search/web", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleWebSearch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp["error"] != "Query is required and must be a string" {
		t.Errorf("got error %q", resp["error"])
	}
}

func TestHandleImageSearchValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/search/image", strings.NewReader(`{"query":""}`))
	rec := httptest.NewRecorder()
	h.HandleImageSearch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("got status %d", rec.Code)
	}
}
