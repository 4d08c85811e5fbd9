package api

import (
	"encoding/json"
	"net/http"

	"github.com/RichardoC/askweb/internal/ask"
	"github.com/RichardoC/askweb/internal/search"
	"github.com/RichardoC/askweb/internal/thread"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusClientClosedRequest mirrors nginx's non-standard 499 for clients
// that are already gone when the request reaches us.
const statusClientClosedRequest = 499

type Handler struct {
	repo         *thread.Repository
	orchestrator *ask.Orchestrator
	cse          *search.CSEClient
	logger       *zap.Logger
}

func NewHandler(repo *thread.Repository, orchestrator *ask.Orchestrator, cse *search.CSEClient, logger *zap.Logger) *Handler {
	return &Handler{
		repo:         repo,
		orchestrator: orchestrator,
		cse:          cse,
		logger:       logger,
	}
}

type AskRequest struct {
	Prompt   string `json:"prompt"`
	ThreadID string `json:"threadId"`
}

type ValidateThreadRequest struct {
	ThreadID string `json:"threadId"`
}

type ValidateThreadResponse struct {
	Exists       bool   `json:"exists"`
	ThreadID     string `json:"threadId"`
	MessageCount int    `json:"messageCount,omitempty"`
}

type ImageSearchRequest struct {
	Query string `json:"query"`
}

// HandleAsk streams the answer for one prompt as server-sent events. The
// thread id is echoed in X-Thread-Id; when the client supplied none, a
// fresh id is generated and X-Thread-Status is set to "new".
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Prompt == "" {
		http.Error(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	threadID := req.ThreadID
	threadStatus := "existing"
	if threadID == "" {
		threadID = uuid.NewString()
		threadStatus = "new"
	}

	if r.Context().Err() != nil {
		w.WriteHeader(statusClientClosedRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Thread-Id", threadID)
	w.Header().Set("X-Thread-Status", threadStatus)

	sw := newStreamWriter(w, flusher)
	h.orchestrator.Ask(r.Context(), threadID, req.Prompt, sw)
	sw.writeDone()
}

// HandleValidateThread reports whether a thread still exists in the
// cache, so clients can decide to resume or start fresh.
func (h *Handler) HandleValidateThread(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ValidateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ThreadID == "" {
		writeJSON(w, http.StatusBadRequest, ValidateThreadResponse{Exists: false, ThreadID: ""})
		return
	}

	history := h.repo.Get(r.Context(), req.ThreadID)
	writeJSON(w, http.StatusOK, ValidateThreadResponse{
		Exists:       history != nil,
		ThreadID:     req.ThreadID,
		MessageCount: len(history),
	})
}

// HandleWebSearch is a thin pass-through to the web search provider.
func (h *Handler) HandleWebSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req search.WebSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "Query is required and must be a string")
		return
	}

	resp, err := h.cse.Search(r.Context(), req)
	if err != nil {
		h.logger.Error("web search endpoint failed",
			zap.Error(err),
			zap.String("query", req.Query))
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleImageSearch looks up a single image for the query; failures
// degrade to a placeholder inside the client.
func (h *Handler) HandleImageSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ImageSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "Query is required and must be a string")
		return
	}

	writeJSON(w, http.StatusOK, h.cse.SearchImage(r.Context(), req.Query))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
