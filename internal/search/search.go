package search

import (
	"context"
	"encoding/json"

	"github.com/RichardoC/askweb/internal/models"
)

// Progress is a human-readable status update emitted mid-pipeline for
// live display, distinct from the final payload.
type Progress struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ProgressFunc receives progress events. Implementations must tolerate
// being called from the request goroutine only; searchers stop emitting
// once the context is cancelled.
type ProgressFunc func(Progress)

// Searcher aggregates live search results for a query with the prior
// thread as conversation context. The returned payload is opaque to
// callers; it is persisted verbatim on the assistant message.
type Searcher interface {
	Search(ctx context.Context, query string, history models.Thread, onProgress ProgressFunc) (json.RawMessage, error)
}
