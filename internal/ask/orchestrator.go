package ask

import (
	"context"

	"github.com/RichardoC/askweb/internal/models"
	"github.com/RichardoC/askweb/internal/search"
	"github.com/RichardoC/askweb/internal/thread"
	"go.uber.org/zap"
)

// apologyFallback is emitted when the generation pass itself fails and no
// model is available to phrase the failure.
const apologyFallback = "I'm sorry, something went wrong while composing the response. Please try again."

// ResponseWriter is the live output channel for one request. Writes after
// the client has disconnected return errors; the orchestrator swallows
// them.
type ResponseWriter interface {
	WriteThink(p search.Progress) error
	WriteContent(chunk string) error
}

// Generator produces the final response text from the thread context,
// forwarding token deltas through emit as they arrive.
type Generator interface {
	StreamResponse(ctx context.Context, history models.Thread, current models.AssistantMessage, errorMessage string, emit func(chunk string) error) (string, error)
}

// Orchestrator drives a single ask request: dedup against cached turns,
// search on a miss, stream the generated response, persist the final
// text. Upstream failures degrade to an LLM-authored explanation; client
// cancellation unwinds without persisting partial state.
type Orchestrator struct {
	repo      *thread.Repository
	searcher  search.Searcher
	generator Generator
	logger    *zap.Logger
}

func NewOrchestrator(repo *thread.Repository, searcher search.Searcher, generator Generator, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		repo:      repo,
		searcher:  searcher,
		generator: generator,
		logger:    logger,
	}
}

// Ask handles one prompt against one thread, writing progress and
// response increments to w. It never returns an error: every failure
// path either produces a user-visible degraded response or, on
// cancellation, stops quietly.
func (o *Orchestrator) Ask(ctx context.Context, threadID, prompt string, w ResponseWriter) {
	history := o.repo.Get(ctx, threadID)

	cached := thread.FindCachedTurn(prompt, history)
	if cached != nil && cached.Assistant.C1Response != "" {
		o.writeThink(ctx, w, search.Progress{
			Title:   "Using Cached Response",
			Content: "Found a previous answer for this exact question, replaying it",
		})
		o.writeContent(ctx, w, cached.Assistant.C1Response)
		return
	}

	var (
		assistant    models.AssistantMessage
		errorMessage string
	)

	if cached != nil && cached.Assistant.SearchResponse != nil {
		// Search completed previously but generation never finished:
		// reuse the cached payload and run a fresh generation pass.
		o.writeThink(ctx, w, search.Progress{
			Title:   "Using Cached Results",
			Content: "Found previous search results for this query, skipping web search",
		})
		assistant = cached.Assistant
	} else {
		payload, err := o.searcher.Search(ctx, prompt, history, func(p search.Progress) {
			o.writeThink(ctx, w, p)
		})
		if err != nil {
			if ctx.Err() != nil {
				o.logger.Info("search cancelled by client", zap.String("threadId", threadID))
				return
			}
			o.logger.Error("search failed",
				zap.Error(err),
				zap.String("threadId", threadID))
			errorMessage = err.Error()
			o.repo.AddUserMessage(ctx, threadID, prompt)
			assistant = o.repo.AddAssistantMessage(ctx, threadID, nil)
		} else {
			o.repo.AddUserMessage(ctx, threadID, prompt)
			assistant = o.repo.AddAssistantMessage(ctx, threadID, &models.AssistantSeed{SearchResponse: payload})
		}
	}

	// Generation sees the thread as persisted after the search step. With
	// the no-op store this comes back empty; the search payload on the
	// assistant message still carries the needed context.
	updated := o.repo.Get(ctx, threadID)

	o.writeThink(ctx, w, search.Progress{
		Title:   "Composing Final Response",
		Content: "Transforming search results into a user-friendly, interactive format",
	})

	text, err := o.generator.StreamResponse(ctx, updated, assistant, errorMessage, func(chunk string) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		o.writeContent(ctx, w, chunk)
		return nil
	})
	if ctx.Err() != nil {
		o.logger.Info("generation cancelled by client", zap.String("threadId", threadID))
		return
	}
	if err != nil {
		o.logger.Error("failed to generate response",
			zap.Error(err),
			zap.String("threadId", threadID))
		o.writeContent(ctx, w, apologyFallback)
		return
	}

	o.repo.UpdateAssistantMessage(ctx, threadID, assistant.MessageID, models.AssistantUpdate{
		C1Response: &text,
	})
}

func (o *Orchestrator) writeThink(ctx context.Context, w ResponseWriter, p search.Progress) {
	if ctx.Err() != nil {
		return
	}
	if err := w.WriteThink(p); err != nil {
		o.logger.Debug("failed to write think event", zap.Error(err))
	}
}

func (o *Orchestrator) writeContent(ctx context.Context, w ResponseWriter, chunk string) {
	if ctx.Err() != nil {
		return
	}
	if err := w.WriteContent(chunk); err != nil {
		o.logger.Debug("failed to write content chunk", zap.Error(err))
	}
}
