package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// maxSummaryInput bounds how much extracted text is sent to the model.
const maxSummaryInput = 500_000

const summarizeSystemPrompt = `You are an expert assistant that EXTRACTS and SUMMARIZES website text content based on the user query.
Remove only truly irrelevant or unwanted data, but keep all relevant information to the user query.
Do not skip or omit any critical or contextually important information.
If a user query is provided, make sure the summary directly addresses the query context.
Be brief and concise. Prioritize facts and information directly related to the query.`

// Summarizer condenses extracted page content against the original query
// within a bounded time budget.
type Summarizer interface {
	Summarize(ctx context.Context, query, content string) string
}

// LLMSummarizer implements Summarizer with a bounded-time model call.
// Timeouts and model failures degrade to placeholder summaries; a
// per-URL summary never fails the result it belongs to.
type LLMSummarizer struct {
	llm     llms.Model
	timeout time.Duration
	logger  *zap.Logger
}

func NewLLMSummarizer(model llms.Model, timeout time.Duration, logger *zap.Logger) *LLMSummarizer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LLMSummarizer{llm: model, timeout: timeout, logger: logger}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, query, content string) string {
	if len(content) > maxSummaryInput {
		content = content[:maxSummaryInput] + "... [content truncated for performance]"
	}

	prompt := fmt.Sprintf("%s\n\nUser Query: %s\nWebsite Content:\n%s", summarizeSystemPrompt, query, content)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	summary, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("summarization timed out", zap.String("query", query))
			return "Summarization timed out. Please try again with less content or a longer timeout."
		}
		s.logger.Error("summarization failed", zap.Error(err), zap.String("query", query))
		return "Failed to summarize website content"
	}
	return strings.TrimSpace(summary)
}
