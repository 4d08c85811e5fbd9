package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// scriptedModel returns a canned completion or error.
type scriptedModel struct {
	reply  string
	err    error
	prompt string
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt = text.Text
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.reply}},
	}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.prompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestSummarizeReturnsModelOutput(t *testing.T) {
	model := &scriptedModel{reply: "  a tidy summary \n"}
	s := NewLLMSummarizer(model, time.Second, zap.NewNop())

	got := s.Summarize(context.Background(), "cats", "long page content")
	if got != "a tidy summary" {
		t.Errorf("got %q", got)
	}
	if !strings.Contains(model.prompt, "User Query: cats") {
		t.Errorf("query missing from prompt: %q", model.prompt)
	}
	if !strings.Contains(model.prompt, "long page content") {
		t.Error("page content missing from prompt")
	}
}

func TestSummarizeTimeoutPlaceholder(t *testing.T) {
	model := &scriptedModel{err: context.DeadlineExceeded}
	s := NewLLMSummarizer(model, time.Second, zap.NewNop())

	got := s.Summarize(context.Background(), "cats", "content")
	if !strings.Contains(got, "Summarization timed out") {
		t.Errorf("expected timeout placeholder, got %q", got)
	}
}

func TestSummarizeFailurePlaceholder(t *testing.T) {
	model := &scriptedModel{err: errors.New("model unavailable")}
	s := NewLLMSummarizer(model, time.Second, zap.NewNop())

	got := s.Summarize(context.Background(), "cats", "content")
	if got != "Failed to summarize website content" {
		t.Errorf("expected failure placeholder, got %q", got)
	}
}

func TestSummarizeTruncatesOversizedContent(t *testing.T) {
	model := &scriptedModel{reply: "ok"}
	s := NewLLMSummarizer(model, time.Second, zap.NewNop())

	huge := strings.Repeat("x", maxSummaryInput+100)
	s.Summarize(context.Background(), "cats", huge)

	if !strings.Contains(model.prompt, "[content truncated for performance]") {
		t.Error("expected truncation marker in prompt")
	}
	if len(model.prompt) > maxSummaryInput+500 {
		t.Errorf("prompt not truncated, length %d", len(model.prompt))
	}
}
