package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RichardoC/askweb/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// GroundedContent is one conversation entry sent to the grounded
// provider. Role is "user" or "model".
type GroundedContent struct {
	Role string
	Text string
}

// StreamEvent is one increment from the grounded provider stream.
// Exactly one field is set: Thought carries a raw reasoning segment,
// Answer a token delta of the final text.
type StreamEvent struct {
	Thought string
	Answer  string
}

// GroundedResult is the settled output of a grounded generation call.
type GroundedResult struct {
	Text     string
	Supports []GroundingSupport
	Chunks   []GroundingChunk
}

// GroundedStreamer is the provider boundary for search-augmented
// generation. Implementations stream events as they arrive and return
// the final result with any grounding metadata.
type GroundedStreamer interface {
	StreamGrounded(ctx context.Context, contents []GroundedContent, fn func(StreamEvent)) (*GroundedResult, error)
}

// GroundedSearcher delegates the whole search to a grounded generation
// provider, routing thought segments to progress and accumulating answer
// segments into the payload.
type GroundedSearcher struct {
	streamer GroundedStreamer
	logger   *zap.Logger
}

func NewGroundedSearcher(streamer GroundedStreamer, logger *zap.Logger) *GroundedSearcher {
	return &GroundedSearcher{streamer: streamer, logger: logger}
}

// Search implements Searcher.
func (s *GroundedSearcher) Search(ctx context.Context, query string, history models.Thread, onProgress ProgressFunc) (json.RawMessage, error) {
	emit := func(p Progress) {
		if ctx.Err() != nil {
			return
		}
		onProgress(p)
	}

	emit(Progress{
		Title:   "Processing Query",
		Content: fmt.Sprintf("Analyzing your request and searching for relevant information: %q", query),
	})

	contents := make([]GroundedContent, 0, len(history)+1)
	for _, msg := range history {
		switch m := msg.(type) {
		case models.UserMessage:
			contents = append(contents, GroundedContent{Role: "user", Text: m.Prompt})
		case models.AssistantMessage:
			contents = append(contents, GroundedContent{Role: "model", Text: m.C1Response})
		}
	}
	contents = append(contents, GroundedContent{Role: "user", Text: query})

	result, err := s.streamer.StreamGrounded(ctx, contents, func(ev StreamEvent) {
		if ev.Thought != "" {
			emit(parseThought(ev.Thought))
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("grounded search cancelled: %w", ctx.Err())
		}
		s.logger.Error("grounded search failed", zap.Error(err), zap.String("query", query))
		return nil, fmt.Errorf("grounded search failed: %w", err)
	}

	emit(Progress{
		Title:   "Generating Final Answer",
		Content: "Compiling the information into a comprehensive response.",
	})

	text := AddCitations(result.Text, result.Supports, result.Chunks)
	return json.Marshal(text)
}

// parseThought splits a raw thought segment into a title (first
// non-empty line, bold markers stripped) and content (the remainder).
func parseThought(raw string) Progress {
	trimmed := strings.TrimSpace(raw)

	var lines []string
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	title := "Thinking..."
	if len(lines) > 0 {
		title = strings.ReplaceAll(lines[0], "**", "")
	}

	content := ""
	if len(lines) > 1 {
		content = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	if content == "" {
		content = trimmed
	}

	return Progress{Title: title, Content: content}
}

// GeminiStreamer implements GroundedStreamer over the googleai client.
// The client surfaces answer deltas only; thought segments and grounding
// metadata are not exposed through this transport, so the result carries
// no supports.
type GeminiStreamer struct {
	llm *googleai.GoogleAI
}

func NewGeminiStreamer(ctx context.Context, apiKey, model string) (*GeminiStreamer, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}
	return &GeminiStreamer{llm: llm}, nil
}

func (g *GeminiStreamer) StreamGrounded(ctx context.Context, contents []GroundedContent, fn func(StreamEvent)) (*GroundedResult, error) {
	msgs := make([]llms.MessageContent, 0, len(contents))
	for _, c := range contents {
		role := schema.ChatMessageTypeHuman
		if c.Role == "model" {
			role = schema.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, c.Text))
	}

	var text strings.Builder
	_, err := g.llm.GenerateContent(ctx, msgs,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn(StreamEvent{Answer: string(chunk)})
			text.WriteString(string(chunk))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return &GroundedResult{Text: text.String()}, nil
}
