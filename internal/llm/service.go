package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/RichardoC/askweb/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// Service generates the final user-facing response from the full thread
// context, streaming token deltas as they arrive.
type Service struct {
	llm    llms.Model
	logger *zap.Logger
}

// NewOpenAIClient builds a client for any OpenAI-compatible endpoint.
func NewOpenAIClient(baseURL, token, model string) (llms.Model, error) {
	client, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	return client, nil
}

func New(model llms.Model, logger *zap.Logger) *Service {
	return &Service{llm: model, logger: logger}
}

// StreamResponse drives one generation pass over the thread history.
// The in-flight assistant message is excluded from the context; its
// search payload (or, on a degraded pass, the error text with an
// instruction to respond gracefully) is appended as the final assistant
// context entry. Token deltas are forwarded through emit as they arrive
// and the accumulated text is returned. Emission stops as soon as the
// context is cancelled; the partial text accumulated so far is still
// returned alongside the error.
func (s *Service) StreamResponse(ctx context.Context, history models.Thread, current models.AssistantMessage, errorMessage string, emit func(chunk string) error) (string, error) {
	msgs := make([]llms.MessageContent, 0, len(history)+2)
	msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt))

	for _, msg := range history {
		if msg.ID() == current.MessageID {
			continue
		}
		switch m := msg.(type) {
		case models.UserMessage:
			msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeHuman, m.Prompt))
		case models.AssistantMessage:
			content := m.C1Response
			if content == "" {
				content = "Here is the response from the web search: " + string(m.SearchResponse)
			}
			msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeAI, content))
		}
	}

	final := string(current.SearchResponse)
	if errorMessage != "" {
		final = fmt.Sprintf("There was an error during the search: %s. Please respond to the user gracefully.", errorMessage)
	}
	msgs = append(msgs, llms.TextParts(schema.ChatMessageTypeAI, final))

	var text strings.Builder
	_, err := s.llm.GenerateContent(ctx, msgs,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			text.WriteString(string(chunk))
			return emit(string(chunk))
		}),
	)
	if err != nil {
		return text.String(), err
	}
	return text.String(), nil
}
