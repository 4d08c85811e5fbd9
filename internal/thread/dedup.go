package thread

import "github.com/RichardoC/askweb/internal/models"

// CachedTurn is a user prompt paired with its immediate assistant reply.
type CachedTurn struct {
	User      models.UserMessage
	Assistant models.AssistantMessage
}

// FindCachedTurn scans the history from index 0 forward for the first
// user message whose prompt exactly equals the candidate (case-sensitive,
// no trimming) and whose immediate successor is an assistant message.
// The first match wins: a later identical prompt never overrides an
// earlier cached answer. Returns nil when no such pair exists.
func FindCachedTurn(prompt string, history models.Thread) *CachedTurn {
	for i := 0; i+1 < len(history); i++ {
		user, ok := history[i].(models.UserMessage)
		if !ok || user.Prompt != prompt {
			continue
		}
		assistant, ok := history[i+1].(models.AssistantMessage)
		if !ok {
			continue
		}
		return &CachedTurn{User: user, Assistant: assistant}
	}
	return nil
}
