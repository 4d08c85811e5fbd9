package thread

import (
	"context"
	"encoding/json"
	"time"

	"github.com/RichardoC/askweb/internal/cache"
	"github.com/RichardoC/askweb/internal/models"
	"go.uber.org/zap"
)

const keyPrefix = "thread:"

// DefaultTTL bounds a thread's lifetime; every write rewrites the full
// list and resets the clock.
const DefaultTTL = time.Hour

// Repository owns persistence of thread histories. It is a stateless
// facade over the cache store: every operation is a read-modify-write of
// the entire serialized message list. Concurrent writers to the same
// thread id can clobber each other's append; there is no optimistic
// locking. See the race test for a demonstration.
type Repository struct {
	store  cache.Store
	logger *zap.Logger
	ttl    time.Duration
}

// NewRepository builds a repository over the given store. A zero ttl
// falls back to DefaultTTL.
func NewRepository(store cache.Store, logger *zap.Logger, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{store: store, logger: logger, ttl: ttl}
}

// Get returns the thread history, or nil on a miss. Store errors are
// logged and treated as a miss; persistence failures never surface as
// request failures.
func (r *Repository) Get(ctx context.Context, threadID string) models.Thread {
	data, err := r.store.Get(ctx, keyPrefix+threadID)
	if err != nil {
		r.logger.Error("failed to read thread from cache",
			zap.Error(err),
			zap.String("threadId", threadID))
		return nil
	}
	if data == nil {
		return nil
	}

	var thread models.Thread
	if err := json.Unmarshal(data, &thread); err != nil {
		r.logger.Error("failed to decode cached thread",
			zap.Error(err),
			zap.String("threadId", threadID))
		return nil
	}
	return thread
}

// AddUserMessage appends a freshly constructed user message and writes the
// full list back with the TTL reset.
func (r *Repository) AddUserMessage(ctx context.Context, threadID, prompt string) models.UserMessage {
	thread := r.Get(ctx, threadID)
	msg := models.NewUserMessage(prompt)
	r.save(ctx, threadID, append(thread, msg))
	return msg
}

// AddAssistantMessage appends a new assistant message, optionally seeded
// with initial data such as the search response.
func (r *Repository) AddAssistantMessage(ctx context.Context, threadID string, seed *models.AssistantSeed) models.AssistantMessage {
	thread := r.Get(ctx, threadID)
	msg := models.NewAssistantMessage(seed)
	r.save(ctx, threadID, append(thread, msg))
	return msg
}

// UpdateAssistantMessage shallow-merges updates into the matching
// assistant entry. A missing thread or message is a no-op, not an error.
func (r *Repository) UpdateAssistantMessage(ctx context.Context, threadID, messageID string, update models.AssistantUpdate) {
	thread := r.Get(ctx, threadID)
	if thread == nil {
		return
	}

	for i, msg := range thread {
		assistant, ok := msg.(models.AssistantMessage)
		if !ok || assistant.MessageID != messageID {
			continue
		}
		assistant.Apply(update)
		thread[i] = assistant
		r.save(ctx, threadID, thread)
		return
	}
}

func (r *Repository) save(ctx context.Context, threadID string, thread models.Thread) {
	data, err := json.Marshal(thread)
	if err != nil {
		r.logger.Error("failed to encode thread",
			zap.Error(err),
			zap.String("threadId", threadID))
		return
	}
	if err := r.store.Set(ctx, keyPrefix+threadID, data, r.ttl); err != nil {
		r.logger.Error("failed to save thread to cache",
			zap.Error(err),
			zap.String("threadId", threadID))
	}
}
