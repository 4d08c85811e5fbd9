package main

import (
	"context"
	"net/http"
	"time"

	"github.com/RichardoC/askweb/internal/api"
	"github.com/RichardoC/askweb/internal/ask"
	"github.com/RichardoC/askweb/internal/cache"
	"github.com/RichardoC/askweb/internal/config"
	"github.com/RichardoC/askweb/internal/llm"
	"github.com/RichardoC/askweb/internal/search"
	"github.com/RichardoC/askweb/internal/thread"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	store, err := cache.New(cache.Config{RedisURL: cfg.RedisURL}, logger)
	if err != nil {
		logger.Fatal("failed to initialize cache store", zap.Error(err))
	}
	repo := thread.NewRepository(store, logger, cfg.ThreadTTL)

	llmClient, err := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	generator := llm.New(llmClient, logger)

	cse := search.NewCSEClient(cfg.GoogleAPIKey, cfg.GoogleCX)

	var searcher search.Searcher
	switch cfg.SearchMode {
	case config.SearchModeGrounded:
		streamer, err := search.NewGeminiStreamer(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal("failed to initialize grounded search", zap.Error(err))
		}
		searcher = search.NewGroundedSearcher(streamer, logger)
		logger.Info("using grounded search strategy")
	default:
		summarizer := search.NewLLMSummarizer(llmClient, 5*time.Second, logger)
		searcher = search.NewWebSearcher(cse, search.NewReadabilityExtractor(), summarizer, 5, logger)
		logger.Info("using web search strategy")
	}

	orchestrator := ask.NewOrchestrator(repo, searcher, generator, logger)
	handler := api.NewHandler(repo, orchestrator, cse, logger)

	http.HandleFunc("/api/ask", handler.HandleAsk)
	http.HandleFunc("/api/validate-thread", handler.HandleValidateThread)
	http.HandleFunc("/api/search/web", handler.HandleWebSearch)
	http.HandleFunc("/api/search/image", handler.HandleImageSearch)

	logger.Info("Starting server", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, nil); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
