package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Search strategy selection. Grounded delegates the whole search to a
// search-augmented generation provider; web runs the custom-search plus
// extraction plus summarization pipeline.
const (
	SearchModeGrounded = "grounded"
	SearchModeWeb      = "web"
)

// Config holds all runtime settings, read from the environment once at
// startup and passed explicitly into every constructor.
type Config struct {
	Addr string

	// Empty selects the no-op cache (no thread persistence).
	RedisURL  string
	ThreadTTL time.Duration

	// OpenAI-compatible endpoint for response generation and
	// summarization.
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// Grounded search provider.
	GeminiAPIKey string
	GeminiModel  string

	// Google Custom Search.
	GoogleAPIKey string
	GoogleCX     string

	SearchMode string
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Addr:         getenv("ADDR", ":8100"),
		RedisURL:     os.Getenv("REDIS_URL"),
		ThreadTTL:    time.Duration(getenvInt("THREAD_TTL_SECONDS", 3600)) * time.Second,
		LLMBaseURL:   getenv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
		LLMModel:     getenv("LLM_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GoogleCX:     os.Getenv("GOOGLE_CX_KEY"),
		SearchMode:   os.Getenv("SEARCH_MODE"),
	}

	if cfg.SearchMode == "" {
		if cfg.GeminiAPIKey != "" {
			cfg.SearchMode = SearchModeGrounded
		} else {
			cfg.SearchMode = SearchModeWeb
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
