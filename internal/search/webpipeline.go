package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/RichardoC/askweb/internal/models"
	"go.uber.org/zap"
)

// WebSearchAPI is the boundary to the web-search provider.
type WebSearchAPI interface {
	Search(ctx context.Context, req WebSearchRequest) (*WebSearchResponse, error)
}

// WebResult is one aggregated entry of the web pipeline payload.
type WebResult struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Summary   string `json:"summary"`
}

// WebSearcher runs the search-engine strategy: query the search API,
// then fetch, extract and summarize every result URL concurrently. The
// per-URL pipelines are isolated from each other; a failed extraction or
// a summarization timeout yields a placeholder summary for that result
// only. Aggregation waits for all pipelines to settle.
type WebSearcher struct {
	api        WebSearchAPI
	extractor  Extractor
	summarizer Summarizer
	logger     *zap.Logger
	maxResults int
}

func NewWebSearcher(api WebSearchAPI, extractor Extractor, summarizer Summarizer, maxResults int, logger *zap.Logger) *WebSearcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearcher{
		api:        api,
		extractor:  extractor,
		summarizer: summarizer,
		logger:     logger,
		maxResults: maxResults,
	}
}

// Search implements Searcher.
func (s *WebSearcher) Search(ctx context.Context, query string, history models.Thread, onProgress ProgressFunc) (json.RawMessage, error) {
	emit := func(p Progress) {
		if ctx.Err() != nil {
			return
		}
		onProgress(p)
	}

	emit(Progress{
		Title:   "Searching the Web",
		Content: fmt.Sprintf("Finding the most relevant pages for: %q", query),
	})

	resp, err := s.api.Search(ctx, WebSearchRequest{Query: query, Num: s.maxResults})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("web search cancelled: %w", ctx.Err())
		}
		s.logger.Error("web search failed", zap.Error(err), zap.String("query", query))
		return nil, fmt.Errorf("web search failed: %w", err)
	}

	emit(Progress{
		Title:   "Reading Sources",
		Content: fmt.Sprintf("Extracting and summarizing content from %d pages", len(resp.Items)),
	})

	results := make([]WebResult, len(resp.Items))
	var wg sync.WaitGroup
	for i, item := range resp.Items {
		wg.Add(1)
		go func(i int, item WebSearchItem) {
			defer wg.Done()
			results[i] = WebResult{
				Title:     item.Title,
				Link:      item.Link,
				Snippet:   item.Snippet,
				Thumbnail: thumbnailOf(item),
				Summary:   s.summarizeURL(ctx, query, item.Link),
			}
		}(i, item)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("web search cancelled: %w", ctx.Err())
	}

	emit(Progress{
		Title:   "Generating Final Answer",
		Content: "Merging all the summaries into a coherent, accurate answer.",
	})

	return json.Marshal(results)
}

// summarizeURL is the per-URL error boundary: extraction or
// summarization failure degrades to a placeholder, never an error.
func (s *WebSearcher) summarizeURL(ctx context.Context, query, pageURL string) string {
	content, err := s.extractor.Extract(ctx, pageURL)
	if err != nil || content == "" {
		if err != nil && ctx.Err() == nil {
			s.logger.Warn("failed to extract page content",
				zap.Error(err),
				zap.String("url", pageURL))
		}
		return "Could not retrieve content from this source."
	}
	return s.summarizer.Summarize(ctx, query, content)
}

func thumbnailOf(item WebSearchItem) string {
	if item.PageMap == nil || len(item.PageMap.Thumbnails) == 0 {
		return ""
	}
	return item.PageMap.Thumbnails[0].Src
}
