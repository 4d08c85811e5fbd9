package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const cseEndpoint = "https://www.googleapis.com/customsearch/v1"

// placeholderImageURL is returned when image search fails or finds
// nothing, so the client always has something to render.
const placeholderImageURL = "https://via.placeholder.com/360x240"

// WebSearchRequest carries the supported Custom Search parameters.
type WebSearchRequest struct {
	Query        string `json:"query"`
	Num          int    `json:"num,omitempty"`
	Country      string `json:"cr,omitempty"`
	Geolocation  string `json:"gl,omitempty"`
	SiteSearch   string `json:"siteSearch,omitempty"`
	ExactTerms   string `json:"exactTerms,omitempty"`
	DateRestrict string `json:"dateRestrict,omitempty"`
}

// WebSearchItem is a single web search result.
type WebSearchItem struct {
	Title   string   `json:"title"`
	Link    string   `json:"link"`
	Snippet string   `json:"snippet"`
	PageMap *PageMap `json:"pagemap,omitempty"`
}

type PageMap struct {
	Thumbnails []Thumbnail `json:"cse_thumbnail,omitempty"`
}

type Thumbnail struct {
	Src string `json:"src"`
}

// WebSearchResponse is the subset of the Custom Search response the
// pipeline consumes.
type WebSearchResponse struct {
	Items []WebSearchItem `json:"items"`
}

// ImageResult is a single image search hit.
type ImageResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// CSEClient calls the Google Custom Search REST API.
type CSEClient struct {
	apiKey     string
	cx         string
	endpoint   string
	httpClient *http.Client
}

func NewCSEClient(apiKey, cx string) *CSEClient {
	return &CSEClient{
		apiKey:     apiKey,
		cx:         cx,
		endpoint:   cseEndpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Search runs a web search and returns the top results.
func (c *CSEClient) Search(ctx context.Context, req WebSearchRequest) (*WebSearchResponse, error) {
	num := req.Num
	if num <= 0 {
		num = 10
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", req.Query)
	params.Set("num", strconv.Itoa(num))
	if req.Country != "" {
		params.Set("cr", req.Country)
	}
	if req.Geolocation != "" {
		params.Set("gl", req.Geolocation)
	}
	if req.SiteSearch != "" {
		params.Set("siteSearch", req.SiteSearch)
	}
	if req.ExactTerms != "" {
		params.Set("exactTerms", req.ExactTerms)
	}
	if req.DateRestrict != "" {
		params.Set("dateRestrict", req.DateRestrict)
	}

	var out WebSearchResponse
	if err := c.getJSON(ctx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchImage looks up a single safe, large image for the query. Any
// failure degrades to a placeholder image rather than an error.
func (c *CSEClient) SearchImage(ctx context.Context, query string) ImageResult {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.cx)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", "1")
	params.Set("safe", "active")
	params.Set("imgSize", "large")

	var out struct {
		Items []struct {
			Link  string `json:"link"`
			Image struct {
				ThumbnailLink string `json:"thumbnailLink"`
			} `json:"image"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, params, &out); err != nil || len(out.Items) == 0 {
		return ImageResult{URL: placeholderImageURL, ThumbnailURL: placeholderImageURL}
	}

	return ImageResult{
		URL:          out.Items[0].Link,
		ThumbnailURL: out.Items[0].Image.ThumbnailLink,
	}
}

func (c *CSEClient) getJSON(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("custom search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("custom search returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
