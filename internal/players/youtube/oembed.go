package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

const (
	NoEmbedURL = "https://noembed.com/embed"
	WatchURL   = "https://www.youtube.com/watch?v="
)

// OEmbed is the subset of an oEmbed response the player reads.
type OEmbed struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
	Error        string `json:"error"`
}

type OEmbedClient struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
}

func NewOEmbedClient(baseURL string) *OEmbedClient {
	if baseURL == "" {
		baseURL = NoEmbedURL
	}
	return &OEmbedClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:98.0) Gecko/20100101 Firefox/98.0",
		baseURL:   baseURL,
	}
}

func (c *OEmbedClient) Fetch(ctx context.Context, videoID string) (*OEmbed, error) {
	requestURL := fmt.Sprintf("%s?url=%s", c.baseURL, url.QueryEscape(WatchURL+videoID))
	log.Debug("Fetching oEmbed", "url", requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oEmbed returned status %d", resp.StatusCode)
	}

	var result OEmbed
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("oEmbed error: %s", result.Error)
	}

	return &result, nil
}
