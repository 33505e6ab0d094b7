package wordcloud

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Renderer options are fixed: square PNG with stop-word removal, matching
// the QuickChart word-cloud API.
const (
	imageSize     = 600
	renderTimeout = 60 * time.Second
)

// Client calls an external word-cloud renderer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: renderTimeout,
		},
	}
}

// Render submits the token stream as a comma-joined, percent-encoded word
// list and returns the raw image bytes.
func (c *Client) Render(ctx context.Context, tokens []string) ([]byte, error) {
	escaped := make([]string, len(tokens))
	for i, tok := range tokens {
		escaped[i] = url.QueryEscape(tok)
	}

	// The comma separators are part of the word-list contract, so the query
	// string is assembled by hand instead of through url.Values.
	reqURL := fmt.Sprintf(
		"%s/wordcloud?text=%s&useWordList=true&removeStopwords=true&format=png&width=%d&height=%d",
		c.baseURL, strings.Join(escaped, ","), imageSize, imageSize,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer returned status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
