package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 4 << 20

type SearchRequest struct {
	Vector         []float32      `json:"vector"`
	Limit          int            `json:"limit"`
	WithPayload    bool           `json:"with_payload"`
	ScoreThreshold *float64       `json:"score_threshold,omitempty"`
	Filter         map[string]any `json:"filter,omitempty"`
}

type SearchResponse struct {
	Result []ScoredPoint `json:"result"`
	Status any           `json:"status,omitempty"`
}

type ScoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// QdrantClient talks to the Qdrant HTTP API.
type QdrantClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewQdrantClient(baseURL, apiKey string, timeout time.Duration) (*QdrantClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid qdrant url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &QdrantClient{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SearchPoints runs a nearest-neighbour search in collection.
func (c *QdrantClient) SearchPoints(ctx context.Context, collection string, req SearchRequest) (*SearchResponse, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, url.PathEscape(collection))

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call qdrant search: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read qdrant response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qdrant search status=%d body=%s", resp.StatusCode, string(raw))
	}

	var out SearchResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode qdrant response: %w", err)
	}
	return &out, nil
}
