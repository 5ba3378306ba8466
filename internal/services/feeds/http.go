package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSource fetches vendor rows from a feed's JSON endpoint. Transient
// failures are retried with backoff; exhausted retries fail only this
// vendor's ingestion run.
type HTTPSource struct {
	client *resty.Client
}

func NewHTTPSource(apiKey string) *HTTPSource {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(15 * time.Second)
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &HTTPSource{client: client}
}

func (h *HTTPSource) Rows(ctx context.Context, feed Feed) ([]RawRow, error) {
	if feed.Endpoint == "" {
		return nil, fmt.Errorf("feed %s has no endpoint", feed.Source)
	}

	resp, err := h.client.R().SetContext(ctx).Get(feed.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s feed: %w", feed.Source, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("feed %s returned status %d", feed.Source, resp.StatusCode())
	}

	var payload struct {
		Rows []RawRow `json:"rows"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s feed: %w", feed.Source, err)
	}
	return payload.Rows, nil
}
