// Package client talks to the external history and GeoIP services. Both are
// optional: the pipeline runs purely from the live stream when they are
// unreachable.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"flowscope/internal/model"
)

// HistoryClient fetches previously captured flows from the history service.
type HistoryClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewHistoryClient creates a client for the history service at baseURL.
func NewHistoryClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *HistoryClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HistoryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Recent returns up to limit of the most recently captured flows.
func (c *HistoryClient) Recent(ctx context.Context, limit int) ([]model.FlowRecord, error) {
	endpoint := fmt.Sprintf("%s/flows?limit=%d", c.baseURL, limit)
	return c.fetch(ctx, endpoint)
}

// Latest returns the single most recent flow known to the history service.
func (c *HistoryClient) Latest(ctx context.Context) (model.FlowRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/flows/latest", nil)
	if err != nil {
		return model.FlowRecord{}, fmt.Errorf("failed to build history request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.FlowRecord{}, fmt.Errorf("history service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.FlowRecord{}, fmt.Errorf("history service returned status %d", resp.StatusCode)
	}

	var flow model.FlowRecord
	if err := json.NewDecoder(resp.Body).Decode(&flow); err != nil {
		return model.FlowRecord{}, fmt.Errorf("failed to decode history response: %w", err)
	}
	return flow, nil
}

// Search queries the history service by a single field and value.
func (c *HistoryClient) Search(ctx context.Context, field, value string) ([]model.FlowRecord, error) {
	endpoint := fmt.Sprintf("%s/flows/search?%s=%s", c.baseURL, url.QueryEscape(field), url.QueryEscape(value))
	return c.fetch(ctx, endpoint)
}

func (c *HistoryClient) fetch(ctx context.Context, endpoint string) ([]model.FlowRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history service returned status %d", resp.StatusCode)
	}

	var flows []model.FlowRecord
	if err := json.NewDecoder(resp.Body).Decode(&flows); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}
	return flows, nil
}
