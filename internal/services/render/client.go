package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/showforge/showforge/internal/common"
)

// Client calls the external render service. The dispatch request uses a
// long timeout because the response only acknowledges handoff.
type Client struct {
	serviceURL string
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewClient creates a render service client from configuration
func NewClient(config *common.RenderConfig, logger arbor.ILogger) *Client {
	timeout := common.ParseDurationOr(config.RequestTimeout, time.Hour)

	return &Client{
		serviceURL: config.ServiceURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Dispatch hands one render request to the external service
func (c *Client) Dispatch(ctx context.Context, req *DispatchRequest) error {
	if c.serviceURL == "" {
		return common.Errorf(common.ErrUpstreamRender, "render service URL is not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal render request: %w", err)
	}

	url := c.serviceURL + "/render"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build render request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info().
		Str("episode_id", req.EpisodeID).
		Str("queue_job_id", req.QueueJobID).
		Int("shots", len(req.Storyboard)).
		Msg("Dispatching render request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return common.WrapError(common.ErrUpstreamRender, "render dispatch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return common.Errorf(common.ErrUpstreamRender, "render service returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
