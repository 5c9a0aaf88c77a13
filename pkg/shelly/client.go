// Package shelly is a minimal client for the Shelly Gen1 switch HTTP API:
// GET /relay/0 (or /light/0) returns the current state as JSON, the same URL
// with ?turn=on|off issues a switch command.
package shelly

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type stateResponse struct {
	IsOn bool `json:"ison"`
}

func NewClient(host string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s", host),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// GetState reports whether the switch behind controlPath is on.
func (c *Client) GetState(controlPath string) (bool, error) {
	body, err := c.get(fmt.Sprintf("%s/%s", c.baseURL, controlPath))
	if err != nil {
		return false, err
	}
	var state stateResponse
	if err := json.Unmarshal(body, &state); err != nil {
		return false, fmt.Errorf("shelly: decode state: %w", err)
	}
	return state.IsOn, nil
}

// SetState issues a turn command. The device echoes its state back, which is
// returned so callers can verify the command took effect.
func (c *Client) SetState(controlPath string, on bool) (bool, error) {
	turn := "off"
	if on {
		turn = "on"
	}
	q := url.Values{}
	q.Set("turn", turn)
	body, err := c.get(fmt.Sprintf("%s/%s?%s", c.baseURL, controlPath, q.Encode()))
	if err != nil {
		return false, err
	}
	var state stateResponse
	if err := json.Unmarshal(body, &state); err != nil {
		return false, fmt.Errorf("shelly: decode state: %w", err)
	}
	return state.IsOn, nil
}

func (c *Client) get(rawURL string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("shelly: request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("shelly call",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int64("millis", time.Since(start).Milliseconds()))

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shelly: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("shelly: read body: %w", err)
	}
	return body, nil
}
