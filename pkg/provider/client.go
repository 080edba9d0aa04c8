package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the external voice-call provider over HTTP. Each operation
// makes at most one round trip; cancellation and the request timeout come
// from the caller's context plus the client-side budget.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// ErrorResponse represents a provider error response body
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewClient creates a provider client with the given base URL and API key
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Create creates a new call with the provider
func (c *Client) Create(ctx context.Context, params CreateParams) (*CreateResult, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/calls", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	var result CreateResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid create call response: %w", err)
	}
	return &result, nil
}

// GetStatus fetches the provider's current status for a call
func (c *Client) GetStatus(ctx context.Context, callID string) (*StatusResult, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/calls/%s", callID), nil)
	if err != nil {
		return nil, err
	}

	// Decode twice: once into the typed view, once into the raw payload kept
	// for the call's event list.
	var typed struct {
		Status       string `json:"status"`
		DurationSec  *int   `json:"duration"`
		RecordingURL string `json:"recording_url"`
	}
	if err := json.Unmarshal(body, &typed); err != nil {
		return nil, fmt.Errorf("invalid status response: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("invalid status response: %w", err)
	}

	return &StatusResult{
		Status:       typed.Status,
		DurationSec:  typed.DurationSec,
		RecordingURL: typed.RecordingURL,
		Payload:      raw,
	}, nil
}

// GetTranscript fetches a call's transcript. A 404 or a null transcript body
// means the transcript is not available yet and yields (nil, nil).
func (c *Client) GetTranscript(ctx context.Context, callID string) ([]TranscriptSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/calls/%s/transcript", c.BaseURL, callID), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp.StatusCode, body)
	}

	var result struct {
		Transcript []TranscriptSegment `json:"transcript"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("invalid transcript response: %w", err)
	}
	return result.Transcript, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, c.errorFromResponse(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
}

func (c *Client) errorFromResponse(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("provider request failed: %d %s", status, string(body))
	}
	return fmt.Errorf("provider request failed: %s - %s", errResp.Error, errResp.ErrorDescription)
}
