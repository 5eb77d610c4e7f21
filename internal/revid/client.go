package revid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Static errors for revid client operations.
var (
	// ErrAPIKeyNotSet is returned when the REVID_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("revid: REVID_API_KEY environment variable is not set")
	// ErrJobIDRequired is returned when the job ID is not provided.
	ErrJobIDRequired = errors.New("revid: job ID is required")
	// ErrScriptRequired is returned when a render is submitted without a script.
	ErrScriptRequired = errors.New("revid: script is required")
	// ErrNoJobIDReturned is returned when the render response contains no job ID.
	ErrNoJobIDReturned = errors.New("revid: render failed: no job ID returned")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("revid: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("revid: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("revid: request failed")
)

// Client defines the interface for interacting with the revid.ai API.
type Client interface {
	// Render submits a render job and returns the provider job ID ("pid").
	Render(ctx context.Context, req RenderRequest) (string, error)

	// Status reads the raw state of a render job.
	Status(ctx context.Context, jobID string) (StatusPayload, error)

	// Voices lists the provider's voice catalogue.
	Voices(ctx context.Context) ([]Voice, error)
}

// HTTPClient is the HTTP implementation of the revid Client interface.
type HTTPClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
	now         func() time.Time
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the revid API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = u
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new revid HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable REVID_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     "https://www.revid.ai/api/public/v2",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("REVID_API_KEY")
	}
	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Render submits a render job with the script, render settings, and webhook
// callback URL, and returns the provider-assigned job ID.
func (c *HTTPClient) Render(ctx context.Context, req RenderRequest) (string, error) {
	if req.Script == "" {
		return "", ErrScriptRequired
	}

	preset, ok := stylePresets[req.Style]
	if !ok {
		preset = "LEONARDO"
	}
	ratio, ok := aspectRatios[req.Aspect]
	if !ok {
		ratio = "16 / 9"
	}

	body := renderRequest{
		Webhook: req.WebhookURL,
		CreationParams: creationParams{
			MediaType:             "stockVideo",
			CaptionPresetName:     "Wrap 1",
			CaptionPositionName:   "bottom",
			SelectedVoice:         req.Voice,
			HasEnhancedGeneration: true,
			GenerationPreset:      preset,
			GenerationUserPrompt:  "Default style",
			SelectedAudio:         "Observer",
			Origin:                "/create",
			InputText:             req.Script,
			FlowType:              "text-to-video",
			Slug:                  "create-tiktok-video",
			HasToGenerateVoice:    true,
			HasToSearchMedia:      true,
			Ratio:                 ratio,
			SourceType:            "contentScraping",
			SelectedStoryStyle:    storyStyle{Value: "custom", Label: "Custom"},
			HasToGenerateVideos:   true,
			AudioURL:              "https://cdn.revid.ai/audio/observer.mp3",
		},
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("revid: marshal request: %w", err)
	}

	var resp renderResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, c.baseURL+"/render", bodyBytes, &resp); err != nil {
		return "", err
	}

	jobID := resp.PID
	if jobID == "" {
		jobID = resp.ID
	}
	if jobID == "" {
		if resp.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrRequestFailed, resp.Message)
		}
		return "", ErrNoJobIDReturned
	}

	return jobID, nil
}

// Status reads the raw state of a render job. A cache-busting query
// parameter keeps intermediaries from serving stale job states.
func (c *HTTPClient) Status(ctx context.Context, jobID string) (StatusPayload, error) {
	if jobID == "" {
		return StatusPayload{}, ErrJobIDRequired
	}

	u := fmt.Sprintf("%s/status?pid=%s&_=%d", c.baseURL, url.QueryEscape(jobID), c.now().UnixMilli())

	var payload StatusPayload
	if err := c.doRequestWithRetry(ctx, http.MethodGet, u, nil, &payload); err != nil {
		return StatusPayload{}, err
	}
	if payload.PID == "" {
		payload.PID = jobID
	}

	return payload, nil
}

// Voices lists the provider's voice catalogue.
func (c *HTTPClient) Voices(ctx context.Context) ([]Voice, error) {
	var resp voicesResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, c.baseURL+"/voices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Voices, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, u string, body []byte, result any) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("revid: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, method, u, body, result)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("revid: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, u string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("revid: create request: %w", err)
	}

	// The revid API authenticates via a bare "key" header.
	req.Header.Set("key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("revid: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("revid: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("revid: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
