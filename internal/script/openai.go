package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Static errors for OpenAI client operations.
var (
	// ErrAPIKeyNotSet is returned when the OPENAI_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("script: OPENAI_API_KEY environment variable is not set")
	// ErrContentRequired is returned when no source content is provided.
	ErrContentRequired = errors.New("script: content is required")
	// ErrEmptyCompletion is returned when the model returns no usable text.
	ErrEmptyCompletion = errors.New("script: empty completion returned")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("script: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("script: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("script: request failed")
)

const scriptPrompt = `You are a professional video scriptwriter with expertise in storytelling and voice-optimized scripting.

Your task is to:
	1.	Analyze the provided content and identify the core story, theme, or message.
	2.	Create a compelling, emotionally engaging, and conversational narration script suitable for audio storytelling.
	3.	Structure the script with a clear introduction, body, and conclusion.
	4.	Ensure natural transitions between ideas and optimize for text-to-voice delivery.
	5.	Keep the script between 100 and 150 words.
	6.	Write only the final script. Do not explain your steps.

Content to analyze and transform into a script:
%s`

// OpenAIGenerator generates narration scripts via the OpenAI chat completions API.
type OpenAIGenerator struct {
	apiKey      string
	model       string
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// Compile-time check that OpenAIGenerator implements Generator.
var _ Generator = (*OpenAIGenerator)(nil)

// Option is a function that configures an OpenAIGenerator.
type Option func(*OpenAIGenerator)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(g *OpenAIGenerator) {
		g.apiKey = key
	}
}

// WithModel sets the model used for generation.
func WithModel(model string) Option {
	return func(g *OpenAIGenerator) {
		g.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *OpenAIGenerator) {
		g.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the OpenAI API.
func WithBaseURL(url string) Option {
	return func(g *OpenAIGenerator) {
		g.baseURL = url
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) Option {
	return func(g *OpenAIGenerator) {
		g.maxRetries = n
	}
}

// NewOpenAIGenerator creates a new OpenAI script generator.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable OPENAI_API_KEY.
func NewOpenAIGenerator(opts ...Option) (*OpenAIGenerator, error) {
	g := &OpenAIGenerator{
		model:       "gpt-4o",
		baseURL:     "https://api.openai.com/v1",
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		maxRetries:  2,
		baseBackoff: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.apiKey == "" {
		g.apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if g.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return g, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces a narration script for the given source content.
func (g *OpenAIGenerator) Generate(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrContentRequired
	}

	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(scriptPrompt, content)},
		},
		MaxTokens: 1000,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("script: marshal request: %w", err)
	}

	var resp chatResponse
	if err := g.doRequestWithRetry(ctx, g.baseURL+"/chat/completions", bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, resp.Error.Message)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (g *OpenAIGenerator) doRequestWithRetry(ctx context.Context, url string, body []byte, result any) error {
	var lastErr error
	backoff := g.baseBackoff

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("script: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := g.doRequest(ctx, url, body, result)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("script: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (g *OpenAIGenerator) doRequest(ctx context.Context, url string, body []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("script: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("script: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("script: read response: %w", err)}
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
			return fmt.Errorf("script: unmarshal response: %w", err)
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
