package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"roomdesign/internal/infra"
)

// ErrMissingAPIKey is returned before any network activity when no key is configured.
var ErrMissingAPIKey = errors.New("genai: GEMINI_API_KEY is not set")

const (
	defaultBaseURL            = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout            = 120 * time.Second
	defaultBreakerMaxFailures = 5
	defaultBreakerHalfOpen    = 4
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey             string
	BaseURL            string
	HTTPClient         *http.Client
	Logger             *infra.Logger
	BreakerMaxFailures uint32
	BreakerCooldown    time.Duration

	// BreakerHalfOpenRequests is how many calls may probe a recovering
	// upstream at once. It should cover one visualization fan-out.
	BreakerHalfOpenRequests uint32
}

// Client calls the Gemini generateContent endpoint over plain HTTP. Calls are
// never retried; a circuit breaker stops hammering the API after repeated
// upstream failures.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
	breaker    *gobreaker.CircuitBreaker
}

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini status %d", e.Code)
	}
	return fmt.Sprintf("gemini status %d: %s", e.Code, e.Message)
}

// NewClient constructs a Gemini client. Callers may provide a nil HTTP client;
// one with a generous timeout is created since image edits are slow.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}

	maxFailures := opts.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	halfOpen := opts.BreakerHalfOpenRequests
	if halfOpen == 0 {
		halfOpen = defaultBreakerHalfOpen
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	c := &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: client,
		logger:     logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: halfOpen,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("genai: circuit breaker state changed")
		},
	})
	return c
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// GenerateContent posts req to models/{model}:generateContent.
func (c *Client) GenerateContent(ctx context.Context, model string, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("genai: model is required")
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var resp Response
		path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
		if err := c.invokeGemini(ctx, path, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("model", model).
			Dur("elapsed", time.Since(start)).
			Msg("genai: generateContent failed")
		return nil, err
	}

	c.logger.Debug().
		Str("model", model).
		Dur("elapsed", time.Since(start)).
		Msg("genai: generateContent succeeded")
	return out.(*Response), nil
}

func (c *Client) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var apiErr errorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return &StatusError{Code: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// isBreakerSuccess keeps caller mistakes and cancellations from tripping the
// breaker; only upstream trouble counts.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < http.StatusInternalServerError && statusErr.Code != http.StatusTooManyRequests
	}
	return false
}
