package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/golang-jwt/jwt/v5"
	jsonitor "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsonitor.ConfigCompatibleWithStandardLibrary

// Configurator defines the interface for providing server configuration and authentication details.
type Configurator interface {
	GetServerURL() string
	GetAPIKey() string
	GetToken() string
	// GetTokenExpiry may return the zero time, in which case the exp claim of the
	// token is used.
	GetTokenExpiry() time.Time
}

// ServerError is the error envelope returned by the server.
type ServerError struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

// HTTPError represents an error response from the server with HTTP status code and message.
type HTTPError struct {
	StatusCode int    // HTTP status code of the error
	Message    string // Error message or response body
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not an *HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsConflict reports whether the server rejected a request because the entity
// version was stale.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// HTTPClient represents a client for making HTTP requests to a REST API server.
type HTTPClient struct {
	config     Configurator
	httpClient *http.Client
	attempts   uint
	retryDelay time.Duration
}

// ClientOptions contains options for configuring the HTTP client.
type ClientOptions struct {
	DisableCertValidation bool          // If true, skips SSL certificate validation
	Timeout               time.Duration // per request, zero means no timeout
	RetryAttempts         uint          // attempts for idempotent requests, at least 1
	RetryDelay            time.Duration // base delay between attempts
}

// NewClient creates a new HTTP client using the provided configuration.
func NewClient(config Configurator, opts ...ClientOptions) *HTTPClient {
	clientOpts := ClientOptions{}
	if len(opts) > 0 {
		clientOpts = opts[0]
	}
	return NewClientWithOptions(config, clientOpts)
}

// NewClientWithOptions creates a new HTTP client using the provided configuration and options.
func NewClientWithOptions(config Configurator, opts ClientOptions) *HTTPClient {
	httpClient := &http.Client{Timeout: opts.Timeout}

	if opts.DisableCertValidation {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 1
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}

	return &HTTPClient{
		config:     config,
		httpClient: httpClient,
		attempts:   opts.RetryAttempts,
		retryDelay: opts.RetryDelay,
	}
}

// RequestOptions contains options for making HTTP requests.
type RequestOptions struct {
	Method string // HTTP method (GET, POST, DELETE)
	Path   string // API endpoint path, appended to the server URL as is
	Body   []byte // Optional request body
}

// Get implements Client.
func (c *HTTPClient) Get(ctx context.Context, path string) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{Method: http.MethodGet, Path: path})
}

// Post implements Client.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) ([]byte, error) {
	data, ok := body.([]byte)
	if !ok {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}
	return c.DoRequest(ctx, RequestOptions{Method: http.MethodPost, Path: path, Body: data})
}

// Delete implements Client.
func (c *HTTPClient) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.DoRequest(ctx, RequestOptions{Method: http.MethodDelete, Path: path})
}

// DoRequest makes an HTTP request with the given options and returns the response body.
// Idempotent requests are retried on network failures and 5xx responses.
func (c *HTTPClient) DoRequest(ctx context.Context, opts RequestOptions) ([]byte, error) {
	attempts := c.attempts
	if opts.Method == http.MethodPost {
		attempts = 1
	}
	return retry.DoWithData(
		func() ([]byte, error) {
			return c.do(ctx, opts)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().Err(err).Uint("attempt", n+1).Str("path", opts.Path).Msg("retrying request")
		}),
	)
}

func (c *HTTPClient) do(ctx context.Context, opts RequestOptions) ([]byte, error) {
	serverURL := strings.TrimSuffix(c.config.GetServerURL(), "/")
	if serverURL == "" {
		return nil, retry.Unrecoverable(fmt.Errorf("server URL is not configured"))
	}
	requestPath := opts.Path
	if !strings.HasPrefix(requestPath, "/") {
		requestPath = "/" + requestPath
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		bodyReader = bytes.NewReader(opts.Body)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, serverURL+requestPath, bodyReader)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth := c.authorization(); auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var serverErr ServerError
		if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Error != "" {
			return nil, &HTTPError{
				StatusCode: resp.StatusCode,
				Message:    serverErr.Error,
			}
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, &HTTPError{
				StatusCode: resp.StatusCode,
				Message:    "server doesn't implement this endpoint",
			}
		}
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	return body, nil
}

// authorization picks the token while it is valid and falls back to the API key.
func (c *HTTPClient) authorization() string {
	token := c.config.GetToken()
	if token != "" {
		expiry := c.config.GetTokenExpiry()
		if expiry.IsZero() {
			expiry = TokenExpiry(token)
		}
		if expiry.IsZero() || time.Now().Before(expiry) {
			return token
		}
	}
	return c.config.GetAPIKey()
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature. It
// returns the zero time if the token is not a JWT or has no exp claim.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}
	return true
}
