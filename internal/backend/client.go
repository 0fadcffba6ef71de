// Package backend is the typed client for the shop REST backend.
package backend

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

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/domain"
)

const (
	// TokenHeader carries the shopper's session token to the backend.
	TokenHeader = "x-token"

	defaultMaxResponseSize = 5 * 1024 * 1024
	defaultTimeout         = 10 * time.Second
)

// ErrTransport marks failures to reach the backend at all (network errors,
// timeouts, open circuit).
var ErrTransport = errors.New("backend unreachable")

// ErrDecode marks a 2xx answer whose body could not be read. The request
// itself was accepted by the backend.
var ErrDecode = errors.New("unreadable backend response")

// APIError is a non-2xx answer from the backend. Message is the server's own
// text and is meant to be shown to the shopper as is.
type APIError struct {
	Status  int
	Code    string
	Message string
	// NewBalance is set when a wallet error reports the current balance.
	NewBalance domain.Amount
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.Status)
	}
	return e.Message
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxResponseSize int64
	// BreakerFailures is the number of consecutive transport or 5xx failures
	// that opens the circuit.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	maxBody    int64
	logger     *zap.Logger
}

type rawResponse struct {
	status int
	body   []byte
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = defaultMaxResponseSize
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}

	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBody: cfg.MaxResponseSize,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:    "shop-backend",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c, nil
}

type tokenKey struct{}

// WithToken attaches the shopper token that outgoing requests forward.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// do sends one request and decodes a 2xx body into out. what names the
// resource for transport error messages ("could not load <what>").
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, what string) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", what, err)
		}
		payload = b
	}

	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		r, err := c.send(ctx, method, path, query, payload)
		if err != nil {
			return nil, err
		}
		if r.status >= http.StatusInternalServerError {
			// 5xx counts against the breaker but is still reported as an
			// API error below.
			return r, &serverError{status: r.status}
		}
		return r, nil
	})
	var srvErr *serverError
	if err != nil && !errors.As(err, &srvErr) {
		c.logger.Debug("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("could not load %s: %w: %v", what, ErrTransport, err)
	}

	if resp.status < 200 || resp.status >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrapData(resp.body), out); err != nil {
		return fmt.Errorf("could not load %s: %w: %v", what, ErrDecode, err)
	}
	return nil
}

type serverError struct{ status int }

func (e *serverError) Error() string { return fmt.Sprintf("backend HTTP %d", e.status) }

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*rawResponse, error) {
	// path segments are already escaped by the callers
	u, err := url.Parse(c.baseURL.String() + path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &rawResponse{status: resp.StatusCode, body: data}, nil
}

type errorBody struct {
	Message    string          `json:"message"`
	Msg        string          `json:"msg"`
	Error      string          `json:"error"`
	Code       json.RawMessage `json:"code"`
	NewBalance domain.Amount   `json:"newBalance"`
}

func decodeAPIError(resp *rawResponse) *APIError {
	apiErr := &APIError{Status: resp.status}

	var eb errorBody
	if err := json.Unmarshal(resp.body, &eb); err != nil {
		return apiErr
	}
	switch {
	case eb.Message != "":
		apiErr.Message = eb.Message
	case eb.Msg != "":
		apiErr.Message = eb.Msg
	default:
		apiErr.Message = eb.Error
	}
	apiErr.Code = strings.Trim(string(eb.Code), `" `)
	if apiErr.Code == "null" {
		apiErr.Code = ""
	}
	apiErr.NewBalance = eb.NewBalance
	return apiErr
}

// unwrapData strips a {"data": ...} envelope when the backend uses one.
func unwrapData(body []byte) []byte {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return body
	}
	return env.Data
}

func pathEscape(id string) string {
	return url.PathEscape(id)
}

// BalanceHint reports the balance the backend attached to a wallet error.
func (e *APIError) BalanceHint() domain.Amount {
	return e.NewBalance
}
