// Package api is the client of the remote expense-splitting HTTP API.
//
// Every call carries the caller's session explicitly. Requests are rate limited,
// retried with exponential backoff on transient failures and guarded by one
// circuit breaker per remote service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/infrastructure/metrics"
)

// Remote services. Each gets its own circuit breaker and metric label.
const (
	ServiceAuth        = "auth"
	ServiceGroups      = "groups"
	ServiceExpenses    = "expenses"
	ServiceSettlements = "settlements"
	ServiceReports     = "reports"
)

// IdempotencyHeader carries the key that lets the server drop replayed writes.
const IdempotencyHeader = "Idempotency-Key"

const (
	defaultMaxResponseBytes = 32 << 20
	maxMessageRunes         = 200
)

// Config configures the client.
type Config struct {
	BaseURL         string
	AuthURL         string
	Timeout         time.Duration
	MaxRetries      uint64
	RateLimit       float64
	RateBurst       int
	BreakerTimeout  time.Duration
	BreakerFailures uint32

	// InitialBackoff defaults to 100ms.
	InitialBackoff time.Duration
	UserAgent      string

	// MaxResponseBytes caps response bodies. Larger responses fail with
	// domain.ErrRemoteRejected. Defaults to 32 MiB.
	MaxResponseBytes int64
}

// Client talks to the remote API.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a new Client.
func New(cfg Config, httpClient *http.Client, m *metrics.Metrics, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if m == nil {
		m = metrics.New()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = cfg.BaseURL
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 100 * time.Millisecond
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "splitledger"
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaultMaxResponseBytes
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		cfg:      cfg,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		metrics:  m,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	for _, service := range []string{ServiceAuth, ServiceGroups, ServiceExpenses, ServiceSettlements, ServiceReports} {
		c.breakers[service] = c.newBreaker(service)
	}

	return c
}

func (c *Client) newBreaker(service string) *gobreaker.CircuitBreaker {
	failures := c.cfg.BreakerFailures
	c.metrics.BreakerState.WithLabelValues(service).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "api-" + service,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRemoteFailure(err)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.metrics.BreakerState.WithLabelValues(service).Set(float64(to))
			c.logger.Warn().
				Str("service", service).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// BreakerState returns the state of a service's circuit breaker.
func (c *Client) BreakerState(service string) gobreaker.State {
	if b, ok := c.breakers[service]; ok {
		return b.State()
	}
	return gobreaker.StateClosed
}

type request struct {
	service        string
	operation      string
	method         string
	auth           bool
	path           string
	query          url.Values
	body           any
	session        *domain.Session
	idempotencyKey string
	accept         string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// doJSON performs req and decodes a successful JSON answer into out, if given.
func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	resp, err := c.execute(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", domain.ErrRemoteRejected, req.operation, err)
	}

	return nil
}

// execute runs req through the circuit breaker, the rate limiter and the retry loop.
func (c *Client) execute(ctx context.Context, req request) (*response, error) {
	if req.session != nil && req.session.Token == "" {
		return nil, domain.ErrNoSession
	}

	var payload []byte
	if req.body != nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", req.operation, err)
		}
	}

	start := time.Now()
	breaker := c.breakers[req.service]

	result, err := breaker.Execute(func() (any, error) {
		return c.retry(ctx, req, payload)
	})

	status := "error"
	var apiErr *Error
	switch {
	case err == nil:
		status = strconv.Itoa(result.(*response).status)
	case errors.As(err, &apiErr):
		status = strconv.Itoa(apiErr.StatusCode)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "circuit_open"
		err = fmt.Errorf("%w: %s service: %w", domain.ErrRemoteUnavailable, req.service, err)
	}

	elapsed := time.Since(start)
	c.metrics.APIRequests.WithLabelValues(req.service, req.operation, status).Inc()
	c.metrics.APIDuration.WithLabelValues(req.service, req.operation).Observe(elapsed.Seconds())

	event := c.logger.Debug()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.
		Str("service", req.service).
		Str("operation", req.operation).
		Str("method", req.method).
		Str("path", req.path).
		Str("status", status).
		Dur("duration", elapsed).
		Msg("api request")

	if err != nil {
		return nil, err
	}
	return result.(*response), nil
}

func (c *Client) retry(ctx context.Context, req request, payload []byte) (*response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	attempt := 0
	var resp *response

	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			c.metrics.APIRetries.WithLabelValues(req.service, req.operation).Inc()
			c.logger.Debug().
				Str("operation", req.operation).
				Int("attempt", attempt).
				Msg("retrying api request")
		}

		if err := c.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		r, err := c.send(ctx, req, payload)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if errors.Is(err, domain.ErrRemoteRejected) {
				return backoff.Permanent(err)
			}
			return fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
		}

		if r.status >= 200 && r.status < 300 {
			resp = r
			return nil
		}

		apiErr := newError(req.method, req.path, r.status, r.body)
		if retryableStatus(r.status) {
			return apiErr
		}
		return backoff.Permanent(apiErr)
	}, backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx))

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) wait(ctx context.Context) error {
	start := time.Now()
	err := c.limiter.Wait(ctx)
	c.metrics.RateLimitWait.Observe(time.Since(start).Seconds())
	return err
}

func (c *Client) send(ctx context.Context, req request, payload []byte) (*response, error) {
	base := c.cfg.BaseURL
	if req.auth {
		base = c.cfg.AuthURL
	}

	target := strings.TrimRight(base, "/") + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if req.accept != "" {
		httpReq.Header.Set("Accept", req.accept)
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.session != nil {
		httpReq.Header.Set("Authorization", "Bearer "+req.session.Token)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(IdempotencyHeader, req.idempotencyKey)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.cfg.MaxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.cfg.MaxResponseBytes {
		return nil, fmt.Errorf("%w: %s %s: response larger than %d bytes",
			domain.ErrRemoteRejected, req.method, req.path, c.cfg.MaxResponseBytes)
	}

	return &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}, nil
}

func pathf(format string, ids ...string) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = url.PathEscape(id)
	}
	return fmt.Sprintf(format, args...)
}
