// Package client provides the resilient HTTP request executor used by the
// CMS services: per-attempt timeouts, retries with backoff, quota tracking
// and typed errors.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/cms-client/pkg/logging"
	"github.com/Sternrassler/cms-client/pkg/ratelimit"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for executor operations.
var (
	cmsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_requests_total",
		Help: "Total CMS API requests by operation and status",
	}, []string{"operation", "status"})

	cmsRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cms_request_duration_seconds",
		Help:    "CMS API request duration in seconds by operation, retries included",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"operation"})

	cmsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_errors_total",
		Help: "Total CMS API attempt failures by class",
	}, []string{"class"})
)

// HeaderRequestID carries the per-operation request ID. Retries reuse it.
const HeaderRequestID = "X-Request-ID"

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "cms-client/1.0"

// Client executes requests against the CMS API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the executor configuration.
type Config struct {
	// BaseURL is the API root, for example "https://cms.example.com/api" (REQUIRED).
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token when set.
	APIKey string `yaml:"api_key"`

	// UserAgent header value.
	UserAgent string `yaml:"user_agent"`

	// Timeout bounds every individual attempt.
	Timeout time.Duration `yaml:"timeout"`

	// Retry
	Retries     int           `yaml:"retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
	Backoff     BackoffPolicy `yaml:"backoff"`
	Jitter      float64       `yaml:"jitter"`
	RetryWrites bool          `yaml:"retry_writes"` // retry POST/PUT/PATCH/DELETE too

	// RateLimit configures the quota tracker.
	RateLimit ratelimit.Config `yaml:"rate_limit"`

	// Redis shares quota state between processes when set.
	Redis *redis.Client `yaml:"-"`

	// HTTPClient overrides the transport (default: a fresh http.Client).
	HTTPClient *http.Client `yaml:"-"`
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	retry := DefaultRetryConfig()
	return Config{
		BaseURL:    baseURL,
		UserAgent:  DefaultUserAgent,
		Timeout:    30 * time.Second,
		Retries:    retry.Retries,
		RetryDelay: retry.Delay,
		MaxBackoff: retry.MaxBackoff,
		Backoff:    retry.Policy,
		RateLimit:  ratelimit.DefaultConfig(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Backoff, validation.In(BackoffExponential, BackoffConstant)),
		validation.Field(&c.Jitter, validation.Min(0.0), validation.Max(1.0)),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// withDefaults coerces unset or non-positive values to their defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig(c.BaseURL)
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.Backoff == "" {
		c.Backoff = def.Backoff
	}
	return c
}

// New creates a new CMS API client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	cfg = cfg.withDefaults()

	logger := logging.NewLogger("cms-client")

	var store ratelimit.StateStore
	if cfg.Redis != nil {
		store = ratelimit.NewRedisStore(cfg.Redis)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: ratelimit.NewTracker(store, cfg.RateLimit, logger),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// RateLimiter returns the quota tracker.
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}

// Close releases idle connections. A configured Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// retryConfig returns the retry policy for req.
func (c *Client) retryConfig(req *Request) RetryConfig {
	rc := RetryConfig{
		Retries:    c.config.Retries,
		Delay:      c.config.RetryDelay,
		MaxBackoff: c.config.MaxBackoff,
		Policy:     c.config.Backoff,
		Jitter:     c.config.Jitter,
	}
	if !isIdempotent(req.method()) && !c.config.RetryWrites && !req.AllowRetry {
		rc.Retries = 0
	}
	return rc
}

// Do executes req with per-attempt timeouts and retries.
// Every failure is returned as, or wraps, an *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewValidationError("request is required")
	}

	operation := req.operation()
	body, err := req.encodeBody()
	if err != nil {
		return nil, WrapValidation(err, "request body is not JSON encodable")
	}

	requestID := uuid.NewString()
	logger := logging.WithOperation(c.logger, operation, requestID).With().
		Str("method", req.method()).
		Str("path", req.Path).
		Logger()

	startTime := time.Now()
	defer func() {
		cmsRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	var resp *Response
	attempts := 0
	err = retryWithBackoff(ctx, c.retryConfig(req), logger, func(attempt int) (ErrorClass, error) {
		attempts = attempt
		r, errorClass, err := c.attempt(ctx, req, body, requestID, logger)
		if err != nil {
			cmsErrorsTotal.WithLabelValues(string(errorClass)).Inc()
			return errorClass, err
		}
		resp = r
		return "", nil
	})
	if err != nil {
		err = asError(err)
		cmsRequestsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
		logger.Error().Err(err).Int("attempts", attempts).Msg("Request failed")
		return nil, err
	}

	resp.RequestID = requestID
	resp.Attempts = attempts
	cmsRequestsTotal.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Inc()
	logger.Debug().
		Int("status", resp.StatusCode).
		Int("attempts", attempts).
		Dur("duration", time.Since(startTime)).
		Msg("Request completed")
	return resp, nil
}

// DoJSON executes req and decodes the response body into out.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// attempt performs one HTTP round trip under its own timeout.
func (c *Client) attempt(ctx context.Context, req *Request, body []byte, requestID string, logger zerolog.Logger) (*Response, ErrorClass, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		if errors.Is(err, ratelimit.ErrQuotaExhausted) {
			return nil, ErrorClassQuota, &Error{
				Code:    CodeRateLimited,
				Class:   ErrorClassQuota,
				Message: "request blocked by quota tracker",
				Err:     err,
			}
		}
		if ctx.Err() != nil {
			return nil, ErrorClassCancelled, err
		}
		// Quota state unavailable; send the request anyway.
		logger.Warn().Err(err).Msg("Quota check failed")
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := c.newHTTPRequest(attemptCtx, req, body, requestID)
	if err != nil {
		return nil, "", WrapValidation(err, "invalid request")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		class, ferr := c.transportFailure(ctx, attemptCtx, err)
		return nil, class, ferr
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		class, ferr := c.transportFailure(ctx, attemptCtx, err)
		return nil, class, ferr
	}

	if err := c.rateLimiter.UpdateFromHeaders(ctx, httpResp.Header); err != nil {
		logger.Warn().Err(err).Msg("Failed to update quota state")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		errorClass := classifyStatus(httpResp.StatusCode)
		logger.Debug().
			Int("status", httpResp.StatusCode).
			Str("error_class", string(errorClass)).
			Msg("Attempt failed with HTTP error")
		return nil, errorClass, &Error{
			Code:       CodeNetwork,
			Class:      errorClass,
			Message:    errorMessage(httpResp, respBody),
			StatusCode: httpResp.StatusCode,
			StatusText: http.StatusText(httpResp.StatusCode),
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       respBody,
	}, "", nil
}

// transportFailure classifies an error raised while sending or reading.
func (c *Client) transportFailure(ctx, attemptCtx context.Context, err error) (ErrorClass, error) {
	if ctx.Err() != nil {
		return ErrorClassCancelled, err
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return ErrorClassTimeout, &Error{
			Code:    CodeNetwork,
			Class:   ErrorClassTimeout,
			Message: fmt.Sprintf("attempt timed out after %v", c.config.Timeout),
			Err:     err,
		}
	}
	return ErrorClassNetwork, &Error{
		Code:    CodeNetwork,
		Class:   ErrorClassNetwork,
		Message: "transport failure",
		Err:     err,
	}
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request, body []byte, requestID string) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, reader)
	if err != nil {
		return nil, err
	}

	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	httpReq.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	return httpReq, nil
}

// classifyStatus classifies an HTTP error status.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

func statusLabel(err error) string {
	if code := StatusCode(err); code != 0 {
		return strconv.Itoa(code)
	}
	return strings.ToLower(string(CodeOf(err)))
}
