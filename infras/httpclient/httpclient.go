package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"nibog/infras/otel"
	"nibog/shared/constant"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	otelAttrURL        = "http.url"
	otelAttrMethod     = "http.method"
	otelAttrStatusCode = "http.status_code"
	otelAttrAttempts   = "http.attempts"

	maxResponseBytes = 4 << 20
)

var (
	// ErrTimeout is returned when the per-request deadline expires.
	ErrTimeout = errors.New("upstream request timed out")
	// ErrUnavailable is returned when the upstream cannot be reached or keeps answering 502/503.
	ErrUnavailable = errors.New("upstream service unavailable")
)

type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is JSON-encoded unless it is already a []byte.
	Body any
	// Retry enables retries for non-idempotent methods.
	Retry bool
}

type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	Attempts   int
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

type Options struct {
	Name           string
	Timeout        time.Duration
	MaxRetry       int
	InitialBackoff time.Duration
	MaxElapsed     time.Duration
}

type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}

type clientImpl struct {
	http    *http.Client
	otel    otel.Otel
	options Options
}

func New(options Options, ot otel.Otel) Client {
	if options.MaxRetry <= 0 {
		options.MaxRetry = 1
	}

	if options.InitialBackoff <= 0 {
		options.InitialBackoff = 500 * time.Millisecond
	}

	return &clientImpl{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		otel:    ot,
		options: options,
	}
}

func (c *clientImpl) Do(ctx context.Context, req Request) (res Response, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+"."+c.options.Name)
	defer scope.End()

	scope.SetAttributes(map[string]any{
		otelAttrURL:    req.URL,
		otelAttrMethod: req.Method,
	})

	payload, err := encodeBody(req.Body)
	if err != nil {
		scope.TraceError(err)

		return res, err
	}

	tries := uint(1)
	if req.Retry || isIdempotent(req.Method) {
		tries = uint(c.options.MaxRetry)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.options.InitialBackoff

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("client", c.options.Name).Str("url", req.URL).Dur("wait", wait).Msg("retrying upstream request")
		}),
	}

	if c.options.MaxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(c.options.MaxElapsed))
	}

	attempts := 0

	res, err = backoff.Retry(ctx, func() (Response, error) {
		attempts++

		return c.attempt(ctx, req, payload)
	}, opts...)

	res.Attempts = attempts
	scope.SetAttributes(map[string]any{
		otelAttrStatusCode: res.StatusCode,
		otelAttrAttempts:   attempts,
	})

	if err != nil {
		scope.TraceError(err)

		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		log.Error().Err(err).Str("client", c.options.Name).Str("url", req.URL).Int("attempts", attempts).Msg("upstream request failed")

		return res, err
	}

	return res, nil
}

// attempt runs a single round trip. Transient failures are returned as retryable errors and
// everything else either succeeds or is wrapped with backoff.Permanent.
func (c *clientImpl) attempt(ctx context.Context, req Request, payload []byte) (Response, error) {
	if c.options.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.options.Timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return Response{}, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	if payload != nil {
		httpReq.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	}

	httpReq.Header.Set(constant.RequestHeaderAccept, constant.ContentTypeJSON)

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	httpRes, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		if errors.Is(err, context.Canceled) {
			return Response{}, backoff.Permanent(err)
		}

		return Response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer httpRes.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpRes.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Response{}, fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		return Response{}, fmt.Errorf("%w: failed to read response body: %w", ErrUnavailable, err)
	}

	res := Response{
		StatusCode: httpRes.StatusCode,
		Body:       raw,
		Header:     httpRes.Header,
	}

	switch httpRes.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
		return res, fmt.Errorf("%w: status %d", ErrUnavailable, httpRes.StatusCode)
	case http.StatusGatewayTimeout:
		return res, fmt.Errorf("%w: status %d", ErrTimeout, httpRes.StatusCode)
	}

	return res, nil
}

func encodeBody(body any) ([]byte, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	default:
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		return payload, nil
	}
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodPut, http.MethodOptions:
		return true
	}

	return false
}
