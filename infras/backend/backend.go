package backend

//go:generate go run go.uber.org/mock/mockgen -source=./backend.go -destination=./mocks/backend_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"nibog/config"
	"nibog/infras/httpclient"
	"nibog/infras/otel"
	"nibog/shared/constant"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	pathPendingBookingCreate = "/v1/nibog/pending-booking/create"
	pathPendingBookingGet    = "/v1/nibog/pending-booking/get"
	pathPendingBookingDelete = "/v1/nibog/pending-booking/delete"
	pathBookingCreate        = "/v1/nibog/bookingsevents/create"
	pathPaymentCreate        = "/v1/nibog/payments/create"

	otelScopeName = "backend"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrRejected          = errors.New("backend rejected the request")
)

// Client talks to the booking webhooks that own pending bookings, bookings and payments.
type Client interface {
	CreatePendingBooking(ctx context.Context, record PendingBookingRecord) error
	GetPendingBooking(ctx context.Context, transactionID string) (PendingBookingRecord, error)
	DeletePendingBooking(ctx context.Context, transactionID string) error
	CreateBooking(ctx context.Context, payload BookingPayload) (CreatedBooking, error)
	RecordPayment(ctx context.Context, record PaymentRecord) error
}

type clientImpl struct {
	http    httpclient.Client
	baseURL string
	otel    otel.Otel
}

func New(cfg *config.Config, ot otel.Otel) Client {
	client := httpclient.New(httpclient.Options{
		Name:           otelScopeName,
		Timeout:        time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		MaxRetry:       cfg.Backend.MaxRetry,
		InitialBackoff: time.Duration(cfg.Backend.RetryInitialMillis) * time.Millisecond,
		MaxElapsed:     time.Duration(cfg.Backend.RetryMaxElapsedSecs) * time.Second,
	}, ot)

	return NewWithClient(cfg.Backend.BaseURL, client, ot)
}

func NewWithClient(baseURL string, client httpclient.Client, ot otel.Otel) Client {
	return &clientImpl{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		otel:    ot,
	}
}

func (c *clientImpl) CreatePendingBooking(ctx context.Context, record PendingBookingRecord) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".CreatePendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, record.TransactionID)

	res, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + pathPendingBookingCreate,
		Body:   record,
		Retry:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to create pending booking: %w", err)
	}

	if !res.OK() {
		log.Error().Int("status", res.StatusCode).Str("body", truncate(res.Body)).Msg("pending booking creation rejected")

		return fmt.Errorf("%w: create pending booking returned %d", ErrRejected, res.StatusCode)
	}

	return nil
}

func (c *clientImpl) GetPendingBooking(ctx context.Context, transactionID string) (record PendingBookingRecord, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".GetPendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	res, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + pathPendingBookingGet,
		Body:   transactionRequest{TransactionID: transactionID},
		Retry:  true,
	})
	if err != nil {
		return record, fmt.Errorf("failed to get pending booking: %w", err)
	}

	if res.StatusCode == http.StatusNotFound {
		return record, ErrNotFound
	}

	if !res.OK() {
		return record, fmt.Errorf("%w: get pending booking returned %d", ErrRejected, res.StatusCode)
	}

	partial, err := httpclient.DecodeTolerant(res.Body, &record)
	if errors.Is(err, httpclient.ErrEmptyBody) {
		return record, ErrNotFound
	}

	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Str("body", truncate(res.Body)).Msg("failed to parse pending booking")

		return record, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if record.TransactionID == "" {
		return record, ErrNotFound
	}

	record.Partial = partial

	return record, nil
}

func (c *clientImpl) DeletePendingBooking(ctx context.Context, transactionID string) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".DeletePendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	res, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + pathPendingBookingDelete,
		Body:   transactionRequest{TransactionID: transactionID},
		Retry:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete pending booking: %w", err)
	}

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	if !res.OK() {
		return fmt.Errorf("%w: delete pending booking returned %d", ErrRejected, res.StatusCode)
	}

	return nil
}

func (c *clientImpl) CreateBooking(ctx context.Context, payload BookingPayload) (booking CreatedBooking, err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".CreateBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, payload.Booking.TransactionID)

	// the webhook dedupes on transaction_id, so retrying a create is safe
	res, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + pathBookingCreate,
		Body:   payload,
		Retry:  true,
	})
	if err != nil {
		return booking, fmt.Errorf("failed to create booking: %w", err)
	}

	if !res.OK() {
		log.Error().Int("status", res.StatusCode).Str("body", truncate(res.Body)).Msg("booking creation rejected")

		return booking, fmt.Errorf("%w: create booking returned %d", ErrRejected, res.StatusCode)
	}

	if _, err = httpclient.DecodeTolerant(res.Body, &booking); err != nil {
		return booking, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	if booking.Identifier() == "" {
		return booking, fmt.Errorf("%w: booking id missing", ErrMalformedResponse)
	}

	if booking.BookingRef == "" {
		booking.BookingRef = payload.Booking.BookingRef
	}

	return booking, nil
}

func (c *clientImpl) RecordPayment(ctx context.Context, record PaymentRecord) (err error) {
	ctx, scope := c.otel.NewScope(ctx, otelScopeName, otelScopeName+".RecordPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, record.TransactionID)

	res, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + pathPaymentCreate,
		Body:   record,
		Retry:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}

	if !res.OK() {
		return fmt.Errorf("%w: record payment returned %d", ErrRejected, res.StatusCode)
	}

	return nil
}

func truncate(body []byte) string {
	const limit = 512

	if len(body) > limit {
		return string(body[:limit]) + "..."
	}

	return string(body)
}
