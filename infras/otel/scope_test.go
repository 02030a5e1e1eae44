package otel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"nibog/infras/otel"
	"nibog/shared/failure"
)

func TestScope_TraceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
	}{
		{name: "client failure keeps the span healthy", err: failure.NotFound("pending_booking"), wantStatus: codes.Unset},
		{name: "upstream failure", err: failure.BadGateway("booking backend returned 500"), wantStatus: codes.Error},
		{name: "plain error", err: errors.New("connection reset"), wantStatus: codes.Error},
		{name: "nil is ignored", err: nil, wantStatus: codes.Unset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

			_, span := provider.Tracer("test").Start(context.Background(), "payment.HandleCallback")
			scope := otel.NewScope(span)

			scope.TraceIfError(tt.err)
			scope.End()

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)

			if tt.err != nil {
				require.Len(t, spans[0].Events(), 1)
			}
		})
	}
}

func TestScope_SetAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	_, span := provider.Tracer("test").Start(context.Background(), "booking.Confirm")
	scope := otel.NewScope(span)

	scope.SetAttributes(map[string]any{
		"transaction_id": "NIBOG_42_1718000000000",
		"amount_paise":   int64(79900),
		"retry":          true,
		"backoff":        1500 * time.Millisecond,
	})
	scope.End()

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range recorder.Ended()[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}

	assert.Equal(t, "NIBOG_42_1718000000000", attrs["transaction_id"].AsString())
	assert.Equal(t, int64(79900), attrs["amount_paise"].AsInt64())
	assert.True(t, attrs["retry"].AsBool())
	assert.Equal(t, int64(1500), attrs["backoff_ms"].AsInt64())
}
