package whatsapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"nibog/infras/httpclient"
	"nibog/infras/otel/mocks"
	"nibog/infras/whatsapp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSender(t *testing.T, enabled bool, handler http.HandlerFunc) whatsapp.Sender {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	otel := mocks.NewOtel()
	client := httpclient.New(httpclient.Options{
		Name:           "whatsapp",
		Timeout:        time.Second,
		MaxRetry:       3,
		InitialBackoff: time.Millisecond,
	}, otel)

	return whatsapp.NewWithClient(whatsapp.Settings{
		Enabled:          enabled,
		BaseURL:          server.URL,
		Token:            "zaptra-token",
		TemplateLanguage: "en_US",
		BreakerFailures:  2,
		BreakerCooldown:  time.Minute,
	}, client, otel)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "9876543210", want: "919876543210"},
		{raw: "+91 98765-43210", want: "919876543210"},
		{raw: "09876543210", want: "919876543210"},
		{raw: "919876543210", want: "919876543210"},
		{raw: "1234567890", wantErr: true},
		{raw: "98765", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := whatsapp.NormalizePhone(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, whatsapp.ErrInvalidPhone)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSender_SendTemplate(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		phone   string
		status  int
		body    string
		wantErr error
		wantID  string
	}{
		{
			name:    "sent",
			enabled: true,
			phone:   "9876543210",
			status:  http.StatusOK,
			body:    `{"status":"success","message_id":"wamid.HBgM"}`,
			wantID:  "wamid.HBgM",
		},
		{
			name:    "provider error body",
			enabled: true,
			phone:   "9876543210",
			status:  http.StatusOK,
			body:    `{"status":"error","message":"Template not approved"}`,
			wantErr: whatsapp.ErrRejected,
		},
		{
			name:    "bad request",
			enabled: true,
			phone:   "9876543210",
			status:  http.StatusUnprocessableEntity,
			body:    `{"status":"error","message":"invalid token"}`,
			wantErr: whatsapp.ErrRejected,
		},
		{
			name:    "invalid phone",
			enabled: true,
			phone:   "12345",
			wantErr: whatsapp.ErrInvalidInput,
		},
		{
			name:    "disabled",
			enabled: false,
			phone:   "9876543210",
			wantErr: whatsapp.ErrDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newSender(t, tt.enabled, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/wpbox/sendtemplatemessage", r.URL.Path)

				var req map[string]any
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "919876543210", req["phone"])
				assert.Equal(t, "booking_confirmation_latest", req["template_name"])
				assert.Equal(t, "en_US", req["template_language"])

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := sender.SendTemplate(context.Background(), whatsapp.TemplateMessage{
				Phone:      tt.phone,
				Template:   "booking_confirmation_latest",
				BodyParams: []string{"Asha", "NIBOG Baby Olympics"},
			})
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.MessageID)
			assert.Equal(t, "919876543210", got.Phone)
		})
	}
}

func TestSender_CircuitOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32

	sender := newSender(t, true, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for range 2 {
		_, err := sender.SendText(context.Background(), "9876543210", "hello")
		assert.ErrorIs(t, err, httpclient.ErrUnavailable)
	}

	_, err := sender.SendText(context.Background(), "9876543210", "hello")
	assert.ErrorIs(t, err, whatsapp.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSender_TextSurvivesOpenTemplateCircuit(t *testing.T) {
	var templateCalls, textCalls atomic.Int32

	sender := newSender(t, true, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/wpbox/sendtemplatemessage" {
			templateCalls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		textCalls.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"success","message_id":"wamid.TEXT"}`))
	})

	message := whatsapp.TemplateMessage{Phone: "9876543210", Template: "booking_confirmation_latest"}

	for range 2 {
		_, err := sender.SendTemplate(context.Background(), message)
		assert.ErrorIs(t, err, httpclient.ErrUnavailable)
	}

	_, err := sender.SendTemplate(context.Background(), message)
	require.ErrorIs(t, err, whatsapp.ErrCircuitOpen)

	got, err := sender.SendText(context.Background(), "9876543210", "Your NIBOG booking is confirmed")
	require.NoError(t, err)
	assert.Equal(t, "wamid.TEXT", got.MessageID)

	assert.Equal(t, int32(2), templateCalls.Load())
	assert.Equal(t, int32(1), textCalls.Load())
}

func TestSender_RejectionsDoNotTripCircuit(t *testing.T) {
	var calls atomic.Int32

	sender := newSender(t, true, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"error","message":"number not on whatsapp"}`))
	})

	for range 4 {
		_, err := sender.SendText(context.Background(), "9876543210", "hello")
		assert.ErrorIs(t, err, whatsapp.ErrRejected)
	}

	assert.Equal(t, int32(4), calls.Load())
}
