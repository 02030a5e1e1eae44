package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"nibog/infras/backend"
	"nibog/infras/httpclient"
	"nibog/infras/otel/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, handler http.HandlerFunc) backend.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	otel := mocks.NewOtel()
	client := httpclient.New(httpclient.Options{
		Name:           "backend",
		Timeout:        time.Second,
		MaxRetry:       2,
		InitialBackoff: time.Millisecond,
	}, otel)

	return backend.NewWithClient(server.URL+"/", client, otel)
}

func TestClient_GetPendingBooking(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     error
		wantPartial bool
		wantUserID  string
	}{
		{
			name:       "object with numeric user id",
			status:     http.StatusOK,
			body:       `{"transaction_id":"NIBOG_12_1754290800000","user_id":12,"booking_data":{"eventId":3},"expires_at":"2026-10-18T10:30:00Z","status":"pending"}`,
			wantUserID: "12",
		},
		{
			name:       "array wrapped with string user id",
			status:     http.StatusOK,
			body:       `[{"transaction_id":"NIBOG_12_1754290800000","user_id":"12","booking_data":"{\"eventId\":3}","expires_at":"2026-10-18T10:30:00Z","status":"pending"}]`,
			wantUserID: "12",
		},
		{
			name:        "body with trailing noise is partial",
			status:      http.StatusOK,
			body:        `{"transaction_id":"NIBOG_12_1754290800000","user_id":12,"status":"pending"}\n\u0000`,
			wantPartial: true,
			wantUserID:  "12",
		},
		{
			name:    "not found status",
			status:  http.StatusNotFound,
			body:    `{"message":"not found"}`,
			wantErr: backend.ErrNotFound,
		},
		{
			name:    "empty array",
			status:  http.StatusOK,
			body:    `[]`,
			wantErr: backend.ErrNotFound,
		},
		{
			name:    "empty object",
			status:  http.StatusOK,
			body:    `[{}]`,
			wantErr: backend.ErrNotFound,
		},
		{
			name:    "unparseable body",
			status:  http.StatusOK,
			body:    `{"transaction_id":"NIBOG_12_17`,
			wantErr: backend.ErrMalformedResponse,
		},
		{
			name:    "upstream down",
			status:  http.StatusServiceUnavailable,
			body:    `down`,
			wantErr: httpclient.ErrUnavailable,
		},
		{
			name:    "unexpected status",
			status:  http.StatusInternalServerError,
			body:    `{"message":"workflow failed"}`,
			wantErr: backend.ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/nibog/pending-booking/get", r.URL.Path)

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "NIBOG_12_1754290800000", body["transaction_id"])

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			record, err := client.GetPendingBooking(context.Background(), "NIBOG_12_1754290800000")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "NIBOG_12_1754290800000", record.TransactionID)
			assert.Equal(t, tt.wantUserID, record.UserID.String())
			assert.Equal(t, tt.wantPartial, record.Partial)
		})
	}
}

func TestClient_CreateBooking(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantID  string
		wantRef string
	}{
		{
			name:    "booking id returned",
			status:  http.StatusOK,
			body:    `[{"booking_id":501,"booking_ref":"PPT261018123456"}]`,
			wantID:  "501",
			wantRef: "PPT261018123456",
		},
		{
			name:    "legacy id field falls back to payload ref",
			status:  http.StatusOK,
			body:    `{"id":"502"}`,
			wantID:  "502",
			wantRef: "PPT261018000001",
		},
		{
			name:    "missing id",
			status:  http.StatusOK,
			body:    `{"message":"ok"}`,
			wantErr: backend.ErrMalformedResponse,
		},
		{
			name:    "validation failure",
			status:  http.StatusBadRequest,
			body:    `{"message":"event_id required"}`,
			wantErr: backend.ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/nibog/bookingsevents/create", r.URL.Path)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := client.CreateBooking(context.Background(), backend.BookingPayload{
				Booking: backend.BookingHeader{
					TransactionID: "NIBOG_12_1754290800000",
					BookingRef:    "PPT261018000001",
				},
			})
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.Identifier())
			assert.Equal(t, tt.wantRef, got.BookingRef)
		})
	}
}

func TestClient_DeletePendingBooking(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "deleted", status: http.StatusOK},
		{name: "already gone", status: http.StatusNotFound, wantErr: backend.ErrNotFound},
		{name: "rejected", status: http.StatusBadRequest, wantErr: backend.ErrRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/nibog/pending-booking/delete", r.URL.Path)
				w.WriteHeader(tt.status)
			})

			err := client.DeletePendingBooking(context.Background(), "NIBOG_12_1754290800000")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestFlexString_UnmarshalJSON(t *testing.T) {
	var got struct {
		A backend.FlexString `json:"a"`
		B backend.FlexString `json:"b"`
		C backend.FlexString `json:"c"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"abc","c":null}`), &got))
	assert.Equal(t, "42", got.A.String())
	assert.Equal(t, int64(42), got.A.Int64())
	assert.Equal(t, "abc", got.B.String())
	assert.Equal(t, int64(0), got.B.Int64())
	assert.Empty(t, got.C)
}
