package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nibog/internal/domains/pendingbooking/model"
	"nibog/internal/domains/pendingbooking/model/dto"
)

func TestTransactionID_RoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 30, 15, 123_000_000, time.UTC)

	tests := []struct {
		name   string
		userID string
		wantID string
	}{
		{name: "numeric user", userID: "42", wantID: "NIBOG_42_1718011815123"},
		{name: "user with underscore", userID: "guest_7", wantID: "NIBOG_guest_7_1718011815123"},
		{name: "empty user", userID: "", wantID: "NIBOG__1718011815123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := model.GenerateTransactionID(tt.userID, now)
			assert.Equal(t, tt.wantID, id)

			created, ok := model.TransactionTime(id)
			require.True(t, ok)
			assert.True(t, created.Equal(now), "got %s", created)
		})
	}
}

func TestTransactionTime_Invalid(t *testing.T) {
	for _, id := range []string{"", "NIBOG", "NIBOG_42_", "NIBOG_42_abc", "NIBOG_42_-5", "NIBOG_42_0"} {
		t.Run(id, func(t *testing.T) {
			_, ok := model.TransactionTime(id)
			assert.False(t, ok)
		})
	}
}

func TestCreatePendingBookingRequest_ExpiresAt(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		ttl  time.Duration
		want time.Duration
	}{
		{name: "default window", ttl: 0, want: 30 * time.Minute},
		{name: "configured window", ttl: 45 * time.Minute, want: 45 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dto.CreatePendingBookingRequest{UserID: "guest_7", TotalAmount: 799}

			booking := req.ToModel(now, tt.ttl)

			assert.Equal(t, tt.want, booking.ExpiresAt.Sub(now))
			assert.Equal(t, model.StatusPending, booking.Status)
			assert.False(t, booking.IsExpired(now))
			assert.True(t, booking.IsExpired(now.Add(tt.want)))

			created, ok := model.TransactionTime(booking.TransactionID)
			require.True(t, ok)
			assert.True(t, created.Equal(now))
		})
	}
}

func TestPendingBooking_IsExpired(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "no expiry recorded", want: false},
		{name: "still open", expiresAt: now.Add(time.Second), want: false},
		{name: "exactly at expiry", expiresAt: now, want: true},
		{name: "past expiry", expiresAt: now.Add(-time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.PendingBooking{ExpiresAt: tt.expiresAt}.IsExpired(now))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 6, 10, 4, 0, 0, 0, time.UTC)

	tests := []struct {
		value   string
		wantErr bool
	}{
		{value: "2024-06-10T09:30:00+05:30"},
		{value: "2024-06-10T04:00:00Z"},
		{value: "2024-06-10T04:00:00"},
		{value: "2024-06-10 04:00:00"},
		{value: "2024-06-10 09:00:00.000000+05"},
		{value: "", wantErr: true},
		{value: "10/06/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := model.ParseTimestamp(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidTimestamp)

				return
			}

			require.NoError(t, err)
			assert.True(t, got.Equal(want), "got %s", got)
		})
	}
}
