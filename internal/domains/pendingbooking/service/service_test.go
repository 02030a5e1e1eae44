package service_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"nibog/config"
	"nibog/infras/backend"
	backendMocks "nibog/infras/backend/mocks"
	"nibog/infras/httpclient"
	"nibog/infras/otel/mocks"
	schedulerMocks "nibog/infras/scheduler/mocks"
	"nibog/internal/domains/pendingbooking/model/dto"
	"nibog/internal/domains/pendingbooking/service"
	"nibog/shared/cache"
	cacheMocks "nibog/shared/cache/mocks"
	"nibog/shared/failure"
)

const testTransactionID = "NIBOG_42_1718000000000"

type testDeps struct {
	backend   *backendMocks.MockClient
	cache     *cacheMocks.MockRedisCache
	scheduler *schedulerMocks.MockScheduler
	svc       service.PendingBooking
}

func newTestDeps(t *testing.T) testDeps {
	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Booking.PendingTTLMinutes = 30
	cfg.Booking.ExpiryGraceMinutes = 30

	deps := testDeps{
		backend:   backendMocks.NewMockClient(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
		scheduler: schedulerMocks.NewMockScheduler(ctrl),
	}
	deps.svc = service.New(deps.backend, deps.cache, deps.scheduler, cfg, mocks.NewOtel())

	return deps
}

func record(expiresAt time.Time, bookingData string) backend.PendingBookingRecord {
	return backend.PendingBookingRecord{
		TransactionID: testTransactionID,
		UserID:        "42",
		BookingData:   []byte(bookingData),
		ExpiresAt:     expiresAt.UTC().Format(time.RFC3339),
		Status:        "pending",
	}
}

const validBookingData = `{"user_id":42,"parent":{"parent_name":"Asha","email":"asha@example.com","phone":"9876543210"},` +
	`"child":{"full_name":"Riya","date_of_birth":"2023-01-10","gender":"female"},"event_id":"7",` +
	`"games":[{"game_id":3,"slot_id":"11","game_price":799}],"total_amount":799,"terms_accepted":true}`

func validCreateRequest() dto.CreatePendingBookingRequest {
	return dto.CreatePendingBookingRequest{
		UserID:        "42",
		Parent:        dto.ParentRequest{Name: "Asha", Email: "asha@example.com", Phone: "9876543210"},
		Child:         dto.ChildRequest{FullName: "Riya", DateOfBirth: "2023-01-10", Gender: "female"},
		Games:         []dto.GameRequest{{GameID: "3", SlotID: "11", Price: 799}},
		EventID:       "7",
		TotalAmount:   799,
		TermsAccepted: true,
	}
}

func TestPendingBookingService_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(deps testDeps)
		wantCode  int
	}{
		{
			name: "successful creation",
			setupMock: func(deps testDeps) {
				deps.backend.EXPECT().CreatePendingBooking(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec backend.PendingBookingRecord) error {
						assert.Regexp(t, `^NIBOG_42_\d{13}$`, rec.TransactionID)
						assert.Equal(t, "pending", rec.Status)
						assert.Contains(t, string(rec.BookingData), `"parent_name":"Asha"`)

						return nil
					})
				deps.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				deps.scheduler.EXPECT().ScheduleExpiry(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "scheduler failure does not fail the request",
			setupMock: func(deps testDeps) {
				deps.backend.EXPECT().CreatePendingBooking(gomock.Any(), gomock.Any()).Return(nil)
				deps.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				deps.scheduler.EXPECT().ScheduleExpiry(gomock.Any(), gomock.Any(), gomock.Any()).Return(fmt.Errorf("redis down"))
			},
		},
		{
			name: "upstream timeout",
			setupMock: func(deps testDeps) {
				deps.backend.EXPECT().CreatePendingBooking(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("failed to create pending booking: %w", httpclient.ErrTimeout))
			},
			wantCode: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setupMock(deps)

			res, err := deps.svc.Create(context.Background(), validCreateRequest())

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Regexp(t, `^NIBOG_42_\d+$`, res.TransactionID)
			assert.NotEmpty(t, res.ExpiresAt)
		})
	}
}

func TestPendingBookingService_Get(t *testing.T) {
	future := time.Now().Add(20 * time.Minute)
	past := time.Now().Add(-5 * time.Minute)

	tests := []struct {
		name          string
		transactionID string
		setupMock     func(deps testDeps)
		wantCode      int
		wantPartial   bool
	}{
		{
			name:          "missing transaction id",
			transactionID: "",
			setupMock:     func(testDeps) {},
			wantCode:      http.StatusBadRequest,
		},
		{
			name:          "fetched from backend",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).Return(record(future, validBookingData), nil)
				deps.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name:          "booking data serialized as string",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(record(future, fmt.Sprintf("%q", validBookingData)), nil)
				deps.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name:          "truncated booking data is partial",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(record(future, fmt.Sprintf("%q", validBookingData[:60])), nil)
			},
			wantPartial: true,
		},
		{
			name:          "expired booking",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).Return(record(past, validBookingData), nil)
			},
			wantCode: http.StatusGone,
		},
		{
			name:          "not found",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).Return(backend.PendingBookingRecord{}, backend.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name:          "backend unreachable",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(backend.PendingBookingRecord{}, fmt.Errorf("failed to get pending booking: %w", httpclient.ErrUnavailable))
			},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:          "backend timeout",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(backend.PendingBookingRecord{}, fmt.Errorf("failed to get pending booking: %w", httpclient.ErrTimeout))
			},
			wantCode: http.StatusGatewayTimeout,
		},
		{
			name:          "malformed response",
			transactionID: testTransactionID,
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(backend.PendingBookingRecord{}, backend.ErrMalformedResponse)
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setupMock(deps)

			res, err := deps.svc.Get(context.Background(), tt.transactionID)

			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, testTransactionID, res.TransactionID)
			assert.Equal(t, tt.wantPartial, res.Partial)

			if tt.wantPartial {
				assert.NotEmpty(t, res.BookingDataRaw)
				assert.NotEmpty(t, res.Warning)
			} else {
				assert.Equal(t, "Asha", res.BookingData.Parent.Name)
				assert.InDelta(t, 799.0, res.BookingData.TotalAmount, 0.001)
			}
		})
	}
}

func TestPendingBookingService_GetExpired(t *testing.T) {
	tests := []struct {
		name        string
		expiredFor  time.Duration
		wantRemoved bool
	}{
		{name: "expired inside grace is not deleted", expiredFor: 2 * time.Minute},
		{name: "expired past grace is deleted", expiredFor: 45 * time.Minute, wantRemoved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			removed := make(chan struct{}, 1)

			deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
			deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
				Return(record(time.Now().Add(-tt.expiredFor), validBookingData), nil)

			if tt.wantRemoved {
				deps.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
				deps.backend.EXPECT().DeletePendingBooking(gomock.Any(), testTransactionID).
					DoAndReturn(func(context.Context, string) error {
						removed <- struct{}{}

						return nil
					})
			} else {
				deps.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)
				deps.backend.EXPECT().DeletePendingBooking(gomock.Any(), gomock.Any()).Times(0)
			}

			_, err := deps.svc.Get(context.Background(), testTransactionID)
			assert.Equal(t, http.StatusGone, failure.GetCode(err))

			if tt.wantRemoved {
				select {
				case <-removed:
				case <-time.After(time.Second):
					t.Fatal("expired pending booking was not deleted")
				}
			}
		})
	}
}

func TestPendingBookingService_LoadAllowExpired(t *testing.T) {
	deps := newTestDeps(t)

	deps.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
	deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
		Return(record(time.Now().Add(-time.Hour), validBookingData), nil)

	booking, err := deps.svc.Load(context.Background(), testTransactionID, true)

	assert.NoError(t, err)
	assert.Equal(t, "Riya", booking.BookingData.Child.FullName)
}

func TestPendingBookingService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(deps testDeps)
		wantCode  int
	}{
		{
			name: "successful delete",
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Delete(gomock.Any(), "pending_booking:get:"+testTransactionID).Return(nil)
				deps.backend.EXPECT().DeletePendingBooking(gomock.Any(), testTransactionID).Return(nil)
			},
		},
		{
			name: "not found passes through",
			setupMock: func(deps testDeps) {
				deps.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
				deps.backend.EXPECT().DeletePendingBooking(gomock.Any(), testTransactionID).Return(backend.ErrNotFound)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setupMock(deps)

			err := deps.svc.Delete(context.Background(), testTransactionID)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestPendingBookingService_Expire(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(deps testDeps)
	}{
		{
			name: "already consumed",
			setupMock: func(deps testDeps) {
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).Return(backend.PendingBookingRecord{}, backend.ErrNotFound)
			},
		},
		{
			name: "still valid",
			setupMock: func(deps testDeps) {
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(record(time.Now().Add(time.Hour), validBookingData), nil)
			},
		},
		{
			name: "expired is removed",
			setupMock: func(deps testDeps) {
				deps.backend.EXPECT().GetPendingBooking(gomock.Any(), testTransactionID).
					Return(record(time.Now().Add(-time.Hour), validBookingData), nil)
				deps.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
				deps.backend.EXPECT().DeletePendingBooking(gomock.Any(), testTransactionID).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setupMock(deps)

			assert.NoError(t, deps.svc.Expire(context.Background(), testTransactionID))
		})
	}
}
