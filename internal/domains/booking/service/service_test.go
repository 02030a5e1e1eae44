package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"nibog/config"
	"nibog/infras/backend"
	backendMocks "nibog/infras/backend/mocks"
	"nibog/infras/httpclient"
	"nibog/infras/otel/mocks"
	"nibog/internal/domains/booking/model"
	"nibog/internal/domains/booking/model/dto"
	"nibog/internal/domains/booking/service"
	notificationModel "nibog/internal/domains/notification/model"
	notificationMocks "nibog/internal/domains/notification/mocks"
	pendingMocks "nibog/internal/domains/pendingbooking/mocks"
	pendingModel "nibog/internal/domains/pendingbooking/model"
	cacheMocks "nibog/shared/cache/mocks"
	"nibog/shared/failure"
)

const (
	testTransactionID = "NIBOG_42_1718000000000"
	lockKey           = "booking:confirm_lock:" + testTransactionID
	confirmationKey   = "booking:confirmed:" + testTransactionID
)

type testDeps struct {
	backend      *backendMocks.MockClient
	pending      *pendingMocks.MockPendingBooking
	notification *notificationMocks.MockNotification
	cache        *cacheMocks.MockRedisCache
	svc          service.Booking
}

func newTestDeps(t *testing.T) testDeps {
	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.Booking.ConfirmLockTTLSeconds = 60
	cfg.Booking.ConfirmationTTLHours = 24

	deps := testDeps{
		backend:      backendMocks.NewMockClient(ctrl),
		pending:      pendingMocks.NewMockPendingBooking(ctrl),
		notification: notificationMocks.NewMockNotification(ctrl),
		cache:        cacheMocks.NewMockRedisCache(ctrl),
	}
	deps.svc = service.New(deps.backend, deps.pending, deps.notification, deps.cache, cfg, mocks.NewOtel())

	return deps
}

func pendingBooking() pendingModel.PendingBooking {
	return pendingModel.PendingBooking{
		TransactionID: testTransactionID,
		UserID:        "42",
		BookingData: pendingModel.BookingData{
			UserID:      "42",
			Parent:      pendingModel.Parent{Name: "Asha", Email: "asha@example.com", Phone: "9876543210"},
			Child:       pendingModel.Child{FullName: "Riya", DateOfBirth: "2023-01-10", Gender: "female"},
			EventID:     "7",
			EventTitle:  "Baby Olympics",
			Games:       []pendingModel.Game{{GameID: "3", SlotID: "11", Name: "Crawling", Price: 799}},
			TotalAmount: 799,
		},
		Status: pendingModel.StatusPending,
	}
}

func confirmRequest() dto.ConfirmRequest {
	return dto.ConfirmRequest{
		TransactionID:        testTransactionID,
		PhonePeTransactionID: "T2406101234",
		AmountPaise:          79900,
	}
}

func TestBookingService_Confirm(t *testing.T) {
	tests := []struct {
		name     string
		req      dto.ConfirmRequest
		mock     func(deps testDeps)
		want     dto.ConfirmResponse
		wantCode int
	}{
		{
			name:     "missing transaction id",
			req:      dto.ConfirmRequest{},
			mock:     func(testDeps) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "confirmation already in progress",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(false, nil)
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "cached confirmation is returned without a second booking",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
				deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
				deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, value any) error {
						confirmation, ok := value.(*model.Confirmation)
						if !ok {
							return fmt.Errorf("unexpected type %T", value)
						}

						*confirmation = model.Confirmation{
							TransactionID:   testTransactionID,
							BookingID:       "901",
							BookingRef:      "PPT240610000000",
							Amount:          799,
							PaymentRecorded: true,
						}

						return nil
					})
			},
			want: dto.ConfirmResponse{
				TransactionID:    testTransactionID,
				BookingID:        "901",
				BookingRef:       "PPT240610000000",
				Amount:           799,
				PaymentRecorded:  true,
				AlreadyConfirmed: true,
			},
		},
		{
			name: "pending booking is gone",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
				deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
				deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).Return(errors.New("miss"))
				deps.pending.EXPECT().Load(gomock.Any(), testTransactionID, true).
					Return(pendingModel.PendingBooking{}, failure.NotFound("pending booking"))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "incomplete booking data",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				incomplete := pendingBooking()
				incomplete.BookingData.Games = nil

				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
				deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
				deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).Return(errors.New("miss"))
				deps.pending.EXPECT().Load(gomock.Any(), testTransactionID, true).Return(incomplete, nil)
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "booking service timed out",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
				deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
				deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).Return(errors.New("miss"))
				deps.pending.EXPECT().Load(gomock.Any(), testTransactionID, true).Return(pendingBooking(), nil)
				deps.backend.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(backend.CreatedBooking{}, fmt.Errorf("failed to create booking: %w", httpclient.ErrTimeout))
			},
			wantCode: http.StatusGatewayTimeout,
		},
		{
			name: "booking service rejected the booking",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
				deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
				deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).Return(errors.New("miss"))
				deps.pending.EXPECT().Load(gomock.Any(), testTransactionID, true).Return(pendingBooking(), nil)
				deps.backend.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(backend.CreatedBooking{}, fmt.Errorf("%w: create booking returned 422", backend.ErrRejected))
			},
			wantCode: http.StatusBadGateway,
		},
		{
			name: "payment record failure keeps the booking",
			req:  confirmRequest(),
			mock: func(deps testDeps) {
				deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
				deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
				deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).Return(errors.New("miss"))
				deps.pending.EXPECT().Load(gomock.Any(), testTransactionID, true).Return(pendingBooking(), nil)
				deps.backend.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(backend.CreatedBooking{BookingID: "901", BookingRef: "PPT240610000000"}, nil)
				deps.backend.EXPECT().RecordPayment(gomock.Any(), gomock.Any()).Return(backend.ErrRejected)
				deps.cache.EXPECT().Save(gomock.Any(), confirmationKey, gomock.Any(), 24*60*60).Return(nil)
				deps.notification.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
				deps.pending.EXPECT().Delete(gomock.Any(), testTransactionID).Return(nil)
			},
			want: dto.ConfirmResponse{
				TransactionID: testTransactionID,
				BookingID:     "901",
				BookingRef:    "PPT240610000000",
				Amount:        799,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.mock(deps)

			res, err := deps.svc.Confirm(context.Background(), tt.req)
			if tt.wantCode != 0 {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want.TransactionID, res.TransactionID)
			assert.Equal(t, tt.want.BookingID, res.BookingID)
			assert.Equal(t, tt.want.BookingRef, res.BookingRef)
			assert.InDelta(t, tt.want.Amount, res.Amount, 0.001)
			assert.Equal(t, tt.want.PaymentRecorded, res.PaymentRecorded)
			assert.Equal(t, tt.want.AlreadyConfirmed, res.AlreadyConfirmed)
		})
	}
}

func TestBookingService_Confirm_CreatesBookingFromPendingData(t *testing.T) {
	deps := newTestDeps(t)

	var (
		payload backend.BookingPayload
		event   notificationModel.BookingConfirmedEvent
		record  backend.PaymentRecord
	)

	deps.cache.EXPECT().Lock(gomock.Any(), lockKey, 60).Return(true, nil)
	deps.cache.EXPECT().Unlock(gomock.Any(), lockKey).Return(nil)
	deps.cache.EXPECT().Get(gomock.Any(), confirmationKey, gomock.Any()).Return(errors.New("miss"))
	deps.pending.EXPECT().Load(gomock.Any(), testTransactionID, true).Return(pendingBooking(), nil)
	deps.backend.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p backend.BookingPayload) (backend.CreatedBooking, error) {
			payload = p

			return backend.CreatedBooking{ID: "901"}, nil
		})
	deps.backend.EXPECT().RecordPayment(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r backend.PaymentRecord) error {
			record = r

			return nil
		})
	deps.cache.EXPECT().Save(gomock.Any(), confirmationKey, gomock.Any(), 24*60*60).Return(nil)
	deps.notification.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e notificationModel.BookingConfirmedEvent) error {
			event = e

			return nil
		})
	deps.pending.EXPECT().Delete(gomock.Any(), testTransactionID).Return(failure.NotFound("pending booking"))

	res, err := deps.svc.Confirm(context.Background(), confirmRequest())

	assert.NoError(t, err)
	assert.Equal(t, "901", res.BookingID)
	assert.True(t, res.PaymentRecorded)

	refTime, ok := pendingModel.TransactionTime(testTransactionID)
	assert.True(t, ok)

	wantRef := model.GenerateBookingRef(refTime)
	assert.Regexp(t, `^PPT\d{12}$`, payload.Booking.BookingRef)
	assert.Equal(t, wantRef, payload.Booking.BookingRef)
	assert.Equal(t, wantRef, res.BookingRef)

	assert.Equal(t, testTransactionID, payload.Booking.TransactionID)
	assert.Equal(t, "T2406101234", payload.Booking.MerchantTransactionID)
	assert.Equal(t, model.PaymentMethodPhonePe, payload.Booking.PaymentMethod)
	assert.Equal(t, model.PaymentStatusPaid, payload.Booking.PaymentStatus)
	assert.InDelta(t, 799.0, payload.Booking.TotalAmount, 0.001)
	assert.Equal(t, "Asha", payload.Parent.ParentName)
	assert.Equal(t, "Riya", payload.Child.FullName)
	assert.Len(t, payload.BookingGames, 1)
	assert.Equal(t, backend.FlexString("11"), payload.BookingGames[0].SlotID)

	assert.Equal(t, backend.FlexString("901"), record.BookingID)
	assert.Equal(t, model.PaymentStatusSuccess, record.PaymentStatus)

	assert.Equal(t, wantRef, event.BookingRef)
	assert.Equal(t, "Asha", event.ParentName)
	assert.Equal(t, "9876543210", event.ParentPhone)
	assert.Equal(t, "Crawling", event.GameNames())
}
