package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"nibog/config"
	otelMocks "nibog/infras/otel/mocks"
	"nibog/infras/scheduler"
	paymentMocks "nibog/internal/domains/payment/mocks"
	pendingMocks "nibog/internal/domains/pendingbooking/mocks"
	"nibog/shared/failure"
	"nibog/transport/task"
)

const testTransactionID = "NIBOG_42_1718000000000"

type testDeps struct {
	pending *pendingMocks.MockPendingBooking
	payment *paymentMocks.MockPayment
	task    *task.Task
}

func newTestDeps(t *testing.T) testDeps {
	ctrl := gomock.NewController(t)

	deps := testDeps{
		pending: pendingMocks.NewMockPendingBooking(ctrl),
		payment: paymentMocks.NewMockPayment(ctrl),
	}
	deps.task = task.New(&config.Config{}, deps.pending, deps.payment, otelMocks.NewOtel())

	return deps
}

func TestTask_HandleExpirePendingBooking(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		setup         func(deps testDeps)
		wantErr       bool
		wantSkipRetry bool
	}{
		{
			name:    "expired",
			payload: `{"transaction_id":"` + testTransactionID + `"}`,
			setup: func(deps testDeps) {
				deps.pending.EXPECT().Expire(gomock.Any(), testTransactionID).Return(nil)
			},
		},
		{
			name:          "payload without transaction id",
			payload:       `{}`,
			setup:         func(_ testDeps) {},
			wantErr:       true,
			wantSkipRetry: true,
		},
		{
			name:          "payload is not json",
			payload:       `nope`,
			setup:         func(_ testDeps) {},
			wantErr:       true,
			wantSkipRetry: true,
		},
		{
			name:    "backend unreachable is retried",
			payload: `{"transaction_id":"` + testTransactionID + `"}`,
			setup: func(deps testDeps) {
				deps.pending.EXPECT().Expire(gomock.Any(), testTransactionID).
					Return(failure.ServiceUnavailable("booking backend unreachable"))
			},
			wantErr: true,
		},
		{
			name:    "bad request is not retried",
			payload: `{"transaction_id":"` + testTransactionID + `"}`,
			setup: func(deps testDeps) {
				deps.pending.EXPECT().Expire(gomock.Any(), testTransactionID).Return(failure.MissingTransactionID)
			},
			wantErr:       true,
			wantSkipRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setup(deps)

			err := deps.task.HandleExpirePendingBooking(context.Background(),
				asynq.NewTask(scheduler.TypePendingBookingExpire, []byte(tt.payload)))

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantSkipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestTask_HandleReconcilePayment(t *testing.T) {
	tests := []struct {
		name          string
		payload       string
		setup         func(deps testDeps)
		wantErr       bool
		wantSkipRetry bool
	}{
		{
			name:    "reconciled with attempt",
			payload: `{"transaction_id":"` + testTransactionID + `","attempt":3}`,
			setup: func(deps testDeps) {
				deps.payment.EXPECT().Reconcile(gomock.Any(), testTransactionID, 3).Return(nil)
			},
		},
		{
			name:    "gateway failure is retried",
			payload: `{"transaction_id":"` + testTransactionID + `","attempt":1}`,
			setup: func(deps testDeps) {
				deps.payment.EXPECT().Reconcile(gomock.Any(), testTransactionID, 1).Return(errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name:          "invalid payload",
			payload:       `{"attempt":1}`,
			setup:         func(_ testDeps) {},
			wantErr:       true,
			wantSkipRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setup(deps)

			err := deps.task.HandleReconcilePayment(context.Background(),
				asynq.NewTask(scheduler.TypePaymentReconcile, []byte(tt.payload)))

			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantSkipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestTask_Mux(t *testing.T) {
	deps := newTestDeps(t)
	deps.pending.EXPECT().Expire(gomock.Any(), testTransactionID).Return(nil)
	deps.payment.EXPECT().Reconcile(gomock.Any(), testTransactionID, 2).Return(nil)

	mux := deps.task.Mux()

	assert.NoError(t, mux.ProcessTask(context.Background(),
		asynq.NewTask(scheduler.TypePendingBookingExpire, []byte(`{"transaction_id":"`+testTransactionID+`"}`))))
	assert.NoError(t, mux.ProcessTask(context.Background(),
		asynq.NewTask(scheduler.TypePaymentReconcile, []byte(`{"transaction_id":"`+testTransactionID+`","attempt":2}`))))
	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)))
}
