package admin_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	otelMocks "nibog/infras/otel/mocks"
	notificationMocks "nibog/internal/domains/notification/mocks"
	notificationModel "nibog/internal/domains/notification/model"
	notificationDto "nibog/internal/domains/notification/model/dto"
	paymentMocks "nibog/internal/domains/payment/mocks"
	paymentModel "nibog/internal/domains/payment/model"
	paymentDto "nibog/internal/domains/payment/model/dto"
	"nibog/internal/handlers/admin"
	gDto "nibog/shared/dto"
	"nibog/shared/failure"
	"nibog/shared/timezone"
)

const testTransactionID = "NIBOG_42_1718000000000"

// passThrough stands in for the JWT and RBAC chain.
type passThrough struct{}

func (passThrough) Auth(next http.Handler) http.Handler   { return next }
func (passThrough) APIKey(next http.Handler) http.Handler { return next }
func (passThrough) RBAC(next http.Handler) http.Handler   { return next }

type testDeps struct {
	payment      *paymentMocks.MockPayment
	notification *notificationMocks.MockNotification
	router       http.Handler
}

func newTestDeps(t *testing.T) testDeps {
	ctrl := gomock.NewController(t)

	deps := testDeps{
		payment:      paymentMocks.NewMockPayment(ctrl),
		notification: notificationMocks.NewMockNotification(ctrl),
	}

	handler := admin.New(deps.payment, deps.notification, passThrough{}, otelMocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)
	deps.router = router

	return deps
}

func filterValues(group gDto.FilterGroup) map[string]any {
	values := map[string]any{}

	for _, f := range group.Filters {
		filter, ok := f.(gDto.Filter)
		if !ok {
			continue
		}

		key := filter.Field
		if filter.ArgName != "" {
			key = filter.ArgName
		}

		if at, isTime := filter.Value.(time.Time); isTime {
			values[key] = at.Format(time.RFC3339Nano)

			continue
		}

		values[key] = filter.Value
	}

	return values
}

func TestHandler_GetPayments(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantFilters map[string]any
		err         error
		wantStatus  int
	}{
		{
			name:        "no filters",
			query:       "",
			wantFilters: map[string]any{},
			wantStatus:  http.StatusOK,
		},
		{
			name:  "status and user",
			query: "?status=booking_failed&user_id=42&page=2&limit=5",
			wantFilters: map[string]any{
				paymentModel.FieldStatus: "booking_failed",
				paymentModel.FieldUserID: "42",
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "created range",
			query: "?from=2024-03-01&to=2024-03-31",
			wantFilters: map[string]any{
				"created_at_from": time.Date(2024, 3, 1, 0, 0, 0, 0, timezone.GetLocation()).Format(time.RFC3339Nano),
				"created_at_to":   time.Date(2024, 3, 31, 23, 59, 59, 999999999, timezone.GetLocation()).Format(time.RFC3339Nano),
			},
			wantStatus: http.StatusOK,
		},
		{
			name:        "ledger failure",
			query:       "?status=paid",
			wantFilters: map[string]any{paymentModel.FieldStatus: "paid"},
			err:         errors.New("connection refused"),
			wantStatus:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)

			deps.payment.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ any, _ gDto.QueryParams, filter gDto.FilterGroup) (paymentDto.GetTransactionsResponse, error) {
					assert.Equal(t, tt.wantFilters, filterValues(filter))

					return paymentDto.GetTransactionsResponse{TotalData: 1, TotalPage: 1}, tt.err
				})

			req := httptest.NewRequest(http.MethodGet, "/admin/payments"+tt.query, nil)
			rec := httptest.NewRecorder()

			deps.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_GetPayments_InvalidDate(t *testing.T) {
	deps := newTestDeps(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/payments?from=01-03-2024", nil)
	rec := httptest.NewRecorder()

	deps.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_GetPayment(t *testing.T) {
	deps := newTestDeps(t)
	deps.payment.EXPECT().Get(gomock.Any(), testTransactionID).Return(paymentDto.TransactionResponse{}, failure.NotFound("payment_transaction"))

	req := httptest.NewRequest(http.MethodGet, "/admin/payments/"+testTransactionID, nil)
	rec := httptest.NewRecorder()

	deps.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ReconcilePayment(t *testing.T) {
	deps := newTestDeps(t)
	deps.payment.EXPECT().CheckStatus(gomock.Any(), testTransactionID).
		Return(paymentDto.StatusResponse{TransactionID: testTransactionID, Status: paymentModel.StatusBooked}, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/payments/"+testTransactionID+"/reconcile", nil)
	rec := httptest.NewRecorder()

	deps.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), paymentModel.StatusBooked)
}

func TestHandler_GetNotifications(t *testing.T) {
	deps := newTestDeps(t)

	deps.notification.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, _ gDto.QueryParams, filter gDto.FilterGroup) (notificationDto.GetNotificationLogsResponse, error) {
			assert.Equal(t, map[string]any{
				notificationModel.FieldChannel:    notificationModel.ChannelWhatsApp,
				notificationModel.FieldBookingRef: "PPT240610000000",
			}, filterValues(filter))

			return notificationDto.GetNotificationLogsResponse{}, nil
		})

	req := httptest.NewRequest(http.MethodGet, "/admin/notifications?channel=whatsapp&booking_ref=PPT240610000000", nil)
	rec := httptest.NewRecorder()

	deps.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_DispatchNotification(t *testing.T) {
	body := `{"transaction_id":"` + testTransactionID + `","booking_ref":"PPT240610000000","parent_name":"Asha",` +
		`"parent_phone":"9876543210","child_name":"Riya","total_amount":799}`

	tests := []struct {
		name       string
		query      string
		body       string
		setup      func(deps testDeps)
		wantStatus int
	}{
		{
			name:  "dispatch skips delivered channels",
			query: "",
			body:  body,
			setup: func(deps testDeps) {
				deps.notification.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, event notificationModel.BookingConfirmedEvent) (notificationDto.DispatchResponse, error) {
						assert.Equal(t, "PPT240610000000", event.BookingRef)
						assert.Equal(t, "9876543210", event.ParentPhone)

						return notificationDto.DispatchResponse{BookingRef: event.BookingRef}, nil
					})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "force resends",
			query: "?force=true",
			body:  body,
			setup: func(deps testDeps) {
				deps.notification.EXPECT().Resend(gomock.Any(), gomock.Any()).
					Return(notificationDto.DispatchResponse{BookingRef: "PPT240610000000"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing booking ref",
			body:       strings.Replace(body, `"booking_ref":"PPT240610000000",`, "", 1),
			setup:      func(_ testDeps) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "every channel failed",
			body: body,
			setup: func(deps testDeps) {
				deps.notification.EXPECT().Dispatch(gomock.Any(), gomock.Any()).
					Return(notificationDto.DispatchResponse{}, failure.InternalError(errors.New("every notification channel failed")))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			tt.setup(deps)

			req := httptest.NewRequest(http.MethodPost, "/admin/notifications/dispatch"+tt.query, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			deps.router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
