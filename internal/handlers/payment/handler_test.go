package payment_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	otelMocks "nibog/infras/otel/mocks"
	"nibog/internal/domains/payment/mocks"
	"nibog/internal/domains/payment/model/dto"
	"nibog/internal/handlers/payment"
	"nibog/shared/constant"
	"nibog/shared/failure"
)

const (
	testTransactionID = "NIBOG_42_1718000000000"
	frontendTarget    = "https://www.nibog.in/payment-callback?status=success&transaction_id=" + testTransactionID
)

func newRouter(t *testing.T) (*mocks.MockPayment, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPayment(ctrl)

	handler := payment.New(svc, otelMocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)

	return svc, router
}

func TestHandler_InitiatePayment(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(svc *mocks.MockPayment)
		wantStatus int
		wantBody   string
	}{
		{
			name: "redirect url returned",
			body: `{"transaction_id":"` + testTransactionID + `","user_id":"42","amount":799,"mobile":"9876543210"}`,
			setup: func(svc *mocks.MockPayment) {
				svc.EXPECT().Initiate(gomock.Any(), dto.InitiateRequest{
					TransactionID: testTransactionID,
					UserID:        "42",
					Amount:        799,
					Mobile:        "9876543210",
				}).Return(dto.InitiateResponse{
					TransactionID: testTransactionID,
					RedirectURL:   "https://mercury.phonepe.com/pay/abc",
					AmountPaise:   79900,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "mercury.phonepe.com",
		},
		{
			name:       "malformed transaction id",
			body:       `{"transaction_id":"ORDER-1","user_id":"42","amount":799}`,
			setup:      func(_ *mocks.MockPayment) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero amount",
			body:       `{"transaction_id":"` + testTransactionID + `","user_id":"42","amount":0}`,
			setup:      func(_ *mocks.MockPayment) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "already paid",
			body: `{"transaction_id":"` + testTransactionID + `","user_id":"42","amount":799}`,
			setup: func(svc *mocks.MockPayment) {
				svc.EXPECT().Initiate(gomock.Any(), gomock.Any()).
					Return(dto.InitiateResponse{}, failure.Conflict("payment already captured"))
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/payments/phonepe/initiate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_PaymentCallback(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(svc *mocks.MockPayment)
		wantStatus int
	}{
		{
			name: "verified callback",
			body: `{"response":"eyJzdWNjZXNzIjp0cnVlfQ=="}`,
			setup: func(svc *mocks.MockPayment) {
				svc.EXPECT().HandleCallback(gomock.Any(), dto.CallbackRequest{
					Response: "eyJzdWNjZXNzIjp0cnVlfQ==",
					XVerify:  "checksum###1",
				}).Return(dto.CallbackResponse{TransactionID: testTransactionID, Status: "booked"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "callback wrapped in an array",
			body: `[{"response":"eyJzdWNjZXNzIjp0cnVlfQ=="}]`,
			setup: func(svc *mocks.MockPayment) {
				svc.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).
					Return(dto.CallbackResponse{TransactionID: testTransactionID, Status: "failed"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "body is not json",
			body:       "response=abc",
			setup:      func(_ *mocks.MockPayment) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "checksum mismatch",
			body: `{"response":"eyJzdWNjZXNzIjp0cnVlfQ=="}`,
			setup: func(svc *mocks.MockPayment) {
				svc.EXPECT().HandleCallback(gomock.Any(), gomock.Any()).
					Return(dto.CallbackResponse{}, failure.Unauthorized("invalid callback checksum"))
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/payments/phonepe/callback", strings.NewReader(tt.body))
			req.Header.Set(constant.RequestHeaderVerify, "checksum###1")

			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_PaymentRedirect(t *testing.T) {
	tests := []struct {
		name        string
		newRequest  func() *http.Request
		transaction string
	}{
		{
			name: "gateway form post",
			newRequest: func() *http.Request {
				form := url.Values{}
				form.Set("code", "PAYMENT_SUCCESS")
				form.Set("transactionId", testTransactionID)

				req := httptest.NewRequest(http.MethodPost, "/payments/phonepe/redirect", strings.NewReader(form.Encode()))
				req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeFormURLEncoded)

				return req
			},
			transaction: testTransactionID,
		},
		{
			name: "query with merchant transaction id",
			newRequest: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/payments/phonepe/redirect?merchantTransactionId="+testTransactionID, nil)
			},
			transaction: testTransactionID,
		},
		{
			name: "query with snake case id",
			newRequest: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/payments/phonepe/redirect?transaction_id="+testTransactionID, nil)
			},
			transaction: testTransactionID,
		},
		{
			name: "no transaction id",
			newRequest: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/payments/phonepe/redirect", nil)
			},
			transaction: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			svc.EXPECT().Redirect(gomock.Any(), tt.transaction).Return(frontendTarget)

			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, tt.newRequest())

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, frontendTarget, rec.Header().Get("Location"))
		})
	}
}

func TestHandler_PaymentStatus(t *testing.T) {
	tests := []struct {
		name       string
		res        dto.StatusResponse
		err        error
		wantStatus int
	}{
		{
			name:       "booked",
			res:        dto.StatusResponse{TransactionID: testTransactionID, Status: "booked", BookingRef: "PPT240610000000"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown transaction",
			err:        failure.NotFound("payment_transaction"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "gateway timeout",
			err:        failure.GatewayTimeout("phonepe status timed out"),
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			svc.EXPECT().CheckStatus(gomock.Any(), testTransactionID).Return(tt.res, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/payments/phonepe/status/"+testTransactionID, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
