package pendingbooking_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	otelMocks "nibog/infras/otel/mocks"
	"nibog/internal/domains/pendingbooking/mocks"
	"nibog/internal/domains/pendingbooking/model/dto"
	"nibog/internal/handlers/pendingbooking"
	"nibog/shared/failure"
)

const testTransactionID = "NIBOG_42_1718000000000"

const validBody = `{"user_id":"42","parent":{"parent_name":"Asha","email":"asha@example.com","phone":"9876543210"},` +
	`"child":{"full_name":"Riya","date_of_birth":"2023-01-10","gender":"female"},"event_id":"7",` +
	`"games":[{"game_id":"3","slot_id":"11","game_price":799}],"total_amount":799,"terms_accepted":true}`

func newRouter(t *testing.T) (*mocks.MockPendingBooking, http.Handler) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPendingBooking(ctrl)

	handler := pendingbooking.New(svc, otelMocks.NewOtel())

	router := chi.NewRouter()
	handler.Router(router)

	return svc, router
}

func TestHandler_CreatePendingBooking(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(svc *mocks.MockPendingBooking)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: validBody,
			setup: func(svc *mocks.MockPendingBooking) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, req dto.CreatePendingBookingRequest) (dto.CreatePendingBookingResponse, error) {
						assert.Equal(t, "42", req.UserID)
						assert.Len(t, req.Games, 1)

						return dto.CreatePendingBookingResponse{TransactionID: testTransactionID}, nil
					})
			},
			wantStatus: http.StatusCreated,
			wantBody:   testTransactionID,
		},
		{
			name:       "malformed json",
			body:       `{"user_id":`,
			setup:      func(_ *mocks.MockPendingBooking) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing games",
			body:       strings.Replace(validBody, `"games":[{"game_id":"3","slot_id":"11","game_price":799}],`, "", 1),
			setup:      func(_ *mocks.MockPendingBooking) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "upstream unavailable",
			body: validBody,
			setup: func(svc *mocks.MockPendingBooking) {
				svc.EXPECT().Create(gomock.Any(), gomock.Any()).
					Return(dto.CreatePendingBookingResponse{}, failure.ServiceUnavailable("booking backend unreachable"))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/pending-bookings/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestHandler_GetPendingBooking(t *testing.T) {
	tests := []struct {
		name       string
		res        dto.PendingBookingResponse
		err        error
		wantStatus int
	}{
		{
			name:       "complete record",
			res:        dto.PendingBookingResponse{TransactionID: testTransactionID, Status: "pending"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "partial record",
			res:        dto.PendingBookingResponse{TransactionID: testTransactionID, Partial: true, BookingDataRaw: "{broken"},
			wantStatus: http.StatusMultiStatus,
		},
		{
			name:       "expired",
			err:        failure.Gone("pending booking has expired"),
			wantStatus: http.StatusGone,
		},
		{
			name:       "not found",
			err:        failure.NotFound("pending booking"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "upstream timeout",
			err:        failure.GatewayTimeout("booking backend timed out"),
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, router := newRouter(t)
			svc.EXPECT().Get(gomock.Any(), testTransactionID).Return(tt.res, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/pending-bookings/"+testTransactionID, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.err != nil {
				return
			}

			var body struct {
				Data dto.PendingBookingResponse `json:"data"`
			}

			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.res.Partial, body.Data.Partial)
			assert.Equal(t, testTransactionID, body.Data.TransactionID)
		})
	}
}

func TestHandler_DeletePendingBooking(t *testing.T) {
	svc, router := newRouter(t)
	svc.EXPECT().Delete(gomock.Any(), testTransactionID).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/pending-bookings/"+testTransactionID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted")
}
