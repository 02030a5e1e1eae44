package pendingbooking

import (
	"net/http"
	"nibog/infras/otel"
	"nibog/internal/domains/pendingbooking/model/dto"
	"nibog/internal/domains/pendingbooking/service"
	"nibog/shared/constant"
	"nibog/shared/validator"
	"nibog/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.PendingBooking
	otel    otel.Otel
}

func New(service service.PendingBooking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/pending-bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreatePendingBooking)
		routerGroup.Get("/{transaction_id}", handler.GetPendingBooking)
		routerGroup.Delete("/{transaction_id}", handler.DeletePendingBooking)
	})
}

// CreatePendingBooking stores the checkout form until payment completes.
// @Summary Create a pending booking
// @Description Store the booking form and receive the transaction id used for payment.
// @Tags PendingBooking
// @Accept json
// @Produce json
// @Param request body dto.CreatePendingBookingRequest true "Create Pending Booking Request"
// @Success 201 {object} dto.CreatePendingBookingResponse
// @Failure 400 {object} response.Error
// @Failure 503 {object} response.Error
// @Failure 504 {object} response.Error
// @Router /v1/pending-bookings [post]
func (handler *Handler) CreatePendingBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreatePendingBooking")
	defer scope.End()

	req := dto.CreatePendingBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to create pending booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Pending booking created " + res.TransactionID)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetPendingBooking polls a pending booking.
// @Summary Get a pending booking
// @Description Returns 207 with the raw payload when the stored booking data was only partially readable.
// @Tags PendingBooking
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.PendingBookingResponse
// @Success 207 {object} dto.PendingBookingResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 410 {object} response.Error
// @Failure 503 {object} response.Error
// @Failure 504 {object} response.Error
// @Router /v1/pending-bookings/{transaction_id} [get]
func (handler *Handler) GetPendingBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPendingBooking")
	defer scope.End()

	transactionID := chi.URLParam(request, constant.RequestParamTransactionID)

	res, err := handler.service.Get(ctx, transactionID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to get pending booking")

		response.WithError(writer, err)

		return
	}

	if res.Partial {
		scope.AddEvent("Pending booking partially retrieved")

		response.WithPartial(writer, res)

		return
	}

	scope.AddEvent("Pending booking retrieved")

	response.WithJSON(writer, http.StatusOK, res)
}

// DeletePendingBooking removes a pending booking.
// @Summary Delete a pending booking
// @Tags PendingBooking
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/pending-bookings/{transaction_id} [delete]
func (handler *Handler) DeletePendingBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeletePendingBooking")
	defer scope.End()

	transactionID := chi.URLParam(request, constant.RequestParamTransactionID)

	if err := handler.service.Delete(ctx, transactionID); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to delete pending booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Pending booking deleted")

	response.WithMessage(writer, http.StatusOK, "Pending booking deleted successfully")
}
