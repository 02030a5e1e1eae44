package payment

import (
	"io"
	"net/http"
	"nibog/infras/otel"
	"nibog/infras/phonepe"
	"nibog/internal/domains/payment/model/dto"
	"nibog/internal/domains/payment/service"
	"nibog/shared/constant"
	"nibog/shared/failure"
	"nibog/shared/validator"
	"nibog/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxCallbackBytes = 64 << 10

// redirectTransactionKeys are the form fields the gateway has used for the merchant transaction id.
var redirectTransactionKeys = []string{"transactionId", "merchantTransactionId", constant.RequestParamTransactionID}

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments/phonepe", func(routerGroup chi.Router) {
		routerGroup.Post("/initiate", handler.InitiatePayment)
		routerGroup.Post("/callback", handler.PaymentCallback)
		routerGroup.Get("/redirect", handler.PaymentRedirect)
		routerGroup.Post("/redirect", handler.PaymentRedirect)
		routerGroup.Get("/status/{transaction_id}", handler.PaymentStatus)
	})
}

// InitiatePayment starts a PhonePe payment for a pending booking.
// @Summary Initiate a PhonePe payment
// @Description Validates the amount against the pending booking and returns the PhonePe pay page URL.
// @Tags Payment
// @Accept json
// @Produce json
// @Param request body dto.InitiateRequest true "Initiate Payment Request"
// @Success 200 {object} dto.InitiateResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 410 {object} response.Error
// @Failure 502 {object} response.Error
// @Failure 504 {object} response.Error
// @Router /v1/payments/phonepe/initiate [post]
func (handler *Handler) InitiatePayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".InitiatePayment")
	defer scope.End()

	req := dto.InitiateRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Initiate(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to initiate payment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment initiated " + res.TransactionID)

	response.WithJSON(writer, http.StatusOK, res)
}

// PaymentCallback receives the server-to-server notification from PhonePe.
// @Summary PhonePe callback
// @Description Verifies the X-VERIFY checksum and settles the payment. Responds 200 once verified.
// @Tags Payment
// @Accept json
// @Produce json
// @Param X-VERIFY header string true "Callback checksum"
// @Success 200 {object} dto.CallbackResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/payments/phonepe/callback [post]
func (handler *Handler) PaymentCallback(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PaymentCallback")
	defer scope.End()

	body, err := io.ReadAll(http.MaxBytesReader(writer, request.Body, maxCallbackBytes))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read callback body")

		response.WithError(writer, failure.BadRequest(err))

		return
	}

	encoded, err := phonepe.ParseCallbackBody(body)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse callback body")

		response.WithError(writer, failure.BadRequest(err))

		return
	}

	req := dto.CallbackRequest{
		Response: encoded,
		XVerify:  request.Header.Get(constant.RequestHeaderVerify),
	}

	res, err := handler.service.HandleCallback(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to handle payment callback")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment callback handled " + res.TransactionID)

	response.WithJSON(writer, http.StatusOK, res)
}

// PaymentRedirect sends the browser back to the frontend once PhonePe returns it.
// @Summary PhonePe redirect
// @Description Resolves the payment status and redirects to the frontend payment-callback page.
// @Tags Payment
// @Accept x-www-form-urlencoded
// @Param transactionId formData string false "Merchant transaction ID"
// @Success 303
// @Router /v1/payments/phonepe/redirect [post]
// @Router /v1/payments/phonepe/redirect [get]
func (handler *Handler) PaymentRedirect(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PaymentRedirect")
	defer scope.End()

	if err := request.ParseForm(); err != nil {
		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to parse redirect form")
	}

	transactionID := ""

	for _, key := range redirectTransactionKeys {
		if value := request.Form.Get(key); value != "" {
			transactionID = value

			break
		}
	}

	target := handler.service.Redirect(ctx, transactionID)

	scope.AddEvent("Payment redirect resolved")

	http.Redirect(writer, request, target, http.StatusSeeOther)
}

// PaymentStatus polls the payment status, confirming the booking when it has been paid.
// @Summary Get payment status
// @Tags Payment
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.StatusResponse
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 502 {object} response.Error
// @Failure 504 {object} response.Error
// @Router /v1/payments/phonepe/status/{transaction_id} [get]
func (handler *Handler) PaymentStatus(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PaymentStatus")
	defer scope.End()

	transactionID := chi.URLParam(request, constant.RequestParamTransactionID)

	res, err := handler.service.CheckStatus(ctx, transactionID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to check payment status")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment status retrieved")

	response.WithJSON(writer, http.StatusOK, res)
}
