package admin

import (
	"net/http"
	"nibog/infras/otel"
	notificationModel "nibog/internal/domains/notification/model"
	notificationDto "nibog/internal/domains/notification/model/dto"
	notificationService "nibog/internal/domains/notification/service"
	paymentModel "nibog/internal/domains/payment/model"
	paymentService "nibog/internal/domains/payment/service"
	"nibog/shared"
	"nibog/shared/constant"
	gDto "nibog/shared/dto"
	"nibog/shared/failure"
	"nibog/shared/timezone"
	"nibog/shared/validator"
	"nibog/transport/http/middleware"
	"nibog/transport/http/response"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	queryParamForce = "force"
	queryParamFrom  = "from"
	queryParamTo    = "to"
	queryDateLayout = "2006-01-02"
)

type Handler struct {
	payment      paymentService.Payment
	notification notificationService.Notification
	middleware   middleware.AuthRole
	otel         otel.Otel
}

func New(
	payment paymentService.Payment,
	notification notificationService.Notification,
	middleware middleware.AuthRole,
	otel otel.Otel,
) Handler {
	return Handler{
		payment:      payment,
		notification: notification,
		middleware:   middleware,
		otel:         otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/admin", func(routerGroup chi.Router) {
		routerGroup.Use(handler.middleware.APIKey, handler.middleware.Auth, handler.middleware.RBAC)

		routerGroup.Get("/payments", handler.GetPayments)
		routerGroup.Get("/payments/{transaction_id}", handler.GetPayment)
		routerGroup.Post("/payments/{transaction_id}/reconcile", handler.ReconcilePayment)

		routerGroup.Get("/notifications", handler.GetNotifications)
		routerGroup.Post("/notifications/dispatch", handler.DispatchNotification)
	})
}

// GetPayments lists ledger rows.
// @Summary List payment transactions
// @Tags Admin
// @Produce json
// @Param status query string false "Filter by status"
// @Param user_id query string false "Filter by user ID"
// @Param from query string false "Created on or after (YYYY-MM-DD)"
// @Param to query string false "Created on or before (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} dto.GetTransactionsResponse
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/admin/payments [get]
// @Security BearerAuth
func (handler *Handler) GetPayments(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPayments")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filterGroup := equalityFilters(request, paymentModel.TableName, paymentModel.FieldStatus, paymentModel.FieldUserID)
	if err := createdRange(request, paymentModel.TableName, &filterGroup); err != nil {
		scope.TraceError(err)
		response.WithError(writer, err)

		return
	}

	res, err := handler.payment.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get payment transactions")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment transactions retrieved")

	response.WithJSON(writer, http.StatusOK, res)
}

// GetPayment returns one ledger row.
// @Summary Get a payment transaction
// @Tags Admin
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} response.Error
// @Router /v1/admin/payments/{transaction_id} [get]
// @Security BearerAuth
func (handler *Handler) GetPayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPayment")
	defer scope.End()

	transactionID := chi.URLParam(request, constant.RequestParamTransactionID)

	res, err := handler.payment.Get(ctx, transactionID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to get payment transaction")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Payment transaction retrieved")

	response.WithJSON(writer, http.StatusOK, res)
}

// ReconcilePayment re-checks the gateway and confirms the booking when the payment was captured.
// @Summary Reconcile a payment @Admin
// @Tags Admin
// @Produce json
// @Param transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.StatusResponse
// @Failure 404 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/admin/payments/{transaction_id}/reconcile [post]
// @Security BearerAuth
func (handler *Handler) ReconcilePayment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReconcilePayment")
	defer scope.End()

	transactionID := chi.URLParam(request, constant.RequestParamTransactionID)

	res, err := handler.payment.CheckStatus(ctx, transactionID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to reconcile payment")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Payment reconciled by user " + user)

	response.WithJSON(writer, http.StatusOK, res)
}

// GetNotifications lists notification delivery logs.
// @Summary List notification logs
// @Tags Admin
// @Produce json
// @Param channel query string false "Filter by channel"
// @Param status query string false "Filter by status"
// @Param booking_ref query string false "Filter by booking reference"
// @Success 200 {object} notificationDto.GetNotificationLogsResponse
// @Router /v1/admin/notifications [get]
// @Security BearerAuth
func (handler *Handler) GetNotifications(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetNotifications")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(request, true)

	filterGroup := equalityFilters(
		request,
		notificationModel.TableName,
		notificationModel.FieldChannel,
		notificationModel.FieldStatus,
		notificationModel.FieldBookingRef,
	)

	res, err := handler.notification.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get notification logs")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Notification logs retrieved")

	response.WithJSON(writer, http.StatusOK, res)
}

// DispatchNotification sends a booking confirmation on demand. With force=true every channel is resent.
// @Summary Dispatch a booking confirmation @Admin
// @Tags Admin
// @Accept json
// @Produce json
// @Param force query boolean false "Resend on channels that already succeeded"
// @Param request body notificationDto.DispatchRequest true "Dispatch Request"
// @Success 200 {object} notificationDto.DispatchResponse
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/notifications/dispatch [post]
// @Security BearerAuth
func (handler *Handler) DispatchNotification(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DispatchNotification")
	defer scope.End()

	req := notificationDto.DispatchRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	event := req.ToEvent()

	send := handler.notification.Dispatch
	if force := shared.ConvertStringToBool(request.URL.Query().Get(queryParamForce)); force != nil && *force {
		send = handler.notification.Resend
	}

	res, err := send(ctx, event)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_ref", req.BookingRef).Msg("failed to dispatch notification")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Notification dispatched by user " + user)

	response.WithJSON(writer, http.StatusOK, res)
}

// equalityFilters builds an AND group from the query parameters that are present.
func equalityFilters(request *http.Request, table string, fields ...string) gDto.FilterGroup {
	filterGroup := gDto.And()

	for _, field := range fields {
		if value := request.URL.Query().Get(field); value != "" {
			filterGroup.Add(gDto.Eq(table, field, value))
		}
	}

	return filterGroup
}

// createdRange narrows group to rows created between the from and to dates, both inclusive.
func createdRange(request *http.Request, table string, group *gDto.FilterGroup) error {
	query := request.URL.Query()

	if from := query.Get(queryParamFrom); from != "" {
		since, err := timezone.Parse(queryDateLayout, from)
		if err != nil {
			return failure.BadRequestFromString("from must be a YYYY-MM-DD date")
		}

		group.Add(gDto.Since(table, constant.FieldCreatedAt, since))
	}

	if to := query.Get(queryParamTo); to != "" {
		until, err := timezone.Parse(queryDateLayout, to)
		if err != nil {
			return failure.BadRequestFromString("to must be a YYYY-MM-DD date")
		}

		group.Add(gDto.Until(table, constant.FieldCreatedAt, until.AddDate(0, 0, 1).Add(-time.Nanosecond)))
	}

	return nil
}
