package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"nibog/config"
	"nibog/infras/httpclient"
	"nibog/infras/otel"
	"nibog/infras/phonepe"
	"nibog/infras/scheduler"
	bookingDto "nibog/internal/domains/booking/model/dto"
	bookingService "nibog/internal/domains/booking/service"
	"nibog/internal/domains/payment/model"
	"nibog/internal/domains/payment/model/dto"
	"nibog/internal/domains/payment/repository"
	pendingService "nibog/internal/domains/pendingbooking/service"
	"nibog/shared"
	"nibog/shared/cache"
	"nibog/shared/constant"
	gDto "nibog/shared/dto"
	"nibog/shared/failure"
	gModel "nibog/shared/model"
	gRepo "nibog/shared/repository"
	"nibog/shared/timezone"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAllPayment = "payment:get_all"

	amountTolerance  = 0.005
	systemUser       = "system"
	callbackPath     = "/payment-callback"
	defaultMaxTries  = 5
	defaultRetryWait = 60
)

var (
	ErrAmountMismatch = errors.New("amount does not match the pending booking")
	ErrCapturedAmount = errors.New(model.ReasonCapturedAmount)
)

type Payment interface {
	Initiate(ctx context.Context, req dto.InitiateRequest) (dto.InitiateResponse, error)
	// HandleCallback verifies and settles a server-to-server notification.
	HandleCallback(ctx context.Context, req dto.CallbackRequest) (dto.CallbackResponse, error)
	CheckStatus(ctx context.Context, transactionID string) (dto.StatusResponse, error)
	// Redirect settles what it can and returns the frontend page the customer is sent to.
	Redirect(ctx context.Context, transactionID string) string
	Reconcile(ctx context.Context, transactionID string, attempt int) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetTransactionsResponse, error)
	Get(ctx context.Context, transactionID string) (dto.TransactionResponse, error)
}

type serviceImpl struct {
	repo      repository.Transaction
	pending   pendingService.PendingBooking
	booking   bookingService.Booking
	gateway   phonepe.Gateway
	scheduler scheduler.Scheduler
	cache     cache.RedisCache
	cfg       *config.Config
	otel      otel.Otel
}

func New(
	repo repository.Transaction,
	pending pendingService.PendingBooking,
	booking bookingService.Booking,
	gateway phonepe.Gateway,
	scheduler scheduler.Scheduler,
	cache cache.RedisCache,
	cfg *config.Config,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		repo:      repo,
		pending:   pending,
		booking:   booking,
		gateway:   gateway,
		scheduler: scheduler,
		cache:     cache,
		cfg:       cfg,
		otel:      otel,
	}
}

func (s *serviceImpl) Initiate(ctx context.Context, req dto.InitiateRequest) (res dto.InitiateResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".InitiatePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, req.TransactionID)

	pending, err := s.pending.Load(ctx, req.TransactionID, false)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("cannot initiate payment without a live pending booking")

		return res, err
	}

	total := pending.BookingData.TotalAmount
	if total > 0 && math.Abs(total-req.Amount) > amountTolerance {
		log.Warn().Str("transaction_id", req.TransactionID).Float64("amount", req.Amount).Float64("expected", total).
			Msg("payment amount does not match pending booking")

		return res, failure.BadRequest(ErrAmountMismatch) // nolint:wrapcheck
	}

	existing, found, err := s.find(ctx, req.TransactionID)
	if err != nil {
		return res, err
	}

	if found && existing.Captured() {
		return res, failure.Conflict("payment already completed for this transaction") // nolint:wrapcheck
	}

	now := timezone.Now()
	paise := model.ToPaise(req.Amount)

	if !found {
		_, err = s.repo.InsertIgnore(ctx, model.Transaction{
			TransactionID: req.TransactionID,
			UserID:        req.UserID,
			Amount:        req.Amount,
			AmountPaise:   paise,
			Status:        model.StatusInitiated,
			Metadata:      gModel.NewMetadata(req.UserID, now),
		})
		if err != nil {
			log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to record payment initiation")

			return res, fmt.Errorf("failed to record payment initiation: %w", err)
		}
	}

	mobile := req.Mobile
	if mobile == "" {
		mobile = pending.BookingData.Parent.Phone
	}

	result, err := s.gateway.Initiate(ctx, phonepe.InitiateInput{
		TransactionID: req.TransactionID,
		UserID:        req.UserID,
		AmountPaise:   paise,
		Mobile:        model.MobileNumber(mobile),
	})
	if err != nil {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to initiate phonepe payment")

		s.update(ctx, req.TransactionID, map[string]any{model.FieldFailureReason: err.Error()})

		return res, gatewayFailure(err)
	}

	s.update(ctx, req.TransactionID, map[string]any{
		model.FieldStatus:        model.StatusInitiated,
		model.FieldAmount:        req.Amount,
		model.FieldAmountPaise:   paise,
		model.FieldPhonePeCode:   result.Code,
		model.FieldFailureReason: "",
	})

	log.Info().Str("transaction_id", req.TransactionID).Int64("amount_paise", paise).Msg("payment initiated")

	res.TransactionID = req.TransactionID
	res.RedirectURL = result.RedirectURL
	res.AmountPaise = paise

	return res, nil
}

func (s *serviceImpl) HandleCallback(ctx context.Context, req dto.CallbackRequest) (res dto.CallbackResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".HandleCallback")
	defer scope.End()
	defer scope.TraceIfError(err)

	result, err := s.gateway.VerifyCallback(req.Response, req.XVerify)
	if errors.Is(err, phonepe.ErrInvalidChecksum) {
		log.Warn().Msg("phonepe callback rejected: checksum mismatch")

		return res, failure.Unauthorized("invalid callback checksum") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Msg("phonepe callback rejected: undecodable payload")

		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	transactionID := result.Data.MerchantTransactionID
	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	current, found, err := s.find(ctx, transactionID)
	if err != nil {
		return res, err
	}

	if !found {
		// the gateway knows a transaction the ledger missed, keep what it reports
		log.Warn().Str("transaction_id", transactionID).Msg("callback for unknown transaction, recording it")

		current = model.Transaction{
			TransactionID: transactionID,
			Amount:        result.AmountRupees(),
			AmountPaise:   result.Data.Amount,
			Status:        model.StatusInitiated,
			Metadata:      gModel.NewMetadata(systemUser, timezone.Now()),
		}

		if _, err = s.repo.InsertIgnore(ctx, current); err != nil {
			return res, fmt.Errorf("failed to record callback transaction: %w", err)
		}
	}

	txn, err := s.settle(ctx, current, result, true)
	if err != nil {
		return res, err
	}

	res.TransactionID = transactionID
	res.Status = txn.Status

	return res, nil
}

func (s *serviceImpl) CheckStatus(ctx context.Context, transactionID string) (res dto.StatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CheckPaymentStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	txn, err := s.status(ctx, transactionID, true)
	if err != nil {
		return res, err
	}

	res.FromModel(txn)

	return res, nil
}

func (s *serviceImpl) Redirect(ctx context.Context, transactionID string) string {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RedirectPayment")
	defer scope.End()

	status := dto.RedirectStatusError

	if transactionID != "" {
		res, err := s.CheckStatus(ctx, transactionID)
		if err != nil {
			log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to resolve payment status for redirect")
		} else {
			status = res.RedirectStatus()
		}
	}

	query := url.Values{}
	query.Set(constant.RequestParamTransactionID, transactionID)
	query.Set("status", status)

	return strings.TrimRight(s.cfg.App.FrontendURL, "/") + callbackPath + "?" + query.Encode()
}

func (s *serviceImpl) Reconcile(ctx context.Context, transactionID string, attempt int) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ReconcilePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	txn, err := s.status(ctx, transactionID, false)
	if failure.GetCode(err) == http.StatusNotFound {
		log.Warn().Str("transaction_id", transactionID).Msg("nothing to reconcile")

		return nil
	}

	if err != nil {
		return err
	}

	s.update(ctx, transactionID, map[string]any{model.FieldReconcileAttempts: attempt})

	if txn.Settled() {
		log.Info().Str("transaction_id", transactionID).Str("status", txn.Status).Int("attempt", attempt).Msg("payment reconciled")

		return nil
	}

	maxTries := positive(s.cfg.Booking.ReconcileMaxAttempts, defaultMaxTries)
	if attempt >= maxTries {
		log.Error().Str("transaction_id", transactionID).Str("status", txn.Status).Int("attempt", attempt).
			Msg("payment still unsettled, giving up reconciliation")

		return nil
	}

	next := attempt + 1
	delay := time.Duration(positive(s.cfg.Booking.ReconcileDelaySeconds, defaultRetryWait)*next) * time.Second

	if err := s.scheduler.ScheduleReconcile(ctx, transactionID, next, delay); err != nil {
		return fmt.Errorf("failed to schedule reconciliation: %w", err)
	}

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetTransactionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAllPayments")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPayment, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for payments")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count payments")

		return res, fmt.Errorf("failed to count payments: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get payments")

		return res, fmt.Errorf("failed to get payments: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save payments to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, transactionID string) (res dto.TransactionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetPayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	txn, found, err := s.find(ctx, transactionID)
	if err != nil {
		return res, err
	}

	if !found {
		return res, failure.NotFound(model.EntityName) // nolint:wrapcheck
	}

	res.FromModel(txn)

	return res, nil
}

func (s *serviceImpl) status(ctx context.Context, transactionID string, scheduleRetry bool) (model.Transaction, error) {
	if transactionID == "" {
		return model.Transaction{}, failure.MissingTransactionID
	}

	current, found, err := s.find(ctx, transactionID)
	if err != nil {
		return current, err
	}

	if !found {
		return current, failure.NotFound(model.EntityName) // nolint:wrapcheck
	}

	if current.Settled() {
		return current, nil
	}

	if current.Status == model.StatusPaid || current.Status == model.StatusBookingFailed {
		return s.confirm(ctx, current, nil, scheduleRetry), nil
	}

	result, err := s.gateway.Status(ctx, transactionID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to query phonepe status")

		return current, gatewayFailure(err)
	}

	return s.settle(ctx, current, result, scheduleRetry)
}

// settle applies a gateway result to the ledger and books the event once the money is captured.
func (s *serviceImpl) settle(ctx context.Context, current model.Transaction, result phonepe.StatusResult, scheduleRetry bool) (model.Transaction, error) {
	if current.Status == model.StatusBooked || current.Held() {
		return current, nil
	}

	current.PhonePeCode = result.Code
	if result.Data.TransactionID != "" {
		current.PhonePeTransactionID = result.Data.TransactionID
	}

	if result.Data.PaymentInstrument.Type != "" {
		current.PaymentInstrument = result.Data.PaymentInstrument.Type
	}

	mod := map[string]any{
		model.FieldPhonePeCode:          current.PhonePeCode,
		model.FieldPhonePeTransactionID: current.PhonePeTransactionID,
		model.FieldPaymentInstrument:    current.PaymentInstrument,
	}

	switch result.Outcome() {
	case phonepe.OutcomeSuccess:
		if current.AmountPaise > 0 && result.Data.Amount > 0 && current.AmountPaise != result.Data.Amount {
			log.Error().Str("transaction_id", current.TransactionID).Int64("expected", current.AmountPaise).
				Int64("captured", result.Data.Amount).Msg("captured amount mismatch, booking held for review")

			current.Status = model.StatusBookingFailed
			current.FailureReason = ErrCapturedAmount.Error()
			mod[model.FieldStatus] = current.Status
			mod[model.FieldFailureReason] = current.FailureReason

			if err := s.write(ctx, current.TransactionID, mod); err != nil {
				return current, err
			}

			return current, nil
		}

		current.Status = model.StatusPaid
		mod[model.FieldStatus] = current.Status

		if err := s.write(ctx, current.TransactionID, mod); err != nil {
			return current, err
		}

		return s.confirm(ctx, current, result, scheduleRetry), nil
	case phonepe.OutcomeFailed:
		current.Status = model.StatusFailed
		current.FailureReason = result.Message
		mod[model.FieldStatus] = current.Status
		mod[model.FieldFailureReason] = current.FailureReason
	default:
		current.Status = model.StatusPending
		mod[model.FieldStatus] = current.Status

		if scheduleRetry {
			s.scheduleReconcile(ctx, current.TransactionID)
		}
	}

	log.Info().Str("transaction_id", current.TransactionID).Str("code", result.Code).Str("status", current.Status).Msg("payment settled")

	if err := s.write(ctx, current.TransactionID, mod); err != nil {
		return current, err
	}

	return current, nil
}

// confirm books a captured payment. A failed booking is left as booking_failed for the next status check.
func (s *serviceImpl) confirm(ctx context.Context, txn model.Transaction, gatewayResponse any, scheduleRetry bool) model.Transaction {
	res, err := s.booking.Confirm(ctx, bookingDto.ConfirmRequest{
		TransactionID:        txn.TransactionID,
		PhonePeTransactionID: txn.PhonePeTransactionID,
		AmountPaise:          txn.AmountPaise,
		PaymentInstrument:    txn.PaymentInstrument,
		GatewayResponse:      gatewayResponse,
	})
	if failure.GetCode(err) == http.StatusConflict {
		log.Info().Str("transaction_id", txn.TransactionID).Msg("booking confirmation running elsewhere")

		return txn
	}

	if err != nil {
		log.Error().Err(err).Str("transaction_id", txn.TransactionID).Msg("payment captured but booking failed")

		txn.Status = model.StatusBookingFailed
		txn.FailureReason = err.Error()

		s.update(ctx, txn.TransactionID, map[string]any{
			model.FieldStatus:        txn.Status,
			model.FieldFailureReason: txn.FailureReason,
		})

		if scheduleRetry {
			s.scheduleReconcile(ctx, txn.TransactionID)
		}

		return txn
	}

	txn.Status = model.StatusBooked
	txn.BookingID = res.BookingID
	txn.BookingRef = res.BookingRef
	txn.FailureReason = ""

	s.update(ctx, txn.TransactionID, map[string]any{
		model.FieldStatus:        txn.Status,
		model.FieldBookingID:     txn.BookingID,
		model.FieldBookingRef:    txn.BookingRef,
		model.FieldFailureReason: "",
	})

	return txn
}

func (s *serviceImpl) scheduleReconcile(ctx context.Context, transactionID string) {
	delay := time.Duration(positive(s.cfg.Booking.ReconcileDelaySeconds, defaultRetryWait)) * time.Second

	if err := s.scheduler.ScheduleReconcile(ctx, transactionID, 1, delay); err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to schedule payment reconciliation")
	}
}

func (s *serviceImpl) find(ctx context.Context, transactionID string) (model.Transaction, bool, error) {
	txn, err := s.repo.Get(ctx, shared.FilterByID(transactionID, model.FieldTransactionID, model.TableName))
	if errors.Is(err, gRepo.ErrNotFound) {
		return txn, false, nil
	}

	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to get payment transaction")

		return txn, false, fmt.Errorf("failed to get payment transaction: %w", err)
	}

	return txn, true, nil
}

// write leaves booked transactions untouched.
func (s *serviceImpl) write(ctx context.Context, transactionID string, mod map[string]any) error {
	mod[constant.FieldModifiedAt] = timezone.Now()
	mod[constant.FieldModifiedBy] = systemUser

	filter := gDto.And(
		gDto.Eq(model.TableName, model.FieldTransactionID, transactionID),
		gDto.NotEq(model.TableName, model.FieldStatus, model.StatusBooked),
	)

	if _, err := s.repo.Update(ctx, mod, filter); err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to update payment transaction")

		return fmt.Errorf("failed to update payment transaction: %w", err)
	}

	shared.InvalidateCaches(ctx, s.cache, cacheGetAllPayment)

	return nil
}

// update is write for paths that have already decided the outcome and only log a failed ledger write.
func (s *serviceImpl) update(ctx context.Context, transactionID string, mod map[string]any) {
	if err := s.write(ctx, transactionID, mod); err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("ledger update skipped")
	}
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}

	return value
}

func gatewayFailure(err error) error {
	switch {
	case errors.Is(err, httpclient.ErrTimeout):
		return failure.GatewayTimeout("payment gateway timed out")
	case errors.Is(err, httpclient.ErrUnavailable):
		return failure.ServiceUnavailable("payment gateway unavailable")
	case errors.Is(err, phonepe.ErrInvalidPayload):
		return failure.BadRequest(err)
	case errors.Is(err, phonepe.ErrGateway):
		return failure.BadGateway("payment gateway rejected the request")
	default:
		return failure.InternalError(err)
	}
}
