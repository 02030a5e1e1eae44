package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"nibog/config"
	"nibog/infras/backend"
	"nibog/infras/httpclient"
	"nibog/infras/otel"
	"nibog/internal/domains/booking/model"
	"nibog/internal/domains/booking/model/dto"
	notificationModel "nibog/internal/domains/notification/model"
	notificationService "nibog/internal/domains/notification/service"
	pendingModel "nibog/internal/domains/pendingbooking/model"
	pendingService "nibog/internal/domains/pendingbooking/service"
	"nibog/shared"
	"nibog/shared/cache"
	"nibog/shared/constant"
	"nibog/shared/failure"
	"nibog/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheConfirmation = "booking:confirmed"
	cacheConfirmLock  = "booking:confirm_lock"

	defaultLockSeconds         = 60
	defaultConfirmationSeconds = 24 * 60 * 60
)

var ErrIncompleteBooking = errors.New("pending booking data is incomplete")

type Booking interface {
	// Confirm turns a paid pending booking into a real booking. Repeated calls return the first result.
	Confirm(ctx context.Context, req dto.ConfirmRequest) (dto.ConfirmResponse, error)
}

type serviceImpl struct {
	backend      backend.Client
	pending      pendingService.PendingBooking
	notification notificationService.Notification
	cache        cache.RedisCache
	cfg          *config.Config
	otel         otel.Otel
}

func New(backend backend.Client, pending pendingService.PendingBooking, notification notificationService.Notification, cache cache.RedisCache, cfg *config.Config, otel otel.Otel) Booking {
	return &serviceImpl{
		backend:      backend,
		pending:      pending,
		notification: notification,
		cache:        cache,
		cfg:          cfg,
		otel:         otel,
	}
}

func (s *serviceImpl) Confirm(ctx context.Context, req dto.ConfirmRequest) (res dto.ConfirmResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.TransactionID == "" {
		return res, failure.MissingTransactionID
	}

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, req.TransactionID)

	lockKey := shared.BuildCacheKey(cacheConfirmLock, req.TransactionID)

	acquired, err := s.cache.Lock(ctx, lockKey, positive(s.cfg.Booking.ConfirmLockTTLSeconds, defaultLockSeconds))
	if err != nil {
		return res, fmt.Errorf("failed to lock booking confirmation: %w", err)
	}

	if !acquired {
		log.Warn().Str("transaction_id", req.TransactionID).Msg("booking confirmation already in progress")

		return res, failure.Conflict("booking confirmation already in progress") // nolint:wrapcheck
	}

	defer func() {
		if err := s.cache.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to release confirmation lock")
		}
	}()

	confirmationKey := shared.BuildCacheKey(cacheConfirmation, req.TransactionID)

	var confirmation model.Confirmation
	if err := s.cache.Get(ctx, confirmationKey, &confirmation); err == nil && confirmation.BookingID != "" {
		log.Info().Str("transaction_id", req.TransactionID).Str("booking_ref", confirmation.BookingRef).Msg("booking already confirmed")

		res.FromModel(confirmation)
		res.AlreadyConfirmed = true

		return res, nil
	}

	// money has been captured, so an expired record is still honoured
	pending, err := s.pending.Load(ctx, req.TransactionID, true)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to load pending booking for confirmation")

		return res, err
	}

	if !complete(pending.BookingData) {
		log.Error().Str("transaction_id", req.TransactionID).Str("raw", pending.BookingDataRaw).Msg("pending booking cannot be confirmed")

		return res, failure.InternalError(ErrIncompleteBooking) // nolint:wrapcheck
	}

	now := timezone.Now()
	payload := buildPayload(pending, req, now)

	created, err := s.backend.CreateBooking(ctx, payload)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to create booking")

		return res, upstreamFailure(err)
	}

	if created.BookingRef != "" {
		payload.Booking.BookingRef = created.BookingRef
	}

	confirmation = model.Confirmation{
		TransactionID:        req.TransactionID,
		BookingID:            created.Identifier(),
		BookingRef:           payload.Booking.BookingRef,
		PhonePeTransactionID: req.PhonePeTransactionID,
		Amount:               payload.Booking.TotalAmount,
		ConfirmedAt:          now,
	}

	err = s.backend.RecordPayment(ctx, backend.PaymentRecord{
		BookingID:            backend.FlexString(confirmation.BookingID),
		TransactionID:        req.TransactionID,
		PhonePeTransactionID: req.PhonePeTransactionID,
		Amount:               confirmation.Amount,
		PaymentMethod:        model.PaymentMethodPhonePe,
		PaymentStatus:        model.PaymentStatusSuccess,
		PaymentDate:          now.UTC().Format(time.RFC3339),
		GatewayResponse:      req.GatewayResponse,
	})
	if err != nil {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Str("booking_id", confirmation.BookingID).
			Msg("failed to record payment, booking kept")
	} else {
		confirmation.PaymentRecorded = true
	}

	ttl := positive(s.cfg.Booking.ConfirmationTTLHours*60*60, defaultConfirmationSeconds)
	if err := s.cache.Save(ctx, confirmationKey, confirmation, ttl); err != nil {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to cache booking confirmation")
	}

	if err := s.notification.Publish(ctx, buildEvent(pending, confirmation)); err != nil {
		log.Error().Err(err).Str("booking_ref", confirmation.BookingRef).Msg("failed to publish booking confirmation")
	}

	if err := s.pending.Delete(ctx, req.TransactionID); err != nil && failure.GetCode(err) != http.StatusNotFound {
		log.Error().Err(err).Str("transaction_id", req.TransactionID).Msg("failed to delete consumed pending booking")
	}

	log.Info().Str("transaction_id", req.TransactionID).Str("booking_id", confirmation.BookingID).
		Str("booking_ref", confirmation.BookingRef).Msg("booking confirmed")

	res.FromModel(confirmation)

	return res, nil
}

func complete(data pendingModel.BookingData) bool {
	return data.Parent.Name != "" && data.Child.FullName != "" && data.EventID != "" && len(data.Games) > 0
}

func buildPayload(pending pendingModel.PendingBooking, req dto.ConfirmRequest, now time.Time) backend.BookingPayload {
	data := pending.BookingData

	amount := data.TotalAmount
	if req.AmountPaise > 0 {
		amount = float64(req.AmountPaise) / constant.PaiseInRupee
	}

	refTime, ok := pendingModel.TransactionTime(req.TransactionID)
	if !ok {
		refTime = now
	}

	userID := data.UserID
	if userID == "" {
		userID = backend.FlexString(pending.UserID)
	}

	games := make([]backend.BookingGame, len(data.Games))
	for i, game := range data.Games {
		games[i] = backend.BookingGame{
			GameID:    game.GameID,
			SlotID:    game.SlotID,
			GamePrice: game.Price,
		}
	}

	var addons []backend.BookingAddon
	for _, addon := range data.Addons {
		addons = append(addons, backend.BookingAddon{
			AddonID:   addon.AddonID,
			VariantID: addon.VariantID,
			Quantity:  addon.Quantity,
		})
	}

	return backend.BookingPayload{
		Parent: backend.BookingParent{
			UserID:          userID,
			ParentName:      data.Parent.Name,
			Email:           data.Parent.Email,
			AdditionalPhone: data.Parent.Phone,
		},
		Child: backend.BookingChild{
			FullName:    data.Child.FullName,
			DateOfBirth: data.Child.DateOfBirth,
			SchoolName:  data.Child.SchoolName,
			Gender:      data.Child.Gender,
		},
		Booking: backend.BookingHeader{
			UserID:                userID,
			EventID:               data.EventID,
			BookingRef:            model.GenerateBookingRef(refTime),
			TotalAmount:           amount,
			PaymentMethod:         model.PaymentMethodPhonePe,
			PaymentStatus:         model.PaymentStatusPaid,
			Status:                model.StatusConfirmed,
			TermsAccepted:         data.TermsAccepted,
			TransactionID:         req.TransactionID,
			MerchantTransactionID: req.PhonePeTransactionID,
			PromoCode:             data.PromoCode,
			DiscountAmount:        data.DiscountAmount,
		},
		BookingGames:  games,
		BookingAddons: addons,
	}
}

func buildEvent(pending pendingModel.PendingBooking, confirmation model.Confirmation) notificationModel.BookingConfirmedEvent {
	data := pending.BookingData

	games := make([]notificationModel.GameLine, len(data.Games))
	for i, game := range data.Games {
		games[i] = notificationModel.GameLine{Name: game.Name, Slot: game.SlotID.String(), Price: game.Price}
	}

	var addons []notificationModel.AddonLine
	for _, addon := range data.Addons {
		addons = append(addons, notificationModel.AddonLine{Name: addon.Name, Quantity: addon.Quantity, Price: addon.Price})
	}

	return notificationModel.BookingConfirmedEvent{
		TransactionID:        confirmation.TransactionID,
		BookingID:            confirmation.BookingID,
		BookingRef:           confirmation.BookingRef,
		ParentName:           data.Parent.Name,
		ParentEmail:          data.Parent.Email,
		ParentPhone:          data.Parent.Phone,
		ChildName:            data.Child.FullName,
		EventTitle:           data.EventTitle,
		EventDate:            data.EventDate,
		VenueName:            data.VenueName,
		CityName:             data.CityName,
		Games:                games,
		Addons:               addons,
		TotalAmount:          confirmation.Amount,
		PaymentMethod:        model.PaymentMethodPhonePe,
		PhonePeTransactionID: confirmation.PhonePeTransactionID,
		ConfirmedAt:          timezone.Format(confirmation.ConfirmedAt, constant.DateFormat),
	}
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}

	return value
}

func upstreamFailure(err error) error {
	switch {
	case errors.Is(err, httpclient.ErrTimeout):
		return failure.GatewayTimeout("booking service timed out")
	case errors.Is(err, httpclient.ErrUnavailable):
		return failure.ServiceUnavailable("booking service unavailable")
	case errors.Is(err, backend.ErrRejected), errors.Is(err, backend.ErrMalformedResponse):
		return failure.BadGateway("booking service rejected the booking")
	default:
		return failure.InternalError(err)
	}
}
