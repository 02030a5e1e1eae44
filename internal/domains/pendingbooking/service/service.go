package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"nibog/config"
	"nibog/infras/backend"
	"nibog/infras/httpclient"
	"nibog/infras/otel"
	"nibog/infras/scheduler"
	"nibog/internal/domains/pendingbooking/model"
	"nibog/internal/domains/pendingbooking/model/dto"
	"nibog/shared"
	"nibog/shared/cache"
	"nibog/shared/constant"
	"nibog/shared/failure"
	"nibog/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetPendingBooking = "pending_booking:get"
)

type PendingBooking interface {
	Create(ctx context.Context, req dto.CreatePendingBookingRequest) (dto.CreatePendingBookingResponse, error)
	Get(ctx context.Context, transactionID string) (dto.PendingBookingResponse, error)
	// Load returns the stored booking. Expired records are only returned when allowExpired is set.
	Load(ctx context.Context, transactionID string, allowExpired bool) (model.PendingBooking, error)
	Delete(ctx context.Context, transactionID string) error
	Expire(ctx context.Context, transactionID string) error
}

type serviceImpl struct {
	backend   backend.Client
	cache     cache.RedisCache
	scheduler scheduler.Scheduler
	cfg       *config.Config
	otel      otel.Otel
}

func New(backend backend.Client, cache cache.RedisCache, scheduler scheduler.Scheduler, cfg *config.Config, otel otel.Otel) PendingBooking {
	return &serviceImpl{
		backend:   backend,
		cache:     cache,
		scheduler: scheduler,
		cfg:       cfg,
		otel:      otel,
	}
}

func (s *serviceImpl) ttl() time.Duration {
	if s.cfg.Booking.PendingTTLMinutes <= 0 {
		return model.DefaultTTL
	}

	return time.Duration(s.cfg.Booking.PendingTTLMinutes) * time.Minute
}

// grace is how long an expired record is kept for a late gateway callback.
func (s *serviceImpl) grace() time.Duration {
	return time.Duration(s.cfg.Booking.ExpiryGraceMinutes) * time.Minute
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreatePendingBookingRequest) (res dto.CreatePendingBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CreatePendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking := req.ToModel(timezone.Now(), s.ttl())
	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, booking.TransactionID)

	record, err := booking.ToRecord()
	if err != nil {
		return res, fmt.Errorf("failed to build pending booking record: %w", err)
	}

	if err = s.backend.CreatePendingBooking(ctx, record); err != nil {
		log.Error().Err(err).Str("transaction_id", booking.TransactionID).Msg("failed to create pending booking")

		return res, upstreamFailure(err)
	}

	s.cacheBooking(ctx, booking)

	if err := s.scheduler.ScheduleExpiry(ctx, booking.TransactionID, booking.ExpiresAt.Add(s.grace())); err != nil {
		log.Error().Err(err).Str("transaction_id", booking.TransactionID).Msg("failed to schedule pending booking expiry")
	}

	log.Info().Str("transaction_id", booking.TransactionID).Time("expires_at", booking.ExpiresAt).Msg("pending booking created")

	res.TransactionID = booking.TransactionID
	res.ExpiresAt = timezone.Format(booking.ExpiresAt, constant.DateFormat)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, transactionID string) (res dto.PendingBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetPendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.Load(ctx, transactionID, false)
	if err != nil {
		return res, err
	}

	if booking.Partial {
		log.Warn().Str("transaction_id", transactionID).Msg("pending booking returned with partial data")
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) Load(ctx context.Context, transactionID string, allowExpired bool) (booking model.PendingBooking, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".LoadPendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	if transactionID == "" {
		return booking, failure.MissingTransactionID
	}

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	cacheKey := shared.BuildCacheKey(cacheGetPendingBooking, transactionID)

	if err := s.cache.Get(ctx, cacheKey, &booking); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for pending booking")
	} else {
		booking, err = s.fetch(ctx, transactionID)
		if err != nil {
			return booking, err
		}
	}

	now := timezone.Now()

	if booking.IsExpired(now) && !allowExpired {
		log.Warn().Str("transaction_id", transactionID).Time("expires_at", booking.ExpiresAt).Msg("pending booking expired")

		// inside the grace window the Expire task removes it
		if booking.IsExpired(now.Add(-s.grace())) {
			s.removeAsync(ctx, transactionID)
		}

		return booking, failure.Gone("pending booking has expired") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) removeAsync(ctx context.Context, transactionID string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.remove(c, transactionID); err != nil && !errors.Is(err, backend.ErrNotFound) {
			log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to delete expired pending booking")
		}
	}()
}

func (s *serviceImpl) fetch(ctx context.Context, transactionID string) (booking model.PendingBooking, err error) {
	record, err := s.backend.GetPendingBooking(ctx, transactionID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to get pending booking")

		return booking, upstreamFailure(err)
	}

	booking, err = model.FromRecord(record)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to decode pending booking")

		return booking, failure.InternalError(fmt.Errorf("invalid pending booking: %w", err)) // nolint:wrapcheck
	}

	if !booking.Partial {
		s.cacheBooking(ctx, booking)
	}

	return booking, nil
}

func (s *serviceImpl) Delete(ctx context.Context, transactionID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeletePendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	if transactionID == "" {
		return failure.MissingTransactionID
	}

	if err = s.remove(ctx, transactionID); err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to delete pending booking")

		return upstreamFailure(err)
	}

	return nil
}

func (s *serviceImpl) Expire(ctx context.Context, transactionID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ExpirePendingBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	record, err := s.backend.GetPendingBooking(ctx, transactionID)
	if errors.Is(err, backend.ErrNotFound) {
		log.Debug().Str("transaction_id", transactionID).Msg("pending booking already gone")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to get pending booking: %w", err)
	}

	booking, err := model.FromRecord(record)
	if err != nil {
		log.Warn().Err(err).Str("transaction_id", transactionID).Msg("pending booking has no readable expiry, removing")
	} else if !booking.IsExpired(timezone.Now()) {
		log.Info().Str("transaction_id", transactionID).Time("expires_at", booking.ExpiresAt).Msg("pending booking not expired yet")

		return nil
	}

	if err = s.remove(ctx, transactionID); err != nil && !errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("failed to delete expired pending booking: %w", err)
	}

	log.Info().Str("transaction_id", transactionID).Msg("expired pending booking removed")

	return nil
}

func (s *serviceImpl) remove(ctx context.Context, transactionID string) error {
	if err := s.cache.Delete(ctx, shared.BuildCacheKey(cacheGetPendingBooking, transactionID)); err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to evict pending booking cache")
	}

	return s.backend.DeletePendingBooking(ctx, transactionID) //nolint:wrapcheck
}

func (s *serviceImpl) cacheBooking(ctx context.Context, booking model.PendingBooking) {
	seconds := int(time.Until(booking.ExpiresAt).Seconds())
	if seconds <= 0 {
		return
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, shared.BuildCacheKey(cacheGetPendingBooking, booking.TransactionID), booking, seconds); err != nil {
			log.Error().Err(err).Msg("failed to save pending booking to cache")
		}
	}()
}

// upstreamFailure maps backend and transport errors onto HTTP failures.
func upstreamFailure(err error) error {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return failure.NotFound("pending booking not found")
	case errors.Is(err, httpclient.ErrTimeout):
		return failure.GatewayTimeout("booking service timed out")
	case errors.Is(err, httpclient.ErrUnavailable):
		return failure.ServiceUnavailable("booking service unavailable")
	case errors.Is(err, backend.ErrMalformedResponse):
		return failure.InternalError(errors.New("booking service returned an unreadable response"))
	default:
		return failure.InternalError(err)
	}
}
