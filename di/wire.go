//go:build wireinject
// +build wireinject

package di

import (
	"nibog/config"
	"nibog/infras/backend"
	"nibog/infras/jwt"
	"nibog/infras/kafka"
	"nibog/infras/mailer"
	"nibog/infras/otel"
	"nibog/infras/phonepe"
	"nibog/infras/postgres"
	"nibog/infras/redis"
	"nibog/infras/s3"
	"nibog/infras/scheduler"
	"nibog/infras/whatsapp"
	"nibog/permissions"
	"nibog/shared/cache"
	"nibog/transport/event"
	"nibog/transport/http"
	"nibog/transport/http/middleware"
	"nibog/transport/http/router"
	"nibog/transport/task"

	authService "nibog/internal/domains/auth/service"
	bookingService "nibog/internal/domains/booking/service"
	notificationRepository "nibog/internal/domains/notification/repository"
	notificationService "nibog/internal/domains/notification/service"
	notificationTemplate "nibog/internal/domains/notification/template"
	paymentRepository "nibog/internal/domains/payment/repository"
	paymentService "nibog/internal/domains/payment/service"
	pendingService "nibog/internal/domains/pendingbooking/service"

	adminHandler "nibog/internal/handlers/admin"
	authHandler "nibog/internal/handlers/auth"
	paymentHandler "nibog/internal/handlers/payment"
	pendingHandler "nibog/internal/handlers/pendingbooking"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	backend.New,
	phonepe.New,
	whatsapp.New,
	mailer.New,
	s3.New,
	kafka.New,
	scheduler.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var pendingBookingDomain = wire.NewSet(
	pendingService.New,
)

var paymentDomain = wire.NewSet(
	paymentRepository.New,
	paymentService.New,
)

var bookingDomain = wire.NewSet(
	bookingService.New,
)

var notificationDomain = wire.NewSet(
	notificationRepository.New,
	notificationTemplate.Load,
	notificationService.New,
)

var authDomain = wire.NewSet(
	authService.New,
)

var domains = wire.NewSet(
	pendingBookingDomain,
	paymentDomain,
	bookingDomain,
	notificationDomain,
	authDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	pendingHandler.New,
	paymentHandler.New,
	adminHandler.New,
	router.New,
)

func InitializeService() (*http.HTTP, error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}, nil
}

func InitializeWorker() (*Worker, error) {
	wire.Build(
		configurations,
		infrastructures,
		sharedHelpers,
		domains,
		task.New,
		event.New,
		wire.Struct(new(Worker), "*"),
	)

	return &Worker{}, nil
}
