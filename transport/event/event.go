package event

import (
	"context"
	"nibog/config"
	"nibog/infras/kafka"
	"nibog/infras/otel"
	"nibog/internal/domains/notification/model"
	notificationService "nibog/internal/domains/notification/service"
	"nibog/shared/constant"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Event consumes booking confirmations from the notification topic.
type Event struct {
	cfg          *config.Config
	kafka        kafka.Client
	notification notificationService.Notification
	otel         otel.Otel
}

func New(cfg *config.Config, kafka kafka.Client, notification notificationService.Notification, otel otel.Otel) *Event {
	return &Event{
		cfg:          cfg,
		kafka:        kafka,
		notification: notification,
		otel:         otel,
	}
}

// Consume blocks until ctx is done.
func (e *Event) Consume(ctx context.Context) {
	if !e.kafka.Enabled() {
		log.Warn().Msg("Kafka is not configured, booking confirmations are dispatched inline.")

		return
	}

	log.Info().Str("topic", e.cfg.Kafka.NotificationTopic).Str("group", e.cfg.Kafka.ConsumerGroup).Msg("Starting up event consumer.")

	e.kafka.Consume(ctx, e.cfg.Kafka.ConsumerGroup, e.cfg.Kafka.NotificationTopic, e.HandleBookingConfirmed)

	log.Info().Msg("Event consumer stopped.")
}

// HandleBookingConfirmed dispatches notifications for one event. Undecodable messages are dropped.
func (e *Event) HandleBookingConfirmed(ctx context.Context, message kafkaGo.Message) (err error) {
	ctx, scope := e.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".HandleBookingConfirmed")
	defer scope.End()
	defer scope.TraceIfError(err)

	event, err := kafka.DecodeKafkaMessage[model.BookingConfirmedEvent](message)
	if err != nil {
		log.Error().Err(err).Str("key", string(message.Key)).Int64("offset", message.Offset).Msg("dropping undecodable booking event")

		return nil
	}

	scope.SetAttributes(map[string]any{
		constant.OtelTransactionIDAttributeKey: event.TransactionID,
		"booking.ref":                          event.BookingRef,
	})

	res, err := e.notification.Dispatch(ctx, event)
	if err != nil {
		log.Error().Err(err).Str("booking_ref", event.BookingRef).Msg("failed to dispatch booking notifications")

		return err //nolint:wrapcheck
	}

	log.Info().Str("booking_ref", res.BookingRef).Int("channels", len(res.Channels)).Msg("booking notifications dispatched")

	return nil
}
