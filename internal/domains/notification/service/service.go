package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"nibog/config"
	"nibog/infras/kafka"
	"nibog/infras/mailer"
	"nibog/infras/otel"
	"nibog/infras/s3"
	"nibog/infras/whatsapp"
	"nibog/internal/domains/notification/model"
	"nibog/internal/domains/notification/model/dto"
	"nibog/internal/domains/notification/repository"
	"nibog/internal/domains/notification/template"
	"nibog/shared/constant"
	gDto "nibog/shared/dto"
	gModel "nibog/shared/model"
	"nibog/shared/timezone"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	archiveDirectory = "tickets"
	textTemplateName = "text"
	systemUser       = "system"

	defaultWhatsAppTries = 2
	whatsappInitialDelay = 500 * time.Millisecond
)

var ErrAllChannelsFailed = errors.New("every notification channel failed")

type Notification interface {
	// Publish hands the event to the notification stream, or dispatches it directly when no stream is configured.
	Publish(ctx context.Context, event model.BookingConfirmedEvent) error
	// Dispatch delivers the event once per channel. Channels already marked sent for the transaction are skipped.
	Dispatch(ctx context.Context, event model.BookingConfirmedEvent) (dto.DispatchResponse, error)
	// Resend delivers the event on every channel regardless of earlier deliveries.
	Resend(ctx context.Context, event model.BookingConfirmedEvent) (dto.DispatchResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetNotificationLogsResponse, error)
}

type serviceImpl struct {
	repo     repository.NotificationLog
	whatsapp whatsapp.Sender
	mailer   mailer.Mailer
	s3       s3.S3
	kafka    kafka.Client
	catalog  *template.Catalog
	cfg      *config.Config
	otel     otel.Otel
}

func New(
	repo repository.NotificationLog,
	whatsapp whatsapp.Sender,
	mailer mailer.Mailer,
	s3 s3.S3,
	kafka kafka.Client,
	catalog *template.Catalog,
	cfg *config.Config,
	otel otel.Otel,
) Notification {
	return &serviceImpl{
		repo:     repo,
		whatsapp: whatsapp,
		mailer:   mailer,
		s3:       s3,
		kafka:    kafka,
		catalog:  catalog,
		cfg:      cfg,
		otel:     otel,
	}
}

func (s *serviceImpl) Publish(ctx context.Context, event model.BookingConfirmedEvent) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Publish")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, event.TransactionID)

	if s.kafka.Enabled() {
		err = s.kafka.SendMessages(ctx, s.cfg.Kafka.NotificationTopic, kafka.Message{Key: event.BookingRef, Value: event})
		if err == nil {
			return nil
		}

		log.Error().Err(err).Str("booking_ref", event.BookingRef).Msg("failed to publish booking confirmation, dispatching inline")
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if _, err := s.Dispatch(c, event); err != nil {
			log.Error().Err(err).Str("booking_ref", event.BookingRef).Msg("inline notification dispatch failed")
		}
	}()

	return nil
}

func (s *serviceImpl) Dispatch(ctx context.Context, event model.BookingConfirmedEvent) (res dto.DispatchResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Dispatch")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.dispatch(ctx, event, false)
}

func (s *serviceImpl) Resend(ctx context.Context, event model.BookingConfirmedEvent) (res dto.DispatchResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Resend")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.dispatch(ctx, event, true)
}

func (s *serviceImpl) dispatch(ctx context.Context, event model.BookingConfirmedEvent, force bool) (dto.DispatchResponse, error) {
	res := dto.DispatchResponse{TransactionID: event.TransactionID, BookingRef: event.BookingRef}

	sent := map[string]bool{}
	if !force {
		sent = s.sentChannels(ctx, event.TransactionID)
	}

	archive := s.archive(ctx, event, sent[model.ChannelArchive])

	results := make([]dto.ChannelResult, 2)

	var group errgroup.Group

	group.Go(func() error {
		results[0] = s.sendWhatsApp(ctx, event, sent[model.ChannelWhatsApp])

		return nil
	})
	group.Go(func() error {
		results[1] = s.sendEmail(ctx, event, archive.DocumentURL, sent[model.ChannelEmail])

		return nil
	})

	_ = group.Wait()

	res.Channels = append([]dto.ChannelResult{archive}, results...)

	attempted, failed := 0, 0

	for _, result := range res.Channels {
		s.record(ctx, event, result)

		if result.Channel == model.ChannelArchive || result.Status == model.StatusSkipped {
			continue
		}

		attempted++

		if result.Status == model.StatusFailed {
			failed++
		}
	}

	log.Info().Str("booking_ref", event.BookingRef).Int("attempted", attempted).Int("failed", failed).Msg("booking confirmation dispatched")

	if attempted > 0 && failed == attempted {
		return res, ErrAllChannelsFailed
	}

	return res, nil
}

// sentChannels returns the channels already delivered for a transaction. Lookup failures resend everything.
func (s *serviceImpl) sentChannels(ctx context.Context, transactionID string) map[string]bool {
	sent := map[string]bool{}

	logs, err := s.repo.GetAll(ctx, gDto.QueryParams{}, gDto.And(
		gDto.Eq(model.TableName, model.FieldTransactionID, transactionID),
		gDto.Eq(model.TableName, model.FieldStatus, model.StatusSent),
	), model.FieldChannel)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", transactionID).Msg("failed to read notification history")

		return sent
	}

	for _, entry := range logs {
		sent[entry.Channel] = true
	}

	return sent
}

func (s *serviceImpl) archive(ctx context.Context, event model.BookingConfirmedEvent, done bool) dto.ChannelResult {
	result := dto.ChannelResult{Channel: model.ChannelArchive, Status: model.StatusSkipped}

	if done || !s.s3.Enabled() {
		return result
	}

	html, err := s.catalog.EmailHTML(event)
	if err != nil {
		return failed(result, err)
	}

	url, err := s.s3.UploadBytes(ctx, archiveDirectory, event.BookingRef+".html", constant.ContentTypeHTML, []byte(html))
	if err != nil {
		log.Error().Err(err).Str("booking_ref", event.BookingRef).Msg("failed to archive ticket")

		return failed(result, err)
	}

	result.Status = model.StatusSent
	result.DocumentURL = url

	return result
}

func (s *serviceImpl) sendWhatsApp(ctx context.Context, event model.BookingConfirmedEvent, done bool) dto.ChannelResult {
	result := dto.ChannelResult{Channel: model.ChannelWhatsApp, Status: model.StatusSkipped, Recipient: event.ParentPhone}

	if done {
		return result
	}

	if event.ParentPhone == "" {
		return failed(result, fmt.Errorf("%w: no phone number", whatsapp.ErrInvalidInput))
	}

	name := s.cfg.WhatsApp.BookingTemplate
	result.Template = name

	sendResult, err := s.sendTemplate(ctx, name, event)
	if err != nil && fallbackToText(err) {
		log.Warn().Err(err).Str("booking_ref", event.BookingRef).Msg("whatsapp template failed, falling back to text")

		result.Template = textTemplateName
		sendResult, err = s.sendText(ctx, event)
	}

	if errors.Is(err, whatsapp.ErrDisabled) {
		return result
	}

	if err != nil {
		log.Error().Err(err).Str("booking_ref", event.BookingRef).Msg("failed to send whatsapp confirmation")

		return failed(result, err)
	}

	result.Status = model.StatusSent
	result.Recipient = sendResult.Phone
	result.MessageID = sendResult.MessageID

	return result
}

func (s *serviceImpl) sendTemplate(ctx context.Context, name string, event model.BookingConfirmedEvent) (whatsapp.SendResult, error) {
	tmpl, err := s.catalog.WhatsApp(name)
	if err != nil {
		return whatsapp.SendResult{}, fmt.Errorf("%w: %w", whatsapp.ErrInvalidInput, err)
	}

	params, err := tmpl.BodyParams(event)
	if err != nil {
		return whatsapp.SendResult{}, fmt.Errorf("%w: %w", whatsapp.ErrInvalidInput, err)
	}

	language := s.cfg.WhatsApp.TemplateLanguage
	if language == "" {
		language = tmpl.Language
	}

	message := whatsapp.TemplateMessage{
		Phone:      event.ParentPhone,
		Template:   tmpl.Name,
		Language:   language,
		BodyParams: params,
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = whatsappInitialDelay

	return backoff.Retry(ctx, func() (whatsapp.SendResult, error) {
		result, err := s.whatsapp.SendTemplate(ctx, message)
		if err != nil && !transient(err) {
			return result, backoff.Permanent(err)
		}

		return result, err //nolint:wrapcheck
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.whatsappAttempts()),
	)
}

// whatsappAttempts bounds template sends. This is the only retry around a WhatsApp POST.
func (s *serviceImpl) whatsappAttempts() uint {
	if s.cfg.WhatsApp.MaxRetry > 0 {
		return uint(s.cfg.WhatsApp.MaxRetry)
	}

	return defaultWhatsAppTries
}

func (s *serviceImpl) sendText(ctx context.Context, event model.BookingConfirmedEvent) (whatsapp.SendResult, error) {
	text, err := s.catalog.Text(event)
	if err != nil {
		return whatsapp.SendResult{}, fmt.Errorf("failed to render text fallback: %w", err)
	}

	return s.whatsapp.SendText(ctx, event.ParentPhone, text) //nolint:wrapcheck
}

func (s *serviceImpl) sendEmail(ctx context.Context, event model.BookingConfirmedEvent, documentURL string, done bool) dto.ChannelResult {
	result := dto.ChannelResult{Channel: model.ChannelEmail, Status: model.StatusSkipped, Recipient: event.ParentEmail, DocumentURL: documentURL}

	if done {
		return result
	}

	subject, err := s.catalog.EmailSubject(event)
	if err != nil {
		return failed(result, err)
	}

	html, err := s.catalog.EmailHTML(event)
	if err != nil {
		return failed(result, err)
	}

	text, err := s.catalog.Text(event)
	if err != nil {
		return failed(result, err)
	}

	err = s.mailer.Send(ctx, mailer.Message{
		To:      event.ParentEmail,
		ToName:  event.ParentName,
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if errors.Is(err, mailer.ErrDisabled) {
		return result
	}

	if err != nil {
		log.Error().Err(err).Str("booking_ref", event.BookingRef).Msg("failed to send confirmation email")

		return failed(result, err)
	}

	result.Status = model.StatusSent

	return result
}

func (s *serviceImpl) record(ctx context.Context, event model.BookingConfirmedEvent, result dto.ChannelResult) {
	err := s.repo.Insert(ctx, model.NotificationLog{
		ID:                uuid.NewString(),
		TransactionID:     event.TransactionID,
		BookingRef:        event.BookingRef,
		Channel:           result.Channel,
		Recipient:         result.Recipient,
		Template:          result.Template,
		Status:            result.Status,
		ProviderMessageID: result.MessageID,
		Error:             result.Error,
		DocumentURL:       result.DocumentURL,
		Metadata:          gModel.NewMetadata(systemUser, timezone.Now()),
	})
	if err != nil {
		log.Error().Err(err).Str("channel", result.Channel).Str("booking_ref", event.BookingRef).Msg("failed to write notification log")
	}
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetNotificationLogsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAllNotificationLogs")
	defer scope.End()
	defer scope.TraceIfError(err)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count notification logs")

		return res, fmt.Errorf("failed to count notification logs: %w", err)
	}

	logs, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get notification logs")

		return res, fmt.Errorf("failed to get notification logs: %w", err)
	}

	res.FromModels(logs, total, req.Limit)

	return res, nil
}

func failed(result dto.ChannelResult, err error) dto.ChannelResult {
	result.Status = model.StatusFailed
	result.Error = err.Error()

	return result
}

// transient reports errors worth another attempt with the same template.
func transient(err error) bool {
	return !errors.Is(err, whatsapp.ErrRejected) &&
		!errors.Is(err, whatsapp.ErrInvalidInput) &&
		!errors.Is(err, whatsapp.ErrCircuitOpen) &&
		!errors.Is(err, whatsapp.ErrDisabled)
}

func fallbackToText(err error) bool {
	return errors.Is(err, whatsapp.ErrRejected) ||
		errors.Is(err, whatsapp.ErrInvalidInput) ||
		errors.Is(err, whatsapp.ErrCircuitOpen)
}
