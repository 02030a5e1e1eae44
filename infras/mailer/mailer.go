package mailer

//go:generate go run go.uber.org/mock/mockgen -source=./mailer.go -destination=./mocks/mailer_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"nibog/config"
	"nibog/infras/otel"
	"nibog/shared/constant"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	gomail "github.com/wneessen/go-mail"
)

const (
	otelScopeName = "mailer"
	dialTimeout   = 15 * time.Second
)

var (
	ErrDisabled       = errors.New("email notifications are disabled")
	ErrInvalidAddress = errors.New("invalid email address")
)

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, message Message) error
}

type mailerImpl struct {
	cfg    *config.Config
	client *gomail.Client
	otel   otel.Otel
}

func New(cfg *config.Config, ot otel.Otel) (Mailer, error) {
	impl := &mailerImpl{cfg: cfg, otel: ot}

	if !cfg.Email.Enabled {
		return impl, nil
	}

	client, err := gomail.NewClient(cfg.Email.Host,
		gomail.WithPort(cfg.Email.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Email.Username),
		gomail.WithPassword(cfg.Email.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(dialTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	impl.client = client

	return impl, nil
}

func (m *mailerImpl) Send(ctx context.Context, message Message) (err error) {
	ctx, scope := m.otel.NewScope(ctx, constant.OtelExternalScopeName, otelScopeName+".Send")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !m.cfg.Email.Enabled || m.client == nil {
		return ErrDisabled
	}

	msg, err := m.build(message)
	if err != nil {
		return err
	}

	tries := m.cfg.Email.MaxRetry
	if tries <= 0 {
		tries = 1
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, m.client.DialAndSendWithContext(ctx, msg) //nolint:wrapcheck
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("to", message.To).Dur("wait", wait).Msg("retrying email delivery")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (m *mailerImpl) build(message Message) (*gomail.Msg, error) {
	if _, err := mail.ParseAddress(message.To); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, message.To)
	}

	msg := gomail.NewMsg()

	if err := msg.FromFormat(m.cfg.Email.FromName, m.cfg.Email.From); err != nil {
		return nil, fmt.Errorf("failed to set sender: %w", err)
	}

	if err := msg.AddToFormat(message.ToName, message.To); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	msg.Subject(message.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, message.HTML)

	if strings.TrimSpace(message.Text) != "" {
		msg.AddAlternativeString(gomail.TypeTextPlain, message.Text)
	}

	return msg, nil
}
