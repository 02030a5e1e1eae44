package whatsapp

//go:generate go run go.uber.org/mock/mockgen -source=./whatsapp.go -destination=./mocks/whatsapp_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"nibog/config"
	"nibog/infras/httpclient"
	"nibog/infras/otel"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	pathSendTemplate = "/api/wpbox/sendtemplatemessage"
	pathSendMessage  = "/api/wpbox/sendmessage"

	statusSuccess = "success"
	otelScopeName = "whatsapp"
)

var (
	ErrDisabled     = errors.New("whatsapp notifications are disabled")
	ErrRejected     = errors.New("whatsapp provider rejected the message")
	ErrCircuitOpen  = errors.New("whatsapp circuit is open")
	ErrInvalidInput = errors.New("invalid whatsapp message")
)

type Sender interface {
	SendTemplate(ctx context.Context, message TemplateMessage) (SendResult, error)
	SendText(ctx context.Context, phone, text string) (SendResult, error)
}

type TemplateMessage struct {
	Phone      string
	Template   string
	Language   string
	BodyParams []string
}

type SendResult struct {
	MessageID string
	Phone     string
}

type textParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type templateComponent struct {
	Type       string          `json:"type"`
	Parameters []textParameter `json:"parameters"`
}

type templateRequest struct {
	Token            string              `json:"token"`
	Phone            string              `json:"phone"`
	TemplateName     string              `json:"template_name"`
	TemplateLanguage string              `json:"template_language"`
	Components       []templateComponent `json:"components"`
}

type textRequest struct {
	Token   string `json:"token"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendResponse struct {
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

type Settings struct {
	Enabled          bool
	BaseURL          string
	Token            string
	TemplateLanguage string
	RatePerSecond    float64
	Burst            int
	BreakerFailures  uint32
	BreakerCooldown  time.Duration
}

type senderImpl struct {
	http     httpclient.Client
	settings Settings
	limiter  *rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker[SendResult]
	otel     otel.Otel
}

func New(cfg *config.Config, ot otel.Otel) Sender {
	client := httpclient.New(httpclient.Options{
		Name:    otelScopeName,
		Timeout: time.Duration(cfg.WhatsApp.TimeoutSeconds) * time.Second,
	}, ot)

	return NewWithClient(Settings{
		Enabled:          cfg.WhatsApp.Enabled,
		BaseURL:          cfg.WhatsApp.BaseURL,
		Token:            cfg.WhatsApp.Token,
		TemplateLanguage: cfg.WhatsApp.TemplateLanguage,
		RatePerSecond:    cfg.WhatsApp.RatePerSecond,
		Burst:            cfg.WhatsApp.Burst,
		BreakerFailures:  cfg.WhatsApp.BreakerFailures,
		BreakerCooldown:  time.Duration(cfg.WhatsApp.BreakerCooldownSeconds) * time.Second,
	}, client, ot)
}

func NewWithClient(settings Settings, client httpclient.Client, ot otel.Otel) Sender {
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	if settings.Burst <= 0 {
		settings.Burst = 1
	}

	limit := rate.Inf
	if settings.RatePerSecond > 0 {
		limit = rate.Limit(settings.RatePerSecond)
	}

	if settings.BreakerFailures == 0 {
		settings.BreakerFailures = 5
	}

	return &senderImpl{
		http:     client,
		settings: settings,
		limiter:  rate.NewLimiter(limit, settings.Burst),
		breakers: map[string]*gobreaker.CircuitBreaker[SendResult]{
			pathSendTemplate: newBreaker(otelScopeName+".template", settings),
			pathSendMessage:  newBreaker(otelScopeName+".text", settings),
		},
		otel: ot,
	}
}

// newBreaker guards one endpoint. Template and text sends trip independently.
func newBreaker(name string, settings Settings) *gobreaker.CircuitBreaker[SendResult] {
	failures := settings.BreakerFailures

	return gobreaker.NewCircuitBreaker[SendResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// a rejected message says nothing about provider health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected) || errors.Is(err, ErrInvalidInput)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

func (s *senderImpl) SendTemplate(ctx context.Context, message TemplateMessage) (result SendResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".SendTemplate")
	defer scope.End()
	defer scope.TraceIfError(err)

	if message.Template == "" {
		return result, fmt.Errorf("%w: template name is required", ErrInvalidInput)
	}

	phone, err := NormalizePhone(message.Phone)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	language := message.Language
	if language == "" {
		language = s.settings.TemplateLanguage
	}

	params := make([]textParameter, 0, len(message.BodyParams))
	for _, value := range message.BodyParams {
		params = append(params, textParameter{Type: "text", Text: value})
	}

	scope.SetAttributes(map[string]any{
		"whatsapp.template": message.Template,
		"whatsapp.params":   len(params),
	})

	return s.send(ctx, pathSendTemplate, phone, templateRequest{
		Token:            s.settings.Token,
		Phone:            phone,
		TemplateName:     message.Template,
		TemplateLanguage: language,
		Components:       []templateComponent{{Type: "body", Parameters: params}},
	})
}

func (s *senderImpl) SendText(ctx context.Context, phone, text string) (result SendResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".SendText")
	defer scope.End()
	defer scope.TraceIfError(err)

	if strings.TrimSpace(text) == "" {
		return result, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return s.send(ctx, pathSendMessage, normalized, textRequest{
		Token:   s.settings.Token,
		Phone:   normalized,
		Message: text,
	})
}

func (s *senderImpl) send(ctx context.Context, path, phone string, body any) (SendResult, error) {
	if !s.settings.Enabled {
		return SendResult{}, ErrDisabled
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return SendResult{}, fmt.Errorf("failed to wait for whatsapp rate limit: %w", err)
	}

	// sent once: a timed out POST may already have been delivered
	result, err := s.breakers[path].Execute(func() (SendResult, error) {
		res, err := s.http.Do(ctx, httpclient.Request{
			Method: http.MethodPost,
			URL:    s.settings.BaseURL + path,
			Body:   body,
		})
		if err != nil {
			return SendResult{}, err //nolint:wrapcheck
		}

		var payload sendResponse
		if _, err := httpclient.DecodeTolerant(res.Body, &payload); err != nil && res.OK() {
			return SendResult{}, fmt.Errorf("%w: unreadable response: %w", ErrRejected, err)
		}

		if !res.OK() {
			if res.StatusCode >= http.StatusInternalServerError {
				return SendResult{}, fmt.Errorf("%w: status %d", httpclient.ErrUnavailable, res.StatusCode)
			}

			return SendResult{}, fmt.Errorf("%w: status %d: %s", ErrRejected, res.StatusCode, payload.Message)
		}

		if !strings.EqualFold(payload.Status, statusSuccess) {
			return SendResult{}, fmt.Errorf("%w: %s", ErrRejected, payload.Message)
		}

		return SendResult{MessageID: payload.MessageID, Phone: phone}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return SendResult{}, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	if err != nil {
		return SendResult{}, fmt.Errorf("failed to send whatsapp message: %w", err)
	}

	return result, nil
}
