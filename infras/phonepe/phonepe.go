package phonepe

//go:generate go run go.uber.org/mock/mockgen -source=./phonepe.go -destination=./mocks/phonepe_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"nibog/config"
	"nibog/infras/httpclient"
	"nibog/infras/otel"
	"nibog/shared/base64"
	"nibog/shared/constant"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	sandboxBaseURL    = "https://api-preprod.phonepe.com/apis/pg-sandbox"
	productionBaseURL = "https://api.phonepe.com/apis/hermes"

	pathPay    = "/pg/v1/pay"
	pathStatus = "/pg/v1/status"

	envProduction = "production"
	otelScopeName = "phonepe"
)

var (
	ErrInvalidChecksum = errors.New("invalid phonepe checksum")
	ErrInvalidPayload  = errors.New("invalid phonepe payload")
	ErrGateway         = errors.New("phonepe rejected the request")
)

// Gateway is the PhonePe PG v1 pay page integration.
type Gateway interface {
	Initiate(ctx context.Context, input InitiateInput) (InitiateResult, error)
	Status(ctx context.Context, transactionID string) (StatusResult, error)
	VerifyCallback(encoded, xVerify string) (StatusResult, error)
}

type Settings struct {
	BaseURL     string
	MerchantID  string
	SaltKey     string
	SaltIndex   string
	RedirectURL string
	CallbackURL string
}

type gatewayImpl struct {
	http     httpclient.Client
	settings Settings
	otel     otel.Otel
}

func New(cfg *config.Config, ot otel.Otel) Gateway {
	baseURL := cfg.PhonePe.BaseURL
	if baseURL == "" {
		baseURL = sandboxBaseURL
		if cfg.PhonePe.Env == envProduction {
			baseURL = productionBaseURL
		}
	}

	client := httpclient.New(httpclient.Options{
		Name:     otelScopeName,
		Timeout:  time.Duration(cfg.PhonePe.TimeoutSeconds) * time.Second,
		MaxRetry: 3,
	}, ot)

	return NewWithClient(Settings{
		BaseURL:     baseURL,
		MerchantID:  cfg.PhonePe.MerchantID,
		SaltKey:     cfg.PhonePe.SaltKey,
		SaltIndex:   cfg.PhonePe.SaltIndex,
		RedirectURL: cfg.PhonePe.RedirectURL,
		CallbackURL: cfg.PhonePe.CallbackURL,
	}, client, ot)
}

func NewWithClient(settings Settings, client httpclient.Client, ot otel.Otel) Gateway {
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")

	return &gatewayImpl{
		http:     client,
		settings: settings,
		otel:     ot,
	}
}

func (g *gatewayImpl) Initiate(ctx context.Context, input InitiateInput) (result InitiateResult, err error) {
	ctx, scope := g.otel.NewScope(ctx, otelScopeName, otelScopeName+".Initiate")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, input.TransactionID)

	if input.AmountPaise <= 0 {
		return result, fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}

	encoded, err := base64.EncodeJSON(payPayload{
		MerchantID:            g.settings.MerchantID,
		MerchantTransactionID: input.TransactionID,
		MerchantUserID:        input.UserID,
		Amount:                input.AmountPaise,
		RedirectURL:           g.settings.RedirectURL,
		RedirectMode:          redirectModePost,
		CallbackURL:           g.settings.CallbackURL,
		MobileNumber:          input.Mobile,
		PaymentInstrument:     paymentInstrument{Type: instrumentPayPage},
	})
	if err != nil {
		return result, fmt.Errorf("failed to encode pay request: %w", err)
	}

	res, err := g.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    g.settings.BaseURL + pathPay,
		Headers: map[string]string{
			constant.RequestHeaderVerify: Checksum(encoded, pathPay, g.settings.SaltKey, g.settings.SaltIndex),
		},
		Body: payRequest{Request: encoded},
	})
	if err != nil {
		return result, fmt.Errorf("failed to initiate payment: %w", err)
	}

	var body initiateResponse
	if _, err = httpclient.DecodeTolerant(res.Body, &body); err != nil {
		log.Error().Err(err).Int("status", res.StatusCode).Msg("failed to parse phonepe pay response")

		return result, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	redirect := body.Data.InstrumentResponse.RedirectInfo.URL
	if !res.OK() || !body.Success || redirect == "" {
		log.Error().Str("code", body.Code).Str("message", body.Message).Int("status", res.StatusCode).
			Str("transaction_id", input.TransactionID).Msg("phonepe pay request rejected")

		return result, fmt.Errorf("%w: %s %s", ErrGateway, body.Code, body.Message)
	}

	return InitiateResult{
		TransactionID: input.TransactionID,
		RedirectURL:   redirect,
		Code:          body.Code,
		Message:       body.Message,
	}, nil
}

func (g *gatewayImpl) Status(ctx context.Context, transactionID string) (result StatusResult, err error) {
	ctx, scope := g.otel.NewScope(ctx, otelScopeName, otelScopeName+".Status")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(constant.OtelTransactionIDAttributeKey, transactionID)

	path := fmt.Sprintf("%s/%s/%s", pathStatus, g.settings.MerchantID, transactionID)

	res, err := g.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		URL:    g.settings.BaseURL + path,
		Headers: map[string]string{
			constant.RequestHeaderVerify:     Checksum("", path, g.settings.SaltKey, g.settings.SaltIndex),
			constant.RequestHeaderMerchantID: g.settings.MerchantID,
		},
	})
	if err != nil {
		return result, fmt.Errorf("failed to check payment status: %w", err)
	}

	// failed payments come back as 4xx with a regular body
	if _, err = httpclient.DecodeTolerant(res.Body, &result); err != nil {
		log.Error().Err(err).Int("status", res.StatusCode).Str("transaction_id", transactionID).Msg("failed to parse phonepe status")

		return result, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	if result.Code == "" {
		return result, fmt.Errorf("%w: status %d without code", ErrGateway, res.StatusCode)
	}

	return result, nil
}

func (g *gatewayImpl) VerifyCallback(encoded, xVerify string) (result StatusResult, err error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return result, fmt.Errorf("%w: empty response", ErrInvalidPayload)
	}

	if !VerifyChecksum(xVerify, encoded, "", g.settings.SaltKey, g.settings.SaltIndex) {
		return result, ErrInvalidChecksum
	}

	if err = base64.DecodeJSON(encoded, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if result.Data.MerchantTransactionID == "" {
		return result, fmt.Errorf("%w: merchantTransactionId missing", ErrInvalidPayload)
	}

	return result, nil
}

// ParseCallbackBody extracts the base64 response field from a callback body.
func ParseCallbackBody(body []byte) (string, error) {
	var req callbackRequest
	if _, err := httpclient.DecodeTolerant(body, &req); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return req.Response, nil
}
