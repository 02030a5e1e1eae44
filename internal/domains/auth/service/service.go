package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"crypto/subtle"
	"fmt"
	"nibog/config"
	"nibog/infras/jwt"
	"nibog/infras/otel"
	"nibog/internal/domains/auth/model/dto"
	"nibog/shared/constant"
	"nibog/shared/failure"
	"nibog/shared/password"
	"strings"

	"github.com/rs/zerolog/log"
)

// AdminUserID is the subject of tokens issued to the configured administrator.
const AdminUserID = "admin"

type Auth interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
}

type serviceImpl struct {
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
}

func New(cfg *config.Config, otel otel.Otel, jwt jwt.JWT) Auth {
	if cfg.Admin.PasswordHash != "" {
		if err := password.CheckHash(cfg.Admin.PasswordHash); err != nil {
			log.Warn().Err(err).Msg("ADMIN_PASSWORD_HASH should be a bcrypt hash, generate one with cmd/adminhash")
		}
	}

	return &serviceImpl{
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
	}
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer scope.TraceIfError(err)

	adminEmail := strings.ToLower(strings.TrimSpace(s.cfg.Admin.Email))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if adminEmail == "" || s.cfg.Admin.PasswordHash == "" {
		log.Error().Msg("admin credentials are not configured")

		return res, failure.Unauthorized("invalid email or password")
	}

	if subtle.ConstantTimeCompare([]byte(email), []byte(adminEmail)) != 1 {
		log.Warn().Str("email", req.Email).Msg("login attempt with unknown email")

		return res, failure.Unauthorized("invalid email or password")
	}

	if err := password.Verify(req.Password, s.cfg.Admin.PasswordHash); err != nil {
		log.Warn().Str("email", req.Email).Msg("login attempt with wrong password")

		return res, failure.Unauthorized("invalid email or password")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(ctx, AdminUserID, adminEmail, constant.RoleSuperAdmin)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate tokens")

		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	log.Info().Str("email", adminEmail).Msg("admin logged in")

	res.FromTokenPair(tokenPair, constant.RoleSuperAdmin)

	return res, nil
}

func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RefreshToken")
	defer scope.End()
	defer scope.TraceIfError(err)

	tokenPair, err := s.jwtService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh tokens")

		return res, failure.Unauthorized("invalid refresh token")
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}
