package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"nibog/config"
	"nibog/infras/jwt"
	jwtMocks "nibog/infras/jwt/mocks"
	otelMocks "nibog/infras/otel/mocks"
	"nibog/permissions"
	"nibog/shared/constant"
	"nibog/transport/http/middleware"
)

const testAPIKey = "internal-key"

func newRouter(t *testing.T) (*jwtMocks.MockJWT, http.Handler) {
	ctrl := gomock.NewController(t)
	jwtService := jwtMocks.NewMockJWT(ctrl)

	cfg := &config.Config{}
	cfg.App.APIKey = testAPIKey

	authRole := middleware.NewAuthRoleMiddleware(jwtService, otelMocks.NewOtel(), permissions.Get(), cfg)

	router := chi.NewRouter()
	router.Route("/v1/admin", func(r chi.Router) {
		r.Use(authRole.APIKey, authRole.Auth, authRole.RBAC)

		r.Get("/payments", func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(constant.ContextKeyUserRole).(string)
			w.Header().Set("X-Role", role)
			w.WriteHeader(http.StatusOK)
		})
		r.Post("/notifications/dispatch", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Delete("/payments", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	return jwtService, router
}

func TestAuthRole_AdminRoutes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		headers    map[string]string
		setup      func(jwtService *jwtMocks.MockJWT)
		wantStatus int
		wantRole   string
	}{
		{
			name:       "missing authorization header",
			method:     http.MethodGet,
			path:       "/v1/admin/payments",
			setup:      func(_ *jwtMocks.MockJWT) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed authorization header",
			method:     http.MethodGet,
			path:       "/v1/admin/payments",
			headers:    map[string]string{constant.RequestHeaderAuthorization: "Token abc"},
			setup:      func(_ *jwtMocks.MockJWT) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "expired token",
			method:  http.MethodGet,
			path:    "/v1/admin/payments",
			headers: map[string]string{constant.RequestHeaderAuthorization: "Bearer expired"},
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "expired", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "claims without user",
			method:  http.MethodGet,
			path:    "/v1/admin/payments",
			headers: map[string]string{constant.RequestHeaderAuthorization: "Bearer blank"},
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "blank", jwt.AccessToken).
					Return(&jwt.Claims{Email: "ops@nibog.in", Role: constant.RoleAdmin}, nil)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "admin may list payments",
			method:  http.MethodGet,
			path:    "/v1/admin/payments",
			headers: map[string]string{constant.RequestHeaderAuthorization: "Bearer good"},
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "admin", Email: "ops@nibog.in", Role: constant.RoleAdmin}, nil)
			},
			wantStatus: http.StatusOK,
			wantRole:   constant.RoleAdmin,
		},
		{
			name:    "admin may not force dispatch",
			method:  http.MethodPost,
			path:    "/v1/admin/notifications/dispatch",
			headers: map[string]string{constant.RequestHeaderAuthorization: "Bearer good"},
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "admin", Email: "ops@nibog.in", Role: constant.RoleAdmin}, nil)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:    "user role is forbidden",
			method:  http.MethodGet,
			path:    "/v1/admin/payments",
			headers: map[string]string{constant.RequestHeaderAuthorization: "Bearer user"},
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "user", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "42", Email: "parent@example.com", Role: constant.RoleUser}, nil)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:    "unlisted route is denied even to superadmin",
			method:  http.MethodDelete,
			path:    "/v1/admin/payments",
			headers: map[string]string{constant.RequestHeaderAuthorization: "Bearer root"},
			setup: func(jwtService *jwtMocks.MockJWT) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "root", jwt.AccessToken).
					Return(&jwt.Claims{UserID: "root", Email: "root@nibog.in", Role: constant.RoleSuperAdmin}, nil)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "internal api key skips the token",
			method:     http.MethodPost,
			path:       "/v1/admin/notifications/dispatch",
			headers:    map[string]string{constant.RequestHeaderAPIKey: testAPIKey},
			setup:      func(_ *jwtMocks.MockJWT) {},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong api key",
			method:     http.MethodGet,
			path:       "/v1/admin/payments",
			headers:    map[string]string{constant.RequestHeaderAPIKey: "guess"},
			setup:      func(_ *jwtMocks.MockJWT) {},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtService, router := newRouter(t)
			tt.setup(jwtService)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}

			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantRole, rec.Header().Get("X-Role"))
		})
	}
}
