package middlewarectx_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pms-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) GetUserData(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestJWTMiddleware(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@b.com", IsActive: true}
	inactive := &models.User{ID: 8, Email: "off@b.com"}
	archived := &models.User{ID: 9, Email: "gone@b.com", IsActive: true, Archive: true}

	tests := []struct {
		name        string
		required    bool
		authHeader  string
		token       string
		mockUser    *models.User
		mockErr     error
		wantStatus  int
		wantCalled  bool
		wantActor   *models.User
		wantMessage string
	}{
		{
			name: "required: missing header", required: true,
			wantStatus: http.StatusUnauthorized, wantMessage: middlewarectx.MsgNotProvided,
		},
		{
			name: "required: wrong scheme", required: true, authHeader: "Basic abc",
			wantStatus: http.StatusUnauthorized, wantMessage: middlewarectx.MsgNotProvided,
		},
		{
			name: "required: expired token", required: true, authHeader: "Bearer old", token: "old",
			mockErr:    auth.ErrExpiredToken,
			wantStatus: http.StatusUnauthorized, wantMessage: auth.ErrExpiredToken.Message,
		},
		{
			name: "required: transport error", required: true, authHeader: "Bearer tok", token: "tok",
			mockErr:    errors.New("connection refused"),
			wantStatus: http.StatusUnauthorized, wantMessage: "invalid or expired token",
		},
		{
			name: "required: valid token", required: true, authHeader: "Bearer tok", token: "tok",
			mockUser:   user,
			wantStatus: http.StatusOK, wantCalled: true, wantActor: user,
		},
		{
			name: "required: inactive user", required: true, authHeader: "Bearer tok", token: "tok",
			mockUser:   inactive,
			wantStatus: http.StatusUnauthorized, wantMessage: middlewarectx.MsgUserInactive,
		},
		{
			name: "required: archived user", required: true, authHeader: "Bearer tok", token: "tok",
			mockUser:   archived,
			wantStatus: http.StatusUnauthorized, wantMessage: middlewarectx.MsgUserInactive,
		},
		{
			name: "optional: inactive user", authHeader: "Bearer tok", token: "tok",
			mockUser:   inactive,
			wantStatus: http.StatusUnauthorized, wantMessage: middlewarectx.MsgUserInactive,
		},
		{
			name:       "optional: anonymous",
			wantStatus: http.StatusOK, wantCalled: true,
		},
		{
			name: "optional: valid token", authHeader: "Bearer tok", token: "tok",
			mockUser:   user,
			wantStatus: http.StatusOK, wantCalled: true, wantActor: user,
		},
		{
			name: "optional: invalid token", authHeader: "Bearer bad", token: "bad",
			mockErr:    auth.ErrInvalidSignature,
			wantStatus: http.StatusUnauthorized, wantMessage: auth.ErrInvalidSignature.Message,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(ResolverMock)
			if tt.token != "" {
				resolver.On("GetUserData", mock.Anything, tt.token).Return(tt.mockUser, tt.mockErr).Once()
			}

			var (
				called bool
				actor  *models.User
			)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				actor = middlewarectx.Actor(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			mw := middlewarectx.OptionalJWTMiddleware(resolver, newNoopLogger())
			if tt.required {
				mw = middlewarectx.JWTMiddleware(resolver, newNoopLogger())
			}

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantActor, actor)
			if tt.wantMessage != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantMessage, body["message"])
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestActor_Anonymous(t *testing.T) {
	assert.Nil(t, middlewarectx.Actor(context.Background()))
}
