package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) GetUserData(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newServer(svc AuthService) *AuthServer {
	return NewAuthServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAuthServer_Login_Unit(t *testing.T) {
	tests := []struct {
		name         string
		email        string
		password     string
		token        string
		mockErr      error
		expectedCode codes.Code
		expectedMsg  string
	}{
		{name: "success", email: "a@b.com", password: "pw", token: "tok", expectedCode: codes.OK},
		{name: "missing", expectedCode: codes.InvalidArgument, mockErr: auth.ErrMissingCredentials,
			expectedMsg: "Email and password are required."},
		{name: "unknown email", email: "x@b.com", password: "pw", mockErr: auth.ErrIncorrectEmailOrPassword,
			expectedCode: codes.Unauthenticated, expectedMsg: "Incorrect email or password"},
		{name: "store error", email: "a@b.com", password: "pw", mockErr: errors.New("db down"),
			expectedCode: codes.Internal, expectedMsg: "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			svc.On("Login", mock.Anything, tt.email, tt.password).Return(tt.token, tt.mockErr).Once()

			req, err := structpb.NewStruct(map[string]any{"email": tt.email, "password": tt.password})
			require.NoError(t, err)

			resp, err := newServer(svc).Login(context.Background(), req)
			if tt.expectedCode == codes.OK {
				require.NoError(t, err)
				assert.Equal(t, tt.token, resp.GetValue())
			} else {
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCode, st.Code())
				assert.Equal(t, tt.expectedMsg, st.Message())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthServer_GetUserData_Unit(t *testing.T) {
	id := uuid.New()
	svc := new(MockAuthService)
	svc.On("GetUserData", mock.Anything, "tok").Return(&models.User{ID: 5, UUID: id, Email: "a@b.com", IsAdmin: true}, nil).Once()
	svc.On("GetUserData", mock.Anything, "bad").Return(nil, auth.ErrMalformedToken).Once()

	s := newServer(svc)

	resp, err := s.GetUserData(context.Background(), wrapperspb.String("tok"))
	require.NoError(t, err)
	f := resp.GetFields()
	assert.Equal(t, float64(5), f["id"].GetNumberValue())
	assert.Equal(t, id.String(), f["uuid"].GetStringValue())
	assert.True(t, f["is_admin"].GetBoolValue())
	assert.False(t, f["archive"].GetBoolValue())

	_, err = s.GetUserData(context.Background(), wrapperspb.String("bad"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "Invalid Token!", status.Convert(err).Message())

	svc.AssertExpectations(t)
}

func TestServiceDesc_Interceptor(t *testing.T) {
	svc := new(MockAuthService)
	svc.On("GetUserData", mock.Anything, "tok").Return(&models.User{UUID: uuid.New()}, nil).Once()

	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	dec := func(v any) error {
		v.(*wrapperspb.StringValue).Value = "tok"
		return nil
	}

	_, err := getUserDataHandler(newServer(svc), context.Background(), dec, interceptor)
	require.NoError(t, err)
	assert.Equal(t, GetUserDataMethod, seen)
	svc.AssertExpectations(t)
}
