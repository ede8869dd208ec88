// Package server реализует gRPC-сервер сервиса аутентификации.
//
// Сервис объявлен вручную через grpc.ServiceDesc и использует well-known
// типы protobuf. Запрос входа передаётся как Struct{email, password}, токен
// как StringValue, профиль как Struct. Ошибки таксономии уходят клиенту с исходным текстом.
package server

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

// Имена сервиса и методов.
const (
	ServiceName       = "pms.auth.v1.AuthService"
	LoginMethod       = "/" + ServiceName + "/Login"
	GetUserDataMethod = "/" + ServiceName + "/GetUserData"
)

// AuthService описывает бизнес-логику, которую обслуживает сервер.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	GetUserData(ctx context.Context, token string) (*models.User, error)
}

// AuthServiceServer: контракт обработчиков сервиса.
type AuthServiceServer interface {
	Login(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
	GetUserData(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// AuthServer реализует AuthServiceServer.
type AuthServer struct {
	authService AuthService
	log         *slog.Logger
}

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(authService AuthService, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		authService: authService,
		log:         logger,
	}
}

// Register регистрирует сервер в gRPC-сервере.
func Register(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Login проверяет учётные данные и возвращает access‑токен.
func (s *AuthServer) Login(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	const op = "grpc.server.Login"

	fields := req.GetFields()
	email := fields["email"].GetStringValue()
	s.log.Info("Login request", slog.String("op", op), slog.String("email", email))

	token, err := s.authService.Login(ctx, email, fields["password"].GetStringValue())
	if err != nil {
		s.log.Info("Login failed", slog.String("op", op), slog.String("email", email), sl.Err(err))
		return nil, toStatus(err)
	}
	return wrapperspb.String(token), nil
}

// GetUserData проверяет токен и возвращает профиль его владельца.
func (s *AuthServer) GetUserData(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	const op = "grpc.server.GetUserData"

	user, err := s.authService.GetUserData(ctx, req.GetValue())
	if err != nil {
		s.log.Info("Invalid token", slog.String("op", op), sl.Err(err))
		return nil, toStatus(err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"id":           user.ID,
		"uuid":         user.UUID.String(),
		"email":        user.Email,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"contact":      user.Contact,
		"is_admin":     user.IsAdmin,
		"is_superuser": user.IsSuperuser,
		"is_active":    user.IsActive,
		"archive":      user.Archive,
	})
	if err != nil {
		s.log.Error("failed to encode profile", slog.String("op", op), sl.Err(err))
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus переводит ошибку в gRPC-статус: ошибки ввода дают InvalidArgument,
// отказ в доступе Unauthenticated.
func toStatus(err error) error {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		return status.Error(codes.Internal, "internal error")
	}
	switch authErr.Code {
	case auth.CodeMissingCredentials, auth.CodeMissingToken, auth.CodeValidation, auth.CodeUnexpected:
		return status.Error(codes.InvalidArgument, authErr.Message)
	default:
		return status.Error(codes.Unauthenticated, authErr.Message)
	}
}

// ServiceDesc описывает сервис pms.auth.v1.AuthService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: loginHandler},
		{MethodName: "GetUserData", Handler: getUserDataHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pms/auth/v1/auth.proto",
}

func loginHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoginMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).Login(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getUserDataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).GetUserData(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetUserDataMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).GetUserData(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
