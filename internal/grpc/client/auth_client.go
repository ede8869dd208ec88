// Package client содержит gRPC-клиент сервиса аутентификации. AuthClient
// реализует тот же контракт разбора токена, что и локальный сервис, поэтому
// подходит для bearer middleware соседних сервисов.
package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/pms-backend/internal/grpc/server"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
)

// AuthClient вызывает сервис аутентификации по gRPC.
type AuthClient struct {
	conn *grpc.ClientConn
}

// NewAuthClient создаёт клиент без TLS. Соединение устанавливается лениво.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	const op = "grpc.client.NewAuthClient"

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AuthClient{conn: conn}, nil
}

// Close закрывает соединение с сервисом.
func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// Login возвращает access‑токен.
func (a *AuthClient) Login(ctx context.Context, email, password string) (string, error) {
	in, err := structpb.NewStruct(map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	out := new(wrapperspb.StringValue)
	if err := a.conn.Invoke(ctx, server.LoginMethod, in, out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetValue(), nil
}

// GetUserData разбирает токен на стороне сервиса аутентификации.
func (a *AuthClient) GetUserData(ctx context.Context, token string) (*models.User, error) {
	out := new(structpb.Struct)
	if err := a.conn.Invoke(ctx, server.GetUserDataMethod, wrapperspb.String(token), out); err != nil {
		return nil, fromStatus(err)
	}

	f := out.GetFields()
	id, err := uuid.Parse(f["uuid"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("grpc.client.GetUserData: %w", err)
	}
	return &models.User{
		ID:          int64(f["id"].GetNumberValue()),
		UUID:        id,
		Email:       f["email"].GetStringValue(),
		FirstName:   f["first_name"].GetStringValue(),
		LastName:    f["last_name"].GetStringValue(),
		Contact:     f["contact"].GetStringValue(),
		IsAdmin:     f["is_admin"].GetBoolValue(),
		IsSuperuser: f["is_superuser"].GetBoolValue(),
		IsActive:    f["is_active"].GetBoolValue(),
		Archive:     f["archive"].GetBoolValue(),
	}, nil
}

// fromStatus восстанавливает ошибку аутентификации из gRPC-статуса.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.Unauthenticated:
		return auth.FromMessage(st.Message())
	default:
		return err
	}
}
