// Package auth реализует ядро аутентификации PMS: проверку учётных данных,
// выпуск access‑токенов, разбор токена обратно в пользователя и регистрацию.
//
// Все отказы возвращаются как *Error с текстом для клиента и HTTP‑статусом.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/pms-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/pms-backend/internal/lib/password"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/storage"
)

// UserStore описывает контракт хранилища пользователей.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// CreateWithPassword создаёт пользователя и сохраняет хэш пароля.
	CreateWithPassword(ctx context.Context, actor *models.User, u *models.User, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// RegisterInput: данные нового пользователя. Поля профиля уже провалидированы.
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Contact   string
	Password  string
}

// ListInvalidator сбрасывает кеш списков пользователей после записи.
type ListInvalidator interface {
	InvalidateLists(ctx context.Context)
}

// Service отвечает за регистрацию, вход и разбор токенов.
type Service struct {
	users  UserStore
	tokens jwt.Maker
	lists  ListInvalidator
	now    func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithListInvalidator подключает сброс кеша списков после регистрации.
func WithListInvalidator(lists ListInvalidator) Option {
	return func(s *Service) { s.lists = lists }
}

// NewService создаёт Service.
func NewService(users UserStore, tokens jwt.Maker, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify проверяет email и пароль и возвращает пользователя.
//
// Неизвестный email и неверный пароль различаются текстом ответа.
func (s *Service) Verify(ctx context.Context, email, rawPassword string) (*models.User, error) {
	const op = "auth.Verify"

	if email == "" || rawPassword == "" {
		return nil, ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrIncorrectEmailOrPassword
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.Check(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Issue выпускает access‑токен и фиксирует время последнего входа.
func (s *Service) Issue(ctx context.Context, user *models.User) (string, error) {
	const op = "auth.Issue"

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user.LastLogin = &now

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Login проверяет учётные данные и выпускает токен.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, error) {
	user, err := s.Verify(ctx, email, rawPassword)
	if err != nil {
		return "", err
	}
	return s.Issue(ctx, user)
}

// GetUserData проверяет токен и возвращает пользователя, для которого он выпущен.
// Шаги выполняются по порядку, первый отказ завершает проверку.
func (s *Service) GetUserData(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.decode(token)
	if err != nil {
		return nil, err
	}
	if err := s.checkExpiry(claims); err != nil {
		return nil, err
	}
	subject, err := subjectOf(claims)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByUUID(ctx, subject)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrUnknownSubject
	}
	if err != nil {
		return nil, Unexpected(err)
	}
	return user, nil
}

// decode проверяет подпись и срок действия средствами библиотеки.
func (s *Service) decode(token string) (gojwt.MapClaims, error) {
	claims, err := s.tokens.ParseToken(token)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return nil, ErrInvalidSignature
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	default:
		return nil, Unexpected(err)
	}
}

// checkExpiry повторно сравнивает exp с текущим временем сервиса.
// Срабатывает для токенов, принятых библиотекой в пределах допуска.
func (s *Service) checkExpiry(claims gojwt.MapClaims) error {
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Unexpected(err)
	}
	if exp == nil {
		return Unexpected(gojwt.ErrTokenRequiredClaimMissing)
	}
	if exp.Before(s.now()) {
		return ErrExpiredTokenLogin
	}
	return nil
}

func subjectOf(claims gojwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims[jwt.SubjectClaim]
	if !ok {
		return uuid.Nil, ErrMalformedToken
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, Unexpected(fmt.Errorf("%s claim must be a string", jwt.SubjectClaim))
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, Unexpected(err)
	}
	return id, nil
}

// Register создаёт активного пользователя с паролем.
//
// last_login выставляется в текущее время, кроме случая, когда регистрацию
// выполняет администратор: тогда он остаётся пустым.
func (s *Service) Register(ctx context.Context, actor *models.User, in RegisterInput) (*models.User, error) {
	const op = "auth.Register"

	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, Unexpected(err)
	}

	user := &models.User{
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Contact:   in.Contact,
		IsActive:  true,
	}
	if actor == nil || !actor.IsAdmin {
		now := s.now()
		user.LastLogin = &now
	}

	if err := s.users.CreateWithPassword(ctx, actor, user, hash); err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			return nil, Validation("email", storage.ErrEmailExists.Error(), err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.lists != nil {
		s.lists.InvalidateLists(ctx)
	}
	return user, nil
}
