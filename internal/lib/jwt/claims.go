package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/pms-backend/internal/models"
)

const (
	// SubjectClaim: имя claim'а с uuid пользователя.
	SubjectClaim = "user_uuid"
	// TokenTypeAccess: значение token_type для access‑токенов.
	TokenTypeAccess = "access"
)

// CustomClaims описывает claim'ы выпускаемого access‑токена.
type CustomClaims struct {
	UserUUID    string `json:"user_uuid"`    // Subject: uuid пользователя
	UserID      int64  `json:"id"`           // Целочисленный id, только для удобства клиентов
	IsAdmin     bool   `json:"is_admin"`     // Снимок флага на момент выпуска
	IsSuperuser bool   `json:"is_superuser"` // Снимок флага на момент выпуска
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateToken создаёт access‑токен для пользователя и подписывает его HS256.
func (j *MakerImpl) GenerateToken(user *models.User) (string, error) {
	const op = "jwt.GenerateToken"
	now := j.now()
	claims := CustomClaims{
		UserUUID:    user.UUID.String(),
		UserID:      user.ID,
		IsAdmin:     user.IsAdmin,
		IsSuperuser: user.IsSuperuser,
		TokenType:   TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken разбирает токен, проверяет алгоритм, подпись и срок действия.
//
// Ошибки библиотеки возвращаются без обёртки: их текст уходит клиенту как есть,
// а классификация делается через errors.Is (jwt.ErrTokenExpired и т.п.).
func (j *MakerImpl) ParseToken(tokenStr string) (map[string]any, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.now),
	)
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
