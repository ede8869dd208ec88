// Package jwt реализует выпуск и разбор JWT access‑токенов PMS.
//
// Maker определяет интерфейс выпуска токена для пользователя и разбора
// подписанной строки. MakerImpl подписывает токены HS256 общим секретом
// процесса и задаёт время жизни.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/pms-backend/internal/models"
)

// Maker описывает интерфейс для генерации и разбора JWT токенов.
type Maker interface {
	// GenerateToken выпускает access‑токен со снимком claim'ов пользователя.
	GenerateToken(user *models.User) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает все claim'ы токена.
	ParseToken(tokenStr string) (map[string]any, error)
}

// MakerImpl реализует Maker с секретным ключом, временем жизни и допуском
// по времени при проверке срока действия.
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	leeway    time.Duration
	now       func() time.Time
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithLeeway задаёт допуск, с которым библиотека проверяет exp.
func WithLeeway(d time.Duration) Option {
	return func(m *MakerImpl) { m.leeway = d }
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) { m.now = now }
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) *MakerImpl {
	m := &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
