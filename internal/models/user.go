// Package models содержит доменную модель пользователя PMS и её публичное
// представление. Структуры используются в бизнес‑логике, хранилище и
// HTTP/gRPC слоях.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User представляет учётную запись пользователя.
//
// UUID: единственный идентификатор, который попадает в выпускаемые токены,
// целочисленный ID наружу как основание доверия не используется.
type User struct {
	ID           int64      // Первичный ключ
	UUID         uuid.UUID  // Неизменяемый случайный идентификатор, subject токена
	Email        string     // Уникальный логин, сравнивается с учётом регистра
	PasswordHash string     // bcrypt‑хэш пароля
	FirstName    string     // Имя
	LastName     string     // Фамилия
	Contact      string     // Контактный телефон
	IsAdmin      bool       // Администратор продукта
	IsSuperuser  bool       // Суперпользователь
	IsStaff      bool       // Доступ к служебным интерфейсам
	IsActive     bool       // Активна ли учётная запись
	Archive      bool       // Мягкое удаление
	LastLogin    *time.Time // Время последнего входа, nil если не выставлялось
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName возвращает имя и фамилию через пробел.
func (u *User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

func (u *User) String() string {
	return fmt.Sprintf("%s %s || %s || %s", u.FirstName, u.LastName, u.Email, u.Contact)
}

// SoftDelete помечает пользователя архивным или снимает пометку.
func (u *User) SoftDelete(archive bool) {
	u.Archive = archive
}

// Profile описывает публичное представление пользователя.
type Profile struct {
	ID        int64     `json:"id"`
	UUID      uuid.UUID `json:"uuid"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
}

// Profile формирует публичное представление пользователя.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		UUID:      u.UUID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Contact:   u.Contact,
		Email:     u.Email,
		IsAdmin:   u.IsAdmin,
	}
}

// ProfileUpdate задаёт частичное обновление профиля, nil поля не меняются.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Contact   *string
}

// Apply переносит заданные поля обновления в пользователя.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Contact != nil {
		u.Contact = *p.Contact
	}
}
