// Package password реализует хэширование и проверку паролей пользователей.
//
// Hash создаёт bcrypt‑хэш для хранения в базе данных.
// Check сравнивает сохранённый хэш с введённым паролем.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch возвращается, когда пароль не соответствует хэшу.
var ErrMismatch = errors.New("password does not match")

// Hash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func Hash(password string) (string, error) {
	const op = "password.Hash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Check сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает ErrMismatch, если пароль не подходит, и обёрнутую ошибку bcrypt,
// если сам хэш повреждён.
func Check(hash, password string) error {
	const op = "password.Check"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
