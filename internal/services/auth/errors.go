package auth

import (
	"errors"
	"net/http"
)

// Code классифицирует ошибки аутентификации.
type Code string

const (
	CodeMissingCredentials Code = "missing_credentials"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeMissingToken       Code = "missing_token"
	CodeInvalidSignature   Code = "invalid_signature"
	CodeExpiredToken       Code = "expired_token"
	CodeExpiredTokenLogin  Code = "expired_token_login"
	CodeMalformedToken     Code = "malformed_token"
	CodeUnknownSubject     Code = "unknown_subject"
	CodeValidation         Code = "validation"
	CodeUnexpected         Code = "unexpected"
)

// Error: ошибка, которую можно показать клиенту: Message уходит в ответ как есть,
// Status задаёт HTTP‑код.
type Error struct {
	Code    Code
	Message string
	Status  int
	Fields  map[string][]string // только для CodeValidation
	err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is сравнивает ошибки по коду и тексту, чтобы errors.Is работал с копиями.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

var (
	ErrMissingCredentials       = newError(CodeMissingCredentials, "Email and password are required.", http.StatusBadRequest)
	ErrIncorrectEmailOrPassword = newError(CodeInvalidCredentials, "Incorrect email or password", http.StatusUnauthorized)
	ErrInvalidCredentials       = newError(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)

	ErrMissingToken      = newError(CodeMissingToken, "No token Provided", http.StatusBadRequest)
	ErrInvalidSignature  = newError(CodeInvalidSignature, "Invalid Token, Please check the token and try again", http.StatusBadRequest)
	ErrExpiredToken      = newError(CodeExpiredToken, "Expired Token, Please check the token and try again", http.StatusBadRequest)
	ErrExpiredTokenLogin = newError(CodeExpiredTokenLogin, "Token has expired. Please login again!", http.StatusBadRequest)
	ErrMalformedToken    = newError(CodeMalformedToken, "Invalid Token!", http.StatusBadRequest)
	ErrUnknownSubject    = newError(CodeUnknownSubject, "Invalid Token.", http.StatusBadRequest)

	ErrPasswordRequired = newError(CodeValidation, "Password is required", http.StatusBadRequest)
)

func newError(code Code, msg string, status int) *Error {
	return &Error{Code: code, Message: msg, Status: status}
}

// Unexpected оборачивает непредвиденную ошибку; клиент получает её исходный текст.
func Unexpected(err error) *Error {
	return &Error{Code: CodeUnexpected, Message: err.Error(), Status: http.StatusBadRequest, err: err}
}

// Validation создаёт ошибку валидации одного поля.
func Validation(field, msg string, err error) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: msg,
		Status:  http.StatusBadRequest,
		Fields:  map[string][]string{field: {msg}},
		err:     err,
	}
}

var known = []*Error{
	ErrMissingCredentials,
	ErrIncorrectEmailOrPassword,
	ErrInvalidCredentials,
	ErrMissingToken,
	ErrInvalidSignature,
	ErrExpiredToken,
	ErrExpiredTokenLogin,
	ErrMalformedToken,
	ErrUnknownSubject,
	ErrPasswordRequired,
}

// FromMessage восстанавливает ошибку по тексту, полученному от удалённого
// сервиса. Неизвестный текст даёт Unexpected.
func FromMessage(msg string) *Error {
	for _, e := range known {
		if e.Message == msg {
			return e
		}
	}
	return Unexpected(errors.New(msg))
}
