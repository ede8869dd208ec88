// Package response содержит типы и функции для формирования унифицированных
// JSON‑ответов HTTP‑обработчиков: {message, data} для успешных ответов,
// {message, errors} для ошибок и конверт постраничной выдачи.
package response

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
type Response struct {
	Message string `json:"message" example:"Successfully logged in"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse: ответ с ошибкой. Errors заполняется для ошибок валидации
// и содержит сообщения по полям.
type ErrorResponse struct {
	Message string              `json:"message" example:"Invalid credentials"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Page: конверт постраничной выдачи.
type Page struct {
	Message  string  `json:"message" example:"Fetched successfully"`
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Data     any     `json:"data"`
}

// OK возвращает успешный ответ с сообщением и данными.
func OK(msg string, data any) Response {
	return Response{
		Message: msg,
		Data:    data,
	}
}

// Error возвращает ответ с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Message: msg}
}

// FieldErrors возвращает ответ с ошибками по полям. Message собирает все
// ошибки в виде "поле: текст" в алфавитном порядке полей.
func FieldErrors(fields map[string][]string) ErrorResponse {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", k, strings.Join(fields[k], " ")))
	}
	return ErrorResponse{
		Message: strings.Join(msgs, ", "),
		Errors:  fields,
	}
}

// ValidationError формирует ответ на основе ошибок валидатора.
// Имена полей берутся из err.Field(), поэтому валидатор должен отдавать json‑имена.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	fields := make(map[string][]string, len(errs))
	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = "This field is required."
		case "email":
			msg = "Enter a valid email address."
		case "max":
			msg = fmt.Sprintf("Ensure this field has no more than %s characters.", err.Param())
		case "min":
			msg = fmt.Sprintf("Ensure this field has at least %s characters.", err.Param())
		case "uuid":
			msg = "Must be a valid UUID."
		default:
			msg = "Invalid value."
		}
		fields[err.Field()] = append(fields[err.Field()], msg)
	}
	return FieldErrors(fields)
}
