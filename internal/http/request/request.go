// Package request разбирает тела запросов в формате JSON и form и строит
// валидатор, который сообщает об ошибках по json‑именам полей.
package request

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

const maxMemory = 10 << 20

// ErrInvalidBody возвращается, если тело не удалось разобрать.
var ErrInvalidBody = errors.New("invalid request body")

// Values: разобранное тело запроса. Значение поля может быть строкой,
// числом, списком (JSON‑массив или повторяющееся поле формы) и т.д.
type Values map[string]any

// Decode разбирает тело запроса по Content-Type. Пустое JSON‑тело даёт пустые Values.
func Decode(r *http.Request) (Values, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return decodeForm(r, ct)
	default:
		v := Values{}
		if err := render.DecodeJSON(r.Body, &v); err != nil {
			if errors.Is(err, io.EOF) {
				return Values{}, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return v, nil
	}
}

func decodeForm(r *http.Request, ct string) (Values, error) {
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(maxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	v := make(Values, len(r.PostForm))
	for k, vals := range r.PostForm {
		if len(vals) == 1 {
			v[k] = vals[0]
			continue
		}
		list := make([]any, len(vals))
		for i, s := range vals {
			list[i] = s
		}
		v[k] = list
	}
	return v, nil
}

// String возвращает значение поля как строку. Для списка берётся первый
// элемент, отсутствующее поле и null дают пустую строку.
func (v Values) String(key string) string {
	return stringify(v[key])
}

func stringify(raw any) string {
	switch val := raw.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		if len(val) == 0 {
			return ""
		}
		return stringify(val[0])
	case []string:
		if len(val) == 0 {
			return ""
		}
		return val[0]
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// Optional возвращает указатель на строковое значение, если поле присутствует.
func (v Values) Optional(key string) *string {
	if _, ok := v[key]; !ok {
		return nil
	}
	s := v.String(key)
	return &s
}

// NewValidator создаёт валидатор, использующий json‑имена полей в ошибках.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}
