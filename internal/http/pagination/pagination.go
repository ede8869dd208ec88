// Package pagination реализует limit/offset пагинацию списков и построение
// ссылок next/previous.
package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

// DefaultLimit: размер страницы по умолчанию.
const DefaultLimit = 10

// Params: параметры страницы из строки запроса.
type Params struct {
	Limit    int
	Offset   int
	Disabled bool // no_pagination=true: отдать всё без конверта страницы
}

// Parse читает limit, offset и no_pagination. Некорректные значения
// заменяются значениями по умолчанию.
func Parse(r *http.Request) Params {
	q := r.URL.Query()
	p := Params{
		Limit:    DefaultLimit,
		Disabled: q.Get("no_pagination") == "true",
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		p.Offset = n
	}
	return p
}

// Links строит абсолютные ссылки на соседние страницы. secure выбирает схему
// https, иначе http.
func Links(r *http.Request, p Params, count int, secure bool) (next, previous *string) {
	if p.Offset < count-p.Limit {
		s := pageURL(r, secure, p.Limit, p.Offset+p.Limit)
		next = &s
	}
	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		s := pageURL(r, secure, p.Limit, prev)
		previous = &s
	}
	return next, previous
}

func pageURL(r *http.Request, secure bool, limit, offset int) string {
	u := url.URL{
		Scheme: "http",
		Host:   r.Host,
		Path:   r.URL.Path,
	}
	if secure {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
