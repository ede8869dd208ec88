// Package slug строит уникальные slug'и для сущностей с полем slug.
package slug

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

const separator = "-"

// ExistsFunc сообщает, занят ли slug другой записью.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique возвращает slug для value длиной не более maxLen (0: без ограничения),
// не занятый по мнению exists. При коллизии добавляет суффиксы -2, -3 и т.д.
func Unique(ctx context.Context, value string, maxLen int, exists ExistsFunc) (string, error) {
	const op = "slug.Unique"

	original := strings.Trim(truncate(slug.Make(value), maxLen), separator)
	candidate := original

	for next := 2; ; next++ {
		if candidate != "" {
			taken, err := exists(ctx, candidate)
			if err != nil {
				return "", fmt.Errorf("%s: %w", op, err)
			}
			if !taken {
				return candidate, nil
			}
		}
		end := fmt.Sprintf("%s%d", separator, next)
		base := original
		if maxLen > 0 && len(base)+len(end) > maxLen {
			base = strings.Trim(truncate(base, maxLen-len(end)), separator)
		}
		candidate = base + end
	}
}

func truncate(s string, maxLen int) string {
	if maxLen > 0 && len(s) > maxLen {
		return s[:maxLen]
	}
	return s
}
