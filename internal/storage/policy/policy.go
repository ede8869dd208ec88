// Package policy содержит сквозные правила, которые хранилище применяет к
// записи в момент сохранения: временные метки, авторство изменений, slug,
// единственность записи, отметка отключения и проверка статуса.
//
// Каждое правило: отдельная функция, правила собираются через Compose.
// Автор изменения передаётся явно в Write, без глобального состояния.
package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/pms-backend/internal/lib/slug"
	"github.com/magabrotheeeer/pms-backend/internal/models"
)

var (
	// ErrSingleton возвращается при попытке создать вторую запись singleton‑сущности.
	ErrSingleton = errors.New("singleton violation")
	// ErrInvalidStatus возвращается для статуса вне models.StatusChoices.
	ErrInvalidStatus = errors.New("invalid status")
)

// Write описывает контекст одной операции записи.
type Write struct {
	Now      time.Time
	Actor    *models.User // nil для анонимных и системных операций
	Creating bool
}

// Policy: правило, применяемое к записи rec перед сохранением.
type Policy[T any] func(ctx context.Context, w Write, rec T) error

// Compose объединяет правила, применяя их по порядку до первой ошибки.
func Compose[T any](policies ...Policy[T]) Policy[T] {
	return func(ctx context.Context, w Write, rec T) error {
		for _, p := range policies {
			if err := p(ctx, w, rec); err != nil {
				return err
			}
		}
		return nil
	}
}

// Timestamps выставляет created_at при создании и updated_at при каждой записи.
func Timestamps[T any](fields func(T) (createdAt, updatedAt *time.Time)) Policy[T] {
	return func(_ context.Context, w Write, rec T) error {
		createdAt, updatedAt := fields(rec)
		if w.Creating {
			*createdAt = w.Now
		}
		*updatedAt = w.Now
		return nil
	}
}

// Audit проставляет автора создания и последнего изменения, если автор известен.
func Audit[T any](fields func(T) (createdBy, updatedBy **int64)) Policy[T] {
	return func(_ context.Context, w Write, rec T) error {
		if w.Actor == nil {
			return nil
		}
		createdBy, updatedBy := fields(rec)
		id := w.Actor.ID
		if w.Creating {
			*createdBy = &id
		}
		*updatedBy = &id
		return nil
	}
}

// Slug заполняет пустой slug уникальным значением, построенным из source.
func Slug[T any](fields func(T) (source string, dst *string), maxLen int, exists slug.ExistsFunc) Policy[T] {
	return func(ctx context.Context, _ Write, rec T) error {
		source, dst := fields(rec)
		if *dst != "" {
			return nil
		}
		s, err := slug.Unique(ctx, source, maxLen, exists)
		if err != nil {
			return err
		}
		*dst = s
		return nil
	}
}

// Singleton запрещает создание записи, если сущность name уже существует.
func Singleton[T any](name string, count func(ctx context.Context) (int, error)) Policy[T] {
	return func(ctx context.Context, w Write, _ T) error {
		if !w.Creating {
			return nil
		}
		n, err := count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: Only one instance of %s is allowed.", ErrSingleton, name)
		}
		return nil
	}
}

// Disable ведёт отметку об отключении: дата и автор выставляются при первом
// отключении и сбрасываются при повторном включении.
func Disable[T any](fields func(T) *models.Disabled) Policy[T] {
	return func(_ context.Context, w Write, rec T) error {
		d := fields(rec)
		if !d.Disabled {
			d.DisabledDate = nil
			d.DisabledBy = nil
			d.DisabledReason = ""
			return nil
		}
		if d.DisabledDate == nil {
			now := w.Now
			d.DisabledDate = &now
			if w.Actor != nil {
				id := w.Actor.ID
				d.DisabledBy = &id
			}
		}
		return nil
	}
}

// ValidStatus отклоняет запись со статусом вне models.StatusChoices.
// Пустой статус заменяется на Pending.
func ValidStatus[T any](field func(T) *models.Status) Policy[T] {
	return func(_ context.Context, _ Write, rec T) error {
		s := field(rec)
		if *s == "" {
			*s = models.StatusPending
		}
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, *s)
		}
		return nil
	}
}
