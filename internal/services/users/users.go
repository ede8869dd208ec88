// Package users содержит бизнес-логику просмотра и изменения профилей
// пользователей с кешированием в Redis.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/storage"
)

var (
	// ErrNotFound возвращается, если профиль не найден.
	ErrNotFound = errors.New("Not found.")
	// ErrForbidden возвращается, если изменять профиль может только владелец или администратор.
	ErrForbidden = errors.New("You do not have permission to perform this action.")
)

const listPattern = "users:list:*"

// Repository определяет методы хранилища пользователей.
type Repository interface {
	FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, f models.UserFilter) (*models.UserPage, error)
	Autocomplete(ctx context.Context, search string, limit int) ([]models.AutocompleteItem, error)
	Save(ctx context.Context, actor *models.User, u *models.User) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
}

// ProfilePage: страница профилей с общим количеством.
type ProfilePage struct {
	Profiles []models.Profile `json:"profiles"`
	Count    int              `json:"count"`
}

// Service реализует просмотр, поиск и обновление профилей.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func listKey(f models.UserFilter) string {
	return fmt.Sprintf("users:list:%d:%d:%s", f.Limit, f.Offset, f.Search)
}

// List возвращает страницу профилей, используя кеш или хранилище.
func (s *Service) List(ctx context.Context, f models.UserFilter) (*ProfilePage, error) {
	const op = "users.List"

	key := listKey(f)
	var cached ProfilePage
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	page, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := &ProfilePage{Profiles: make([]models.Profile, 0, len(page.Users)), Count: page.Count}
	for _, u := range page.Users {
		result.Profiles = append(result.Profiles, u.Profile())
	}
	s.cacheSet(ctx, key, result)
	return result, nil
}

// Autocomplete возвращает подсказки по строке поиска.
func (s *Service) Autocomplete(ctx context.Context, search string) ([]models.AutocompleteItem, error) {
	const op = "users.Autocomplete"
	items, err := s.repo.Autocomplete(ctx, search, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Get возвращает профиль по UUID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	const op = "users.Get"

	key := userKey(id)
	var cached models.Profile
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	u, err := s.repo.FindByUUID(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p := u.Profile()
	s.cacheSet(ctx, key, p)
	return &p, nil
}

// Update частично обновляет профиль. Изменять профиль может сам пользователь
// или администратор. Кеш профиля и списков инвалидируется.
func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	const op = "users.Update"

	u, err := s.repo.FindByUUID(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actor == nil || (actor.ID != u.ID && !actor.IsAdmin) {
		return nil, ErrForbidden
	}

	upd.Apply(u)
	if err := s.repo.Save(ctx, actor, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user profile updated", slog.String("uuid", id.String()), slog.Int64("actor_id", actor.ID))

	s.invalidate(ctx, id)
	p := u.Profile()
	return &p, nil
}

// InvalidateLists сбрасывает закешированные страницы списка пользователей.
// Вызывается после создания пользователя.
func (s *Service) InvalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.DeletePattern(ctx, listPattern); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("pattern", listPattern), sl.Err(err))
	}
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userKey(id)); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", userKey(id)), sl.Err(err))
	}
	s.InvalidateLists(ctx)
}

func (s *Service) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, v, 0); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
}
