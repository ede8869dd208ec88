// Package cache: JSON‑кэш поверх Redis. Кэш не является источником истины:
// вызывающий код логирует ошибки кэша и идёт в хранилище.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/pms-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL используется, если при записи TTL не задан.
const DefaultTTL = 2 * time.Hour

const scanBatch = 100

// Cache хранит значения в Redis в виде JSON.
type Cache struct {
	Db         *redis.Client
	defaultTTL time.Duration
}

// InitServer подключается к Redis и проверяет соединение.
func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		Username:     cfg.RedisUser,
		MaxRetries:   cfg.RedisMaxRetries,
		DialTimeout:  cfg.RedisDialTimeout,
		ReadTimeout:  cfg.RedisTimeout,
		WriteTimeout: cfg.RedisTimeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ttl := cfg.RedisDefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{Db: db, defaultTTL: ttl}, nil
}

// Close закрывает соединение с Redis.
func (c *Cache) Close() error {
	return c.Db.Close()
}

// Get читает значение key в result. found == false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет value под ключом key. ttl <= 0 заменяется TTL по умолчанию.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	const op = "cache.Set"
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.Db.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ.
func (c *Cache) Delete(ctx context.Context, key string) error {
	const op = "cache.Delete"
	if err := c.Db.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeletePattern удаляет все ключи, подходящие под glob‑шаблон pattern,
// и возвращает их количество.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	const op = "cache.DeletePattern"

	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.Db.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, fmt.Errorf("%s: %w", op, err)
		}
		if len(keys) > 0 {
			n, err := c.Db.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("%s: %w", op, err)
			}
			deleted += int(n)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
