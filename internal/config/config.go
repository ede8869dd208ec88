// Package config предоставляет структуры и функции для загрузки конфигурации
// PMS из YAML‑файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Окружения, в которых запускается сервис.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"dev"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"DATABASE_URL"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	GRPCAuthAddress         string `yaml:"grpc_auth_address" env:"GRPC_AUTH_ADDRESS" env-default:":50051"`
	RemoteAuth              bool   `yaml:"remote_auth" env:"REMOTE_AUTH" env-default:"false"` // bearer‑токены разбирает auth-service по gRPC
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
}

// HTTPServer структура для настройки HTTP сервера.
type HTTPServer struct {
	AddressHTTP     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	AllowedDomains  []string      `yaml:"allowed_domains" env:"ALLOWED_DOMAINS" env-separator:","`
	ForceScriptName string        `yaml:"force_script_name" env:"FORCE_SCRIPT_NAME"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	RedisAddress     string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"127.0.0.1:6379"`
	RedisPassword    string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser        string        `yaml:"user" env:"REDIS_USER"`
	RedisDB          int           `yaml:"db" env:"REDIS_DB" env-default:"1"`
	RedisMaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	RedisDialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	RedisTimeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
	RedisDefaultTTL  time.Duration `yaml:"default_ttl" env:"REDIS_DEFAULT_TTL" env-default:"2h"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	Leeway       time.Duration `yaml:"leeway" env:"TOKEN_LEEWAY" env-default:"0s"`
}

// Load читает конфиг из файла path с переопределением из окружения,
// а при пустом path: только из окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: file %s: %w", op, path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("jwt secret key is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("invalid env: %s", c.Env)
	}
	return nil
}

// IsDev сообщает, запущен ли сервис в режиме разработки.
func (c *Config) IsDev() bool {
	return c.Env != EnvProd
}

// AllowedOrigins строит список разрешённых CORS origin'ов по доменам:
// сам домен и его поддомены по http и https.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.AllowedDomains)*4)
	for _, d := range c.AllowedDomains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		origins = append(origins,
			"https://"+d,
			"http://"+d,
			"https://*."+d,
			"http://*."+d,
		)
	}
	return origins
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"GRPCAuthAddress: %s\n"+
			"RemoteAuth: %t\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  MaxRetries: %d\n"+
			"  DefaultTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  AllowedDomains: %v\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"  Leeway: %s\n",
		c.Env,
		c.MigrationsPath,
		c.GRPCAuthAddress,
		c.RemoteAuth,
		c.RedisAddress,
		c.RedisDB,
		c.RedisMaxRetries,
		c.RedisDefaultTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AllowedDomains,
		c.TokenTTL,
		c.Leeway,
	)
}
