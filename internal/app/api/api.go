package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/magabrotheeeer/pms-backend/internal/cache"
	"github.com/magabrotheeeer/pms-backend/internal/config"
	"github.com/magabrotheeeer/pms-backend/internal/grpc/client"
	"github.com/magabrotheeeer/pms-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/pms-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/pms-backend/internal/lib/sl"
	"github.com/magabrotheeeer/pms-backend/internal/metrics"
	"github.com/magabrotheeeer/pms-backend/internal/migrations"
	"github.com/magabrotheeeer/pms-backend/internal/services/auth"
	"github.com/magabrotheeeer/pms-backend/internal/services/users"
	"github.com/magabrotheeeer/pms-backend/internal/storage"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
	authClient *client.AuthClient
}

// New подключает хранилище, применяет миграции и собирает HTTP-сервер.
// Redis необязателен: без него сервис работает без кеша.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.api.New"

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.CheckDatabaseReady(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}

	var userCache users.Cache
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("redis unavailable, running without cache", sl.Err(err))
	} else {
		app.cache = cacheRedis
		userCache = cacheRedis
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, jwt.WithLeeway(cfg.Leeway))
	usersService := users.NewService(db, userCache, logger)
	authService := auth.NewService(db, jwtMaker, auth.WithListInvalidator(usersService))

	var resolver middlewarectx.TokenResolver = authService
	if cfg.RemoteAuth {
		authClient, err := client.NewAuthClient(cfg.GRPCAuthAddress)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.authClient = authClient
		resolver = authClient
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:           authService,
		Users:          usersService,
		Resolver:       resolver,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		AllowedOrigins: allowedOrigins(cfg),
		Secure:         !cfg.IsDev(),
	})

	var handler http.Handler = router
	if cfg.ForceScriptName != "" {
		root := chi.NewRouter()
		root.Mount(cfg.ForceScriptName, router)
		handler = root
	}

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      handler,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// allowedOrigins в режиме разработки без настроенных доменов разрешает любой origin.
func allowedOrigins(cfg *config.Config) []string {
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 && cfg.IsDev() {
		return []string{"*"}
	}
	return origins
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.authClient != nil {
		if err := a.authClient.Close(); err != nil {
			a.logger.Warn("failed to close auth client", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
