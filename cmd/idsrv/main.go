// Command idsrv hosts the sign-in and sign-out pages of the identity server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/idsrv/modules/login"
	"github.com/dmitrymomot/idsrv/modules/login/views"
	"github.com/dmitrymomot/idsrv/pkg/authn"
	"github.com/dmitrymomot/idsrv/pkg/client"
	"github.com/dmitrymomot/idsrv/pkg/clientip"
	"github.com/dmitrymomot/idsrv/pkg/config"
	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/csrf"
	"github.com/dmitrymomot/idsrv/pkg/external"
	"github.com/dmitrymomot/idsrv/pkg/httpserver"
	"github.com/dmitrymomot/idsrv/pkg/i18n"
	"github.com/dmitrymomot/idsrv/pkg/localusers"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/metrics"
	"github.com/dmitrymomot/idsrv/pkg/pg"
	"github.com/dmitrymomot/idsrv/pkg/redis"
	"github.com/dmitrymomot/idsrv/pkg/requestid"
	"github.com/dmitrymomot/idsrv/pkg/signin"
	"github.com/dmitrymomot/idsrv/pkg/throttle"
	"github.com/dmitrymomot/idsrv/pkg/tracing"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		slog.Error("failed to load configuration", logger.Error(err))
		return 1
	}

	log, err := logger.NewFromConfig(cfg.Log,
		logger.WithTraceContext(),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	if err != nil {
		slog.Error("invalid logger configuration", logger.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("idsrv stopped with error", logger.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			log.Warn("tracing shutdown failed", logger.Error(err))
		}
	}()

	var checks []httpserver.Check

	clients, closeClients, err := openClientStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeClients()
	checks = append(checks, clients.checks...)

	limiter, closeThrottle, throttleChecks, err := openThrottle(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeThrottle()
	checks = append(checks, throttleChecks...)

	users, err := localusers.LoadFile(cfg.UsersFile, localusers.WithLogger(log))
	if err != nil {
		return fmt.Errorf("local users: %w", err)
	}

	providers, err := openProviders(cfg.ProvidersFile)
	if err != nil {
		return err
	}

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return fmt.Errorf("cookies: %w", err)
	}
	signins, err := signin.NewStore(cookies, cfg.SignIn, signin.WithLogger(log))
	if err != nil {
		return fmt.Errorf("sign-in store: %w", err)
	}
	guard, err := csrf.New(cookies, cfg.CSRF, csrf.WithLogger(log))
	if err != nil {
		return fmt.Errorf("csrf: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []login.Option{
		login.WithClientStore(clients.store),
		login.WithProviders(providers),
		login.WithLogger(log),
		login.WithMetrics(metrics.New(reg)),
	}
	if limiter != nil {
		opts = append(opts, login.WithThrottle(limiter))
	}
	if cfg.MessagesFile != "" {
		messages, err := i18n.LoadFile(cfg.MessagesFile, i18n.WithLogger(log))
		if err != nil {
			return fmt.Errorf("messages: %w", err)
		}
		log.Info("messages loaded", slog.Any("languages", messages.Languages()))
		opts = append(opts, login.WithTranslator(messages))
	}

	svc, err := login.New(cfg.Login, users, cookies, signins, guard, views.Default(), opts...)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	ips := clientip.NewFromConfig(cfg.ClientIP)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, ips.Middleware, middleware.Recoverer)
	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(log, cfg.ReadyTimeout, checks...))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if cfg.DevRoutes {
		log.Warn("development flow-start routes enabled")
		r.Mount("/dev", devRoutes(signins, cfg.Login.BasePath, log))
	}

	mount := cfg.Login.BasePath
	if mount == "" {
		mount = "/"
	}
	r.Mount(mount, svc.Handle())

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}

type clientStore struct {
	store  authn.ClientStore
	checks []httpserver.Check
}

// openClientStore prefers PostgreSQL when configured and falls back to the
// YAML catalogue. Either way lookups go through the in-process cache.
func openClientStore(ctx context.Context, cfg appConfig, log *slog.Logger) (clientStore, func(), error) {
	if !cfg.Postgres.Enabled() {
		mem, err := client.LoadFile(cfg.ClientsFile)
		if err != nil {
			return clientStore{}, nil, fmt.Errorf("clients: %w", err)
		}
		log.Info("client catalogue loaded", slog.String("file", cfg.ClientsFile), slog.Int("clients", mem.Len()))
		return clientStore{store: client.NewCachedStore(mem, cfg.ClientCacheTTL, client.WithCacheCapacity(cfg.ClientCacheCap))}, func() {}, nil
	}

	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return clientStore{}, nil, err
	}
	if err := pg.Migrate(ctx, pool, cfg.Postgres, client.Migrations(), log); err != nil {
		pool.Close()
		return clientStore{}, nil, err
	}
	return clientStore{
		store:  client.NewCachedStore(client.NewPostgresStore(pool), cfg.ClientCacheTTL, client.WithCacheCapacity(cfg.ClientCacheCap)),
		checks: []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}},
	}, pool.Close, nil
}

// openThrottle uses Redis when configured so attempts are counted across
// replicas; otherwise counts are kept in memory.
func openThrottle(ctx context.Context, cfg appConfig) (*throttle.Limiter, func(), []httpserver.Check, error) {
	if !cfg.Throttle.Enabled {
		return nil, func() {}, nil, nil
	}

	if !cfg.Redis.Enabled() {
		store := throttle.NewMemoryStore()
		limiter, err := throttle.New(store, cfg.Throttle)
		if err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("throttle: %w", err)
		}
		return limiter, store.Close, nil, nil
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	closeRedis := func() { _ = rdb.Close() }
	limiter, err := throttle.New(throttle.NewRedisStore(rdb, "idsrv:throttle:"), cfg.Throttle)
	if err != nil {
		closeRedis()
		return nil, nil, nil, fmt.Errorf("throttle: %w", err)
	}
	return limiter, closeRedis, []httpserver.Check{{Name: "redis", Fn: redis.Healthcheck(rdb)}}, nil
}

func openProviders(path string) (*external.Registry, error) {
	if path == "" {
		return external.NewRegistry()
	}
	cfgs, err := config.LoadYAML[[]external.ProviderConfig](path)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	providers, err := external.NewFromConfig(cfgs)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	reg, err := external.NewRegistry(providers...)
	if err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	return reg, nil
}
