package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"membership-portal/internal/audit"
	"membership-portal/internal/auth"
	"membership-portal/internal/config"
	"membership-portal/internal/httpapi"
	"membership-portal/internal/identity"
	"membership-portal/internal/password"
	"membership-portal/internal/rbac"
	"membership-portal/internal/throttle"
	"membership-portal/pkg/logger"
	"membership-portal/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// The pool connects lazily: with Postgres down the process still serves
	// root logins and /healthz reports degraded.
	db, err := utils.NewPostgresPool("pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := utils.HealthCheck(rootCtx, db, 5*time.Second); err != nil {
		log.Warn("postgres unreachable at startup, serving degraded", "err", err)
	}

	// Redis only backs the login throttle; without it logins are unthrottled.
	var limiter auth.Throttle
	if cfg.RedisEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Warn("redis unreachable at startup, login throttling disabled", "err", err)
		} else {
			defer rdb.Close()

			rl, err := throttle.NewRedisLimiter(rdb, cfg.Login.MaxAttempts, cfg.Login.Window)
			if err != nil {
				log.Error("throttle init failed", "err", err)
				os.Exit(1)
			}
			limiter = rl
		}
	} else {
		log.Warn("REDIS_HOST not set, login throttling disabled")
	}

	tokens, err := auth.NewManager(cfg.Session)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	hasher := password.NewHasher(password.DefaultCost)
	root := auth.NewRoot(cfg.Root, hasher)
	if err := root.Warm(); err != nil {
		log.Error("root init failed", "err", err)
		os.Exit(1)
	}

	store := identity.NewPGStore(db)
	resolver := auth.NewResolver(tokens, store, root, cfg.Session.StaleGrace, log)
	svc := auth.NewService(auth.ServiceDeps{
		Tokens:   tokens,
		Store:    store,
		Hasher:   hasher,
		Root:     root,
		Throttle: limiter,
		Audit:    audit.NewService(audit.NewPGRepo(db)),
		Logger:   log,
	})
	evaluator := rbac.LoadUniverse(rootCtx, store, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, db, httpapi.Handlers{Auth: svc, Rbac: evaluator}, resolver)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "root_enabled", root != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
