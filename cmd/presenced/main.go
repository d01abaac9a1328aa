package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/lumenplay/presenced/config"
	"github.com/lumenplay/presenced/internal/bootstrap"
	httpx "github.com/lumenplay/presenced/internal/http"
	"github.com/lumenplay/presenced/internal/presence"
)

func main() {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.InitLogger(cfg.IsDev)
	if err := run(context.Background(), &cfg, logger); err != nil {
		logger.Error("fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.ValidateConfig(cfg); err != nil {
		return err
	}

	logger.InfoContext(ctx, "presence gateway starting",
		"domain", cfg.XMPP.Domain,
		"dev", cfg.IsDev,
		"mirror_enabled", cfg.Redis.MirrorEnabled,
	)

	db, err := bootstrap.ConnectDB(cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()

	var redisClient redis.UniversalClient
	if cfg.Redis.MirrorEnabled {
		redisClient, err = bootstrap.ConnectRedis(cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close redis failed", "error", cerr)
			}
		}()
	}

	services, err := bootstrap.BuildServices(ctx, cfg, db, redisClient, logger)
	if err != nil {
		return err
	}
	defer services.Close()

	wsHandler := presence.WSHandler(services.Hub, presence.WSOptions{
		MaxFrameBytes: cfg.XMPP.MaxFrameBytes,
		WriteTimeout:  cfg.XMPP.WriteTimeout,
		Logger:        logger,
	})

	server := bootstrap.NewHTTPServer(bootstrap.HTTPServerOptions{
		HTTP:   cfg.HTTP,
		Logger: logger,
		Services: httpx.RouterServices{
			Push:        services.Hub,
			WS:          wsHandler,
			Mirror:      services.Mirror,
			InternalKey: cfg.HTTP.InternalKey,
			Logger:      logger,
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bootstrap.ServeHTTP(server, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Close live streams first so clients see a clean stream close
		// instead of a dropped socket, then drain the listener.
		shutdownCtx := context.WithoutCancel(gctx)
		services.Hub.Shutdown(shutdownCtx)
		return bootstrap.ShutdownHTTPServer(shutdownCtx, server, cfg.HTTP.ShutdownGrace, logger)
	})

	return g.Wait()
}
