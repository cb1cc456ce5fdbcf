package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/disfake/internal/config"
	"github.com/weiawesome/disfake/internal/fixture"
	"github.com/weiawesome/disfake/internal/generator"
	"github.com/weiawesome/disfake/internal/handler"
	"github.com/weiawesome/disfake/internal/idgen"
	"github.com/weiawesome/disfake/internal/schema"
	"github.com/weiawesome/disfake/internal/service"
	pkgconfig "github.com/weiawesome/disfake/pkg/config"
	pkglog "github.com/weiawesome/disfake/pkg/log"
	"github.com/weiawesome/disfake/pkg/pubsub"
	"github.com/weiawesome/disfake/pkg/storage"
)

func main() {
	// Load configuration; edits to the file reload the log level
	cfg, err := config.LoadAndWatch(pkgconfig.GetEnv("DISFAKE_CONFIG_PATH", "./config"), "config", func(c *config.Config, err error) {
		l := pkglog.L()
		if err != nil {
			l.Warn().Err(err).Msg("ignoring config change")
			return
		}
		pkglog.SetLevel(c.Log.Level)
		l.Info().Str("level", c.Log.Level).Msg("log level reloaded")
	})
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "disfake",
	})
	logger := pkglog.L()

	policy, err := generator.ParsePolicy(cfg.Generator.DefaultPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid default policy")
	}

	// Initialize Snowflake generator
	snowflake, err := idgen.NewSnowflake(cfg.Snowflake.Worker, cfg.Snowflake.Process)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create snowflake generator")
	}
	logger.Info().Int64("worker", cfg.Snowflake.Worker).Int64("process", cfg.Snowflake.Process).Msg("snowflake generator initialized")

	// Initialize token generators
	registry, err := idgen.NewRegistry(snowflake, idgen.TokenConfig{
		NanoIDSize:     cfg.Tokens.NanoIDSize,
		NanoIDAlphabet: cfg.Tokens.NanoIDAlphabet,
		CUID2Length:    cfg.Tokens.CUID2Length,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create id generators")
	}
	sessionKind, err := idgen.ParseKind(cfg.Tokens.SessionKind)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid session id kind")
	}
	sessionTokens, err := registry.Get(sessionKind)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid session id kind")
	}

	// Initialize fixture factory
	factory, err := fixture.NewFactory(fixture.Options{
		Engine:    generator.NewSeeded(cfg.Generator.Seed),
		Resolver:  schema.NewResolver(),
		Snowflake: snowflake,
		Tokens:    sessionTokens,
		Store:     fixture.NewStore(),
		Config: fixture.Config{
			HeartbeatInterval: cfg.Gateway.HeartbeatInterval,
			ResumeGatewayURL:  cfg.Gateway.ResumeURL,
			ChannelOffset:     cfg.Gateway.ChannelOffset,
			JoinDelay:         cfg.Gateway.JoinDelay,
		},
		Logger: logger.With().Str("component", "fixture").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create fixture factory")
	}
	logger.Info().Int64("seed", cfg.Generator.Seed).Str("policy", policy.String()).Msg("fixture factory initialized")

	// Initialize export storage
	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create storage")
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("storage initialized")

	// Initialize event bus
	bus, err := pubsub.NewBus(cfg.PubSub)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pubsub")
	}
	var publisher pubsub.Publisher
	if bus != nil {
		defer bus.Close()
		publisher = bus
	}
	logger.Info().Str("driver", cfg.PubSub.Driver).Msg("pubsub initialized")

	// Initialize service
	fixtureService := service.NewFixtureService(factory, registry, store, publisher, service.Config{
		DefaultPolicy: policy,
		MaxMembers:    cfg.Generator.MaxMembers,
		URLExpiry:     cfg.Tokens.URLExpiry,
	})

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))
	handler.NewHandler(fixtureService).RegisterRoutes(r)
	handler.NewWSHandler(fixtureService).RegisterRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		logger.Info().Str("addr", addr).Msg("disfake starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down disfake")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("disfake stopped")
}
