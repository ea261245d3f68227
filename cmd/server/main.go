package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/app"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/auth"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/config"
	"github.com/fabionascimentodev/Bahia-Driver-sub001/internal/handler"
)

const adminTokenTTL = 12 * time.Hour

func main() {
	// Load configuration.
	cfg := config.Load()
	log := app.NewLogger(cfg.Log, "reconciliation-api")

	jwtService, err := auth.NewJWTService(cfg.Auth.JWTSecret, adminTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infra, err := app.NewInfra(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer infra.Close()

	server := wireServer(infra, jwtService, cfg)

	// Start server in goroutine.
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(infra *app.Infra, jwtService *auth.JWTService, cfg *config.Config) *http.Server {
	reconciler := infra.Reconciler(cfg.Reconcile)
	reconciliationHandler := handler.NewReconciliationHandler(reconciler, infra.RunCache())

	var redisClient redis.Cmdable
	if infra.Redis != nil {
		redisClient = infra.Redis
	}

	router := app.NewRouter(app.RouterDeps{
		ReconciliationHandler: reconciliationHandler,
		JWTService:            jwtService,
		RedisClient:           redisClient,
		NewRelicApp:           infra.NewRelic,
		Logger:                infra.Log,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
