package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"roomdesign/internal/design"
	"roomdesign/internal/http/handlers"
	httpapi "roomdesign/internal/http/httpapi"
	"roomdesign/internal/infra"
	"roomdesign/internal/middleware"
	"roomdesign/internal/providers/genai"
	"roomdesign/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := genai.NewClient(genai.Options{
		APIKey:                  cfg.GeminiAPIKey,
		BaseURL:                 cfg.GeminiBaseURL,
		HTTPClient:              &http.Client{Timeout: cfg.GeminiTimeout},
		Logger:                  &logger,
		BreakerMaxFailures:      cfg.BreakerMaxFailures,
		BreakerHalfOpenRequests: uint32(cfg.VisualizationCount),
	})
	if !client.HasCredentials() {
		logger.Warn().Msg("GEMINI_API_KEY is not set; clean and generate requests will fail with 503")
	}

	service := design.NewService(design.Options{
		Client:     client,
		TextModel:  cfg.GeminiTextModel,
		ImageModel: cfg.GeminiImageModel,
		Logger:     &logger,
	})

	sessions := session.NewRegistry(session.Options{
		Generator:          service,
		VisualizationCount: cfg.VisualizationCount,
		TTL:                cfg.SessionTTL,
		Logger:             &logger,
	})
	go sessions.Run(ctx, time.Minute)

	var limiter middleware.Limiter = middleware.NewMemoryLimiter(cfg.RateLimitPerMin, time.Minute)
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	if rdb != nil {
		defer func() {
			_ = rdb.Close()
		}()
		limiter = middleware.NewRedisFixedWindow(rdb, "roomdesign:rl", cfg.RateLimitPerMin, time.Minute)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis rate limiter")
	}

	app := handlers.NewApp(sessions, &logger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:            logger,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		GenerationLimiter: limiter,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
