package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/carebridge-health/televisit-signaling/config"
	"github.com/carebridge-health/televisit-signaling/internal/handlers"
	"github.com/carebridge-health/televisit-signaling/internal/logger"
	"github.com/carebridge-health/televisit-signaling/internal/middleware"
	"github.com/carebridge-health/televisit-signaling/internal/ratelimit"
	"github.com/carebridge-health/televisit-signaling/internal/redis"
	"github.com/carebridge-health/televisit-signaling/internal/signaling"
	"github.com/carebridge-health/televisit-signaling/internal/transport"
	"github.com/carebridge-health/televisit-signaling/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.Environment)

	// Redis backs the rate limiter and webhook dedupe across replicas. A
	// single-replica deployment runs fine on the in-memory fallbacks.
	var rdb *goredis.Client
	if rdb, err = redis.Connect(cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, rate limiting and webhook dedupe fall back to in-memory")
		rdb = nil
	} else {
		defer rdb.Close()
		log.Info().Msg("redis connection established")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	peers := signaling.NewPeerRegistry(cfg.RoomCapacity)
	rooms := signaling.NewRoomRegistry(cfg.RoomCapacity)
	hub := transport.NewHub(log.Logger)
	coord := signaling.NewCoordinator(peers, rooms, hub, cfg.GracePeriod(), log.Logger)
	reaper := signaling.NewReaper(coord, cfg.ReapInterval(), log.Logger)

	limiter := ratelimit.New(rdb, ratelimit.Config{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow(),
		Block:  cfg.RateLimitBlock(),
	}, log.Logger)
	deduper := webhook.NewDeduper(rdb, cfg.WebhookDedupeTTL(), log.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api")
	apiGroup.Use(ratelimit.Middleware(limiter, "general"))
	{
		apiGroup.GET("/visits/:visitId/room",
			middleware.JWTAuth(cfg.JWTSecret),
			handlers.GetVisitRoom(rooms, peers))
	}

	router.POST("/webhooks/:source",
		ratelimit.Middleware(limiter, "webhook"),
		webhook.Receive(deduper, log.Logger))

	wsGroup := router.Group("/ws")
	wsGroup.Use(ratelimit.Middleware(limiter, "signaling"))
	{
		wsGroup.GET("/call",
			middleware.JWTAuth(cfg.JWTSecret),
			transport.Serve(hub, coord, log.Logger))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reaper.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting televisit signaling server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
