package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"encodingdb-backend/config"
	"encodingdb-backend/database"
	"encodingdb-backend/ingest"
	"encodingdb-backend/kvstore"
	"encodingdb-backend/middlewares"
	"encodingdb-backend/routes"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database.Connect(cfg)
	if err := database.Ping(); err != nil {
		log.WithField("error", err).Fatal("database unreachable")
	}
	if err := database.Migrate(); err != nil {
		log.WithField("error", err).Fatal("migration failed")
	}

	// Ephemeral shared state: process-local by default, Redis when several
	// instances must share replay/token/quota guarantees.
	var store kvstore.Store
	if cfg.RedisAddr != "" {
		r := kvstore.NewRedis(&redis.Options{Addr: cfg.RedisAddr})
		if err := r.Ping(context.Background()); err != nil {
			log.WithField("error", err).Fatal("redis unreachable")
		}
		store = r
		log.WithField("addr", cfg.RedisAddr).Info("using redis kvstore")
	} else {
		store = kvstore.NewMemory()
	}

	gate := middlewares.NewDiskGate(cfg.DataPath, cfg.MinFreeDiskBytes, cfg.GateInterval)
	gate.Start(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Timestamp, X-Signature, X-Ingest-Token, X-Ingest-Nonce, " + cfg.APIKeyHeader,
	}))
	app.Use(middlewares.GlobalLimiter(cfg))

	routes.Register(app, routes.Deps{
		Cfg:      cfg,
		Gate:     gate,
		Scorer:   ingest.NewScorer(),
		Tokens:   ingest.NewTokenService(store, cfg.TokenTTL, cfg.PowDifficulty),
		Verifier: ingest.NewSignatureVerifier(store, cfg.HMACSecret, cfg.MaxSkew),
		Quota:    ingest.NewQuotaTracker(store, cfg.DefaultKeyPerMin, cfg.DefaultKeyPerDay),
	})

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			log.WithField("error", err).Error("server shutdown failed")
		}
	}()

	log.WithFields(log.Fields{"port": cfg.Port, "mode": cfg.Mode}).Info("starting ingest server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithField("error", err).Fatal("server stopped")
	}

	gate.Wait()
	log.Info("shutdown complete")
}
