package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"iserve/internal/api"
	"iserve/internal/auth"
	"iserve/internal/config"
	"iserve/internal/db"
	"iserve/internal/jobs"
	"iserve/internal/pubsub"
	"iserve/internal/schema"
	"iserve/internal/service"
	"iserve/internal/storage"
	"iserve/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		os.Exit(0)
	}
	if len(os.Args) > 1 && os.Args[1] != "serve" {
		log.Fatalf("Unknown command: %s (use 'serve' or 'migrate')", os.Args[1])
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	dbPool, err := db.NewPool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	bus := pubsub.New(rdb, logger)

	hub := ws.NewHub(logger)
	go hub.Run()
	bus.SetWSHub(hub)

	jobServer, jobClient := jobs.NewJobServer(cfg.RedisAddr, dbPool, bus, cfg.StaleDemandAfter, logger)
	go func() {
		if err := jobServer.Start(); err != nil {
			logger.Fatal("Job server failed", zap.Error(err))
		}
	}()
	defer jobServer.Stop()

	store, err := storage.NewLocalStorage(cfg.StorageBaseDir, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	jwtConfig := auth.NewJWTConfig(cfg.JWTSecret, cfg.JWTExpiry)
	schemaComp := schema.NewCompilerWithCache(64)

	userSvc := service.NewUserService(dbPool.Queries, jwtConfig)
	demandSvc := service.NewDemandService(dbPool.Queries, schemaComp, bus)
	responseSvc := service.NewResponseService(dbPool.Queries, schemaComp, bus)
	responseSvc.SetJobClient(jobClient)
	fileSvc := service.NewFileService(dbPool.Queries, store, storage.DefaultPolicy(cfg.MaxFileBytes))
	statsSvc := service.NewStatisticsService(dbPool.Queries)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Timeout middleware, skipped for WebSocket upgrades
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, req)
				return
			}
			middleware.Timeout(60 * time.Second)(next).ServeHTTP(w, req)
		})
	})

	r.Mount("/v1", api.Routes(api.Dependencies{
		DB:         dbPool,
		Bus:        bus,
		Hub:        hub,
		Log:        logger,
		JWT:        jwtConfig,
		Users:      userSvc,
		Demands:    demandSvc,
		Responses:  responseSvc,
		Files:      fileSvc,
		Statistics: statsSvc,
		AuthLimit:  rate.NewLimiter(rate.Limit(cfg.AuthRateRPS), cfg.AuthRateBurst),
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	logger.Info("Starting server", zap.String("addr", cfg.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
