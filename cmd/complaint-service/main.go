package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"complaint-service/internal/ai"
	"complaint-service/internal/auth"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/media"
	"complaint-service/internal/realtime"
	"complaint-service/internal/repository"
	"complaint-service/internal/service"
	"complaint-service/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	blobs, err := storage.NewDiskBlobStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare image storage")
	}

	aiClient, err := ai.NewClient(ctx, cfg.AI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create model client")
	}

	complaintRepo := repository.NewComplaintRepository(database)
	employeeRepo := repository.NewEmployeeRepository(database)

	hub := realtime.NewHub(log)
	var publisher realtime.Publisher = hub
	if cfg.Realtime.Source == config.RealtimeSourcePostgres {
		// The notify trigger announces every write, including our own.
		publisher = realtime.Discard
		go realtime.NewPGListener(cfg.DB.DSN, db.ChangeChannel, complaintRepo, hub, log).Run(ctx)
	}

	images := media.NewValidator(cfg.Storage.MaxImageBytes)
	complaintService := service.NewComplaintService(
		complaintRepo,
		blobs,
		aiClient,
		aiClient,
		images,
		publisher,
		log,
	)
	authService := service.NewAuthService(
		employeeRepo,
		auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL),
		cfg.Auth.SignupEnabled,
		log,
	)

	var submissionLimit gin.HandlerFunc
	if cfg.RateLimitEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		counter := middleware.NewRedisCounter(rdb, "complaint-service:submissions")
		submissionLimit = middleware.SubmissionLimit(counter, cfg.Limits.SubmissionsPerDay, log)
	}

	handler := httphandler.NewHandler(complaintService, authService, hub, func(ctx context.Context) error {
		return db.HealthCheck(ctx, database)
	}, log)
	router := httphandler.NewRouter(handler, httphandler.RouterDeps{
		Auth:            middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret)),
		SubmissionLimit: submissionLimit,
		Media:           blobs.FileSystem(),
		MaxUploadBytes:  images.MaxBytes(),
	}, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
		// Requests end with the process so open dashboard streams close.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info().
			Str("addr", addr).
			Str("realtime_source", cfg.Realtime.Source).
			Bool("rate_limit", cfg.RateLimitEnabled()).
			Msg("starting complaint service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
