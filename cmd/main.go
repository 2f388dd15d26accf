package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	httpapi "github.com/immxrtalbeast/verbis/internal/api/http"
	"github.com/immxrtalbeast/verbis/internal/config"
	"github.com/immxrtalbeast/verbis/internal/provider"
	"github.com/immxrtalbeast/verbis/internal/relay"
	"github.com/immxrtalbeast/verbis/internal/repository"
	"github.com/immxrtalbeast/verbis/internal/repository/model"
	"github.com/immxrtalbeast/verbis/internal/service"
	"github.com/immxrtalbeast/verbis/internal/worker"
	"github.com/immxrtalbeast/verbis/lib/logger/sl"
	"github.com/immxrtalbeast/verbis/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	if cfg.Auth.JWTSecret == "" {
		log.Error("jwt secret is not configured")
		os.Exit(1)
	}
	if cfg.Provider.APIKey == "" {
		log.Warn("provider api key is empty, translation calls will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connectDatabase(cfg.Database)
	if err != nil {
		log.Error("failed to connect database", sl.Err(err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = connectRedis(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect redis", sl.Err(err))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	cache, err := setupCache(cfg, db, redisClient)
	if err != nil {
		log.Error("failed to set up translation cache", sl.Err(err))
		os.Exit(1)
	}
	log.Info("translation cache ready", slog.String("driver", cfg.Cache.Driver))

	roomRepo := repository.NewPostgresRoomRepository(db)
	participantRepo := repository.NewPostgresParticipantRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	translator := provider.NewOpenAI(log, provider.Options{
		APIKey:      cfg.Provider.APIKey,
		BaseURL:     cfg.Provider.BaseURL,
		ChatModel:   cfg.Provider.ChatModel,
		STTModel:    cfg.Provider.STTModel,
		TTSModel:    cfg.Provider.TTSModel,
		Timeout:     cfg.Provider.Timeout,
		MaxFailures: cfg.Provider.Breaker.MaxFailures,
		OpenTimeout: cfg.Provider.Breaker.OpenTimeout,
	})

	roomService := service.NewRoomService(roomRepo, participantRepo, userRepo, log)
	userService := service.NewUserService(userRepo, log, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	translationService := service.NewTranslationService(cache, translator, log)
	speechService := service.NewSpeechService(translator, log)

	hub := relay.NewHub(log)
	rel := relay.New(log, hub, roomService, translationService, relay.Options{
		MaxConcurrent: cfg.Relay.MaxConcurrent,
		SendBuffer:    cfg.Relay.SendBuffer,
		MaxTextLength: cfg.Relay.MaxTextLength,
	})

	router := httpapi.SetupRouter(cfg.HTTP.CORSOrigins, userService, httpapi.Controllers{
		Users:        httpapi.NewUserController(userService, log),
		Rooms:        httpapi.NewRoomController(roomService, log),
		Translations: httpapi.NewTranslationController(translationService, log),
		Speech:       httpapi.NewSpeechController(speechService, log),
		Realtime:     httpapi.NewRealtimeController(rel, log, cfg.HTTP.CORSOrigins),
	})

	purge := worker.NewCachePurgeHandler(cache, cfg.Cache.Retention, log)
	var workerServer *worker.Server
	if cfg.Redis.Addr != "" {
		workerServer = worker.NewServer(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, purge, cfg.Cache.PurgeInterval, log)
		if err := workerServer.Start(); err != nil {
			log.Error("failed to start worker", sl.Err(err))
			os.Exit(1)
		}
	} else {
		go worker.NewJanitor(purge, cfg.Cache.PurgeInterval, log).Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting application", slog.String("addr", cfg.HTTP.Address), slog.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", sl.Err(err))
	}
	// websocket connections are hijacked, so Shutdown does not wait for them.
	rel.Shutdown()
	if workerServer != nil {
		workerServer.Shutdown()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("application stopped")
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.Room{},
		&model.Participant{},
		&model.TranslationCacheEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func setupCache(cfg *config.Config, db *gorm.DB, client *redis.Client) (repository.TranslationCache, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverPostgres:
		return repository.NewPostgresTranslationCache(db), nil
	case config.CacheDriverRedis:
		if client == nil {
			return nil, errors.New("cache driver redis requires redis.addr")
		}
		return repository.NewRedisTranslationCache(client, cfg.Redis.KeyPrefix, cfg.Cache.Retention), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
