package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"card-advisor/internal/catalog"
	"card-advisor/internal/config"
	"card-advisor/internal/db"
	apihttp "card-advisor/internal/http"
	"card-advisor/internal/llm"
	"card-advisor/internal/repository"
	"card-advisor/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	cardRepo := repository.NewPgCardRepository(pool)

	if cfg.SeedCatalog {
		if err := catalog.Seed(ctx, cardRepo, logger); err != nil {
			logger.Fatal("seed catalog", zap.Error(err))
		}
	}

	var (
		tokenStore   service.RefreshTokenStore
		profileStore service.ProfileStore
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			profileStore = service.NewRedisProfileStore(redisClient)
		}
		cancel()
	}
	if profileStore == nil {
		profileStore = service.NewMemoryProfileStore()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	contextSvc := service.NewBasicContextService(messageRepo)
	messageSvc := service.NewMessageService(messageRepo)
	userSvc := service.NewUserService(userRepo, logger)
	advisorSvc := service.NewAdvisorService(
		llmClient,
		cardRepo,
		messageSvc,
		profileStore,
		contextSvc,
		service.AdvisorPromptBuilder{},
		service.AdvisorResponseParser{},
		service.DefaultRecommendEngine,
		logger,
	)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	chatHandler := apihttp.NewChatHandler(logger, sessionRepo, profileStore, messageSvc, advisorSvc)
	cardHandler := apihttp.NewCardHandler(logger, cardRepo)
	healthHandler := apihttp.NewHealthHandler(pool)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, chatHandler, cardHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
