package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-passwordless-api/internal/application/issuer"
	"github.com/go-passwordless-api/internal/application/passwordless"
	"github.com/go-passwordless-api/internal/config"
	"github.com/go-passwordless-api/internal/infrastructure/dynamo"
	"github.com/go-passwordless-api/internal/infrastructure/email"
	jwtinfra "github.com/go-passwordless-api/internal/infrastructure/jwt"
	"github.com/go-passwordless-api/internal/infrastructure/redisstore"
	"github.com/go-passwordless-api/internal/infrastructure/sms"
	"github.com/go-passwordless-api/internal/metrics"
	transporthttp "github.com/go-passwordless-api/internal/transport/http"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	metrics.Register()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	sessionRepo := dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions)

	// JWT provider (optional; token exchange degrades to 401s if keys are
	// missing). The issuer takes an untyped nil so it can tell the signer is
	// absent and refuse before writing any session state.
	var jwtProvider *jwtinfra.Provider
	issuerSvc := issuer.NewService(sessionRepo, nil, cfg.RefreshTokenDur)
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
		issuerSvc = issuer.NewService(sessionRepo, p, cfg.RefreshTokenDur)
	} else {
		logger.Warn("jwt provider not available, token exchange disabled", "err", err)
	}

	svcDeps := passwordless.Deps{
		UserRepo: userRepo,
		Dispatcher: passwordless.NewDispatcher(
			email.NewSender(cfg, logger),
			newSMSSender(cfg, logger),
			logger,
		),
		Config: cfg,
		Logger: logger,
	}

	switch cfg.TokenStoreBackend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		// Keep consumed rows around a little past expiry for diagnostics.
		svcDeps.TokenRepo = redisstore.NewCallbackTokenStore(redisClient, cfg.TokenTTL+time.Hour)
	default:
		svcDeps.TokenRepo = dynamo.NewCallbackTokenRepo(dynamoClient, cfg.DynamoTables.CallbackTokens)
	}

	deps := &transporthttp.Deps{
		Passwordless: passwordless.NewService(svcDeps),
		Issuer:       issuerSvc,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "token_store", cfg.TokenStoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// newLogger builds the process logger: colored text in development, JSON
// elsewhere.
func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.AppEnv == "development" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func newSMSSender(cfg *config.Config, logger *slog.Logger) sms.Sender {
	if cfg.TestSuppression {
		return sms.NewLogSender(logger)
	}
	sender, err := sms.NewSNSSender(cfg)
	if err != nil {
		logger.Warn("sns sender not available, falling back to log delivery", "err", err)
		return sms.NewLogSender(logger)
	}
	return sender
}
