package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	api "github.com/mauth-dev/mauth/internal/api/http"
	"github.com/mauth-dev/mauth/internal/api/http/handler"
	"github.com/mauth-dev/mauth/internal/api/http/middleware"
	"github.com/mauth-dev/mauth/internal/config"
	"github.com/mauth-dev/mauth/internal/email"
	"github.com/mauth-dev/mauth/internal/keys"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/repository/postgres"
	redisrepo "github.com/mauth-dev/mauth/internal/repository/redis"
	"github.com/mauth-dev/mauth/internal/server"
	"github.com/mauth-dev/mauth/internal/service"
	"github.com/mauth-dev/mauth/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	masterKey, err := cfg.DecodedMasterKey()
	if err != nil {
		logger.Fatal("failed to decode master key", "error", err)
	}
	custody, err := keys.NewCustody(masterKey)
	if err != nil {
		logger.Fatal("failed to initialize key custody", "error", err)
	}

	db, err := postgres.NewConection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	clientRepo := postgres.NewClientRepository(db)
	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	linkStore := redisrepo.NewMagicLinkStore(redisClient)
	limiter := redisrepo.NewRateLimiter(redisClient)
	tokenManager := token.NewJWT()

	sender, err := email.NewSMTPSender(cfg.SMTP, logger)
	if err != nil {
		logger.Fatal("failed to create smtp sender", "error", err)
	}

	clientService := service.NewClient(clientRepo, custody, logger)
	magicLinkService := service.NewMagicLink(clientRepo, userRepo, linkStore, logger)
	tokenService := service.NewTokenService(tokenManager, custody, clientRepo, userRepo, refreshTokenRepo, logger)
	jwksService := service.NewJWKS(clientRepo, logger)

	authHandler := handler.NewAuth(magicLinkService, tokenService, sender, cfg.BaseURL, cfg.IsProduction(), logger)
	clientHandler := handler.NewClient(clientService, logger)
	jwksHandler := handler.NewJWKS(jwksService, logger)
	apiKeyMiddleware := middleware.NewAPIKey(clientService, logger)
	rateLimitMiddleware := middleware.NewRateLimit(limiter, logger)

	router := api.NewRouter(cfg, authHandler, clientHandler, jwksHandler, apiKeyMiddleware, rateLimitMiddleware, logger)
	httpServer := server.NewHTTPServer(router.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl server.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server on", "address", httpServer.Address())
		if err := httpServer.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
