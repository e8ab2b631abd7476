package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/api/http/handler"
	"github.com/mauth-dev/mauth/internal/api/http/middleware"
	"github.com/mauth-dev/mauth/internal/config"
	"github.com/mauth-dev/mauth/internal/logger"
)

// Router wires handlers and middleware into a gin engine.
type Router struct {
	cfg           *config.Config
	authHandler   *handler.Auth
	clientHandler *handler.Client
	jwksHandler   *handler.JWKS
	apiKey        *middleware.APIKey
	rateLimit     *middleware.RateLimit
	logger        *logger.Logger
}

// NewRouter creates a Router with all handlers.
func NewRouter(
	cfg *config.Config,
	authHandler *handler.Auth,
	clientHandler *handler.Client,
	jwksHandler *handler.JWKS,
	apiKey *middleware.APIKey,
	rateLimit *middleware.RateLimit,
	logger *logger.Logger,
) *Router {
	return &Router{
		cfg:           cfg,
		authHandler:   authHandler,
		clientHandler: clientHandler,
		jwksHandler:   jwksHandler,
		apiKey:        apiKey,
		rateLimit:     rateLimit,
		logger:        logger,
	}
}

// Register builds the gin engine with all routes attached.
func (r *Router) Register() *gin.Engine {
	if r.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.logger))

	limits := r.cfg.RateLimit
	strict := r.rateLimit.Handler(middleware.RateLimitRule{
		KeyPrefix:  "auth_strict",
		Limit:      limits.IPLimit,
		Window:     secondsToDuration(limits.IPWindow),
		PerEmail:    true,
		EmailLimit:  limits.EmailLimit,
		EmailWindow: secondsToDuration(limits.EmailWindow),
	})
	moderate := r.rateLimit.Handler(middleware.RateLimitRule{
		KeyPrefix: "auth_moderate",
		Limit:     limits.GeneralLimit,
		Window:    secondsToDuration(limits.GeneralWindow),
	})

	clients := engine.Group("/clients")
	{
		clients.POST("/register", moderate, r.clientHandler.Register)
		clients.POST("/:id/rotate-keys", r.apiKey.Handler(), r.clientHandler.RotateKeys)
		clients.GET("/info", r.apiKey.Handler(), r.clientHandler.Info)
	}

	auth := engine.Group("/auth")
	{
		auth.POST("/magic-link/request", strict, r.authHandler.RequestMagicLink)
		auth.GET("/magic-link/verify", moderate, r.authHandler.VerifyMagicLink)
		auth.POST("/magic-link/verify", moderate, r.authHandler.VerifyMagicLink)
		auth.POST("/verify-token", moderate, r.authHandler.VerifyToken)
		auth.POST("/refresh-token", moderate, r.authHandler.RefreshToken)
		auth.POST("/revoke-token", moderate, r.authHandler.RevokeToken)
	}

	engine.GET("/.well-known/jwks.json", r.jwksHandler.Keys)

	return engine
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
