package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/service"
)

// JWKSService enumerates published public keys.
type JWKSService interface {
	Keys(ctx context.Context) (service.KeySet, error)
}

// JWKS serves the public key discovery endpoint.
type JWKS struct {
	jwks   JWKSService
	logger *logger.Logger
}

// NewJWKS creates a new JWKS handler.
func NewJWKS(jwks JWKSService, logger *logger.Logger) *JWKS {
	return &JWKS{jwks: jwks, logger: logger}
}

// Keys returns every client's current public key as a JWK set.
func (h *JWKS) Keys(c *gin.Context) {
	set, err := h.jwks.Keys(c.Request.Context())
	if err != nil {
		h.logger.Error("JWKS handler: key listing failed",
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, set)
}
