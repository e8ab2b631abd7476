package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/model"
)

// handleError maps service errors onto HTTP responses with stable,
// minimal-information messages. Crypto and storage failures come back as
// opaque 500s; the detail stays in server logs.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, model.ErrClientExists):
		c.JSON(http.StatusConflict, gin.H{"error": "client with this name already exists"})
	case errors.Is(err, model.ErrLinkInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	case errors.Is(err, model.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case errors.Is(err, model.ErrTokenForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "token invalid or already used"})
	case errors.Is(err, model.ErrTokenRevoked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "token already revoked"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
