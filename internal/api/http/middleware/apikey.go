package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

// APIKeyHeader carries the client-specific management-plane key.
const APIKeyHeader = "X-Client-API-Key"

const clientContextKey = "authenticatedClient"

// ClientAuthenticator resolves a client by API key.
type ClientAuthenticator interface {
	Authenticate(ctx context.Context, apiKey string) (model.Client, error)
}

// APIKey authenticates management-plane requests and attaches the client
// to the request context. Routes with an :id parameter additionally
// require the key to belong to that client.
type APIKey struct {
	clients ClientAuthenticator
	logger  *logger.Logger
}

// NewAPIKey creates the APIKey middleware.
func NewAPIKey(clients ClientAuthenticator, logger *logger.Logger) *APIKey {
	return &APIKey{clients: clients, logger: logger}
}

// Handler is the gin middleware function.
func (m *APIKey) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "client api key required",
				"message": "Provide your client API key in the " + APIKeyHeader + " header",
			})
			return
		}

		client, err := m.clients.Authenticate(c.Request.Context(), apiKey)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrValidation) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid client api key",
					"message": "The provided API key is not valid",
				})
				return
			}
			m.logger.Error("API key middleware: authentication failed",
				"error", err.Error())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication error"})
			return
		}

		if id := c.Param("id"); id != "" && id != client.ID.String() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "access denied",
				"message": "You can only modify your own client keys",
			})
			return
		}

		c.Set(clientContextKey, client)
		c.Next()
	}
}

// ClientFromContext returns the client attached by the APIKey middleware.
func ClientFromContext(c *gin.Context) (model.Client, bool) {
	value, ok := c.Get(clientContextKey)
	if !ok {
		return model.Client{}, false
	}
	client, ok := value.(model.Client)
	return client, ok
}
