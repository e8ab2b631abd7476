package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/api/http/middleware"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
)

// ClientService defines the management-plane operations.
type ClientService interface {
	Register(ctx context.Context, name, redirectURL string) (model.Client, error)
	RotateKeys(ctx context.Context, client model.Client) (model.Client, error)
}

// Client handles the client management endpoints.
type Client struct {
	clients ClientService
	logger  *logger.Logger
}

// NewClient creates a new Client handler.
func NewClient(clients ClientService, logger *logger.Logger) *Client {
	return &Client{clients: clients, logger: logger}
}

type registerRequest struct {
	Name        string `json:"name"`
	RedirectURL string `json:"redirectUrl"`
}

// Register provisions a new client. The api key appears in this response
// and nowhere else.
func (h *Client) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	client, err := h.clients.Register(c.Request.Context(), req.Name, req.RedirectURL)
	if err != nil {
		h.logger.Error("Client handler: registration failed",
			"client_name", req.Name,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Client registered successfully",
		"id":        client.ID,
		"name":      client.Name,
		"publicKey": client.KeyMaterial.PublicKeyPEM,
		"apiKey":    client.APIKey,
		"warning":   "Store this API key securely! You'll need it for all client operations.",
	})
}

// RotateKeys replaces the authenticated client's keypair.
func (h *Client) RotateKeys(c *gin.Context) {
	client, ok := middleware.ClientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client api key required"})
		return
	}

	rotated, err := h.clients.RotateKeys(c.Request.Context(), client)
	if err != nil {
		h.logger.Error("Client handler: key rotation failed",
			"client_id", client.ID,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Client keys rotated successfully",
		"name":      rotated.Name,
		"publicKey": rotated.KeyMaterial.PublicKeyPEM,
	})
}

// Info returns the authenticated client's metadata.
func (h *Client) Info(c *gin.Context) {
	client, ok := middleware.ClientFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "client api key required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Client information retrieved successfully",
		"client": gin.H{
			"id":             client.ID,
			"name":           client.Name,
			"kid":            client.KeyMaterial.KID,
			"publicKey":      client.KeyMaterial.PublicKeyPEM,
			"createdAt":      client.CreatedAt,
			"updatedAt":      client.UpdatedAt,
			"apiKeyLastUsed": client.APIKeyLastUsed,
		},
	})
}
