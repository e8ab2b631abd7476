package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mauth-dev/mauth/internal/email"
	"github.com/mauth-dev/mauth/internal/logger"
	"github.com/mauth-dev/mauth/internal/model"
	"github.com/mauth-dev/mauth/internal/service"
)

// MagicLinkService issues and redeems single-use magic links.
type MagicLinkService interface {
	Issue(ctx context.Context, email string, clientID uuid.UUID) (token string, client model.Client, err error)
	Redeem(ctx context.Context, token string) (model.MagicLinkEntry, error)
}

// TokenService defines token issuance, verification and revocation
// operations.
type TokenService interface {
	IssuePair(ctx context.Context, userID, clientID uuid.UUID, prevRefreshToken string) (model.TokenPair, error)
	Verify(ctx context.Context, token string) (service.VerifyResult, error)
	Refresh(ctx context.Context, presented string) (model.TokenPair, error)
	RevokeOne(ctx context.Context, presented string) error
	RevokeAll(ctx context.Context, userID, clientID uuid.UUID) (int64, error)
}

// Auth handles the end-user authentication endpoints.
type Auth struct {
	magicLinks    MagicLinkService
	tokens        TokenService
	sender        model.EmailSender
	baseURL       string
	secureCookies bool
	logger        *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	magicLinks MagicLinkService,
	tokens TokenService,
	sender model.EmailSender,
	baseURL string,
	secureCookies bool,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		magicLinks:    magicLinks,
		tokens:        tokens,
		sender:        sender,
		baseURL:       strings.TrimRight(baseURL, "/"),
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type magicLinkRequest struct {
	Email string `json:"email"`
	ID    string `json:"id"`
}

// RequestMagicLink issues a magic link and mails it. The response never
// reveals whether the email already existed.
func (h *Auth) RequestMagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and app id are required"})
		return
	}

	clientID, err := uuid.Parse(req.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid app id"})
		return
	}

	token, client, err := h.magicLinks.Issue(c.Request.Context(), req.Email, clientID)
	if err != nil {
		h.logger.Error("Auth handler: magic link issuance failed",
			"client_id", clientID,
			"error", err.Error())
		handleError(c, err)
		return
	}

	link := fmt.Sprintf("%s/auth/magic-link/verify?token=%s", h.baseURL, token)
	if _, err := h.sender.Send(c.Request.Context(), req.Email, email.MagicLinkSubject,
		email.MagicLinkHTML(link, client.Name), email.MagicLinkText(link, client.Name)); err != nil {
		h.logger.Error("Auth handler: magic link mail failed",
			"client_id", client.ID,
			"error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Check your inbox for the magic link"})
}

// VerifyMagicLink redeems a magic link exactly once and sets the token
// pair as httpOnly cookies.
func (h *Auth) VerifyMagicLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		_ = c.ShouldBindJSON(&body)
		token = body.Token
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	entry, err := h.magicLinks.Redeem(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}

	pair, err := h.tokens.IssuePair(c.Request.Context(), entry.UserID, entry.ClientID, "")
	if err != nil {
		h.logger.Error("Auth handler: token issuance failed",
			"client_id", entry.ClientID,
			"user_id", entry.UserID,
			"error", err.Error())
		handleError(c, err)
		return
	}

	setTokenCookies(c, pair, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"message": "Magic link verified successfully, tokens set in cookies"})
}

// VerifyToken validates an access token from the Authorization header or
// the accessToken cookie.
func (h *Auth) VerifyToken(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		if cookie, err := c.Cookie(accessTokenCookie); err == nil {
			token = cookie
		}
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "access token is required"})
		return
	}

	result, err := h.tokens.Verify(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"payload": gin.H{
			"userId": result.Claims.UserID,
			"kid":    result.Claims.KID,
			"type":   result.Claims.TokenType,
			"iss":    result.Claims.Issuer,
			"iat":    result.Claims.IssuedAt.Unix(),
			"exp":    result.Claims.ExpiresAt.Unix(),
		},
		"user": gin.H{
			"email":     result.User.Email,
			"lastLogin": result.User.LastLogin,
		},
		"client": gin.H{
			"name": result.Client.Name,
		},
	})
}

// RefreshToken rotates the refresh token from the cookie and sets the new
// pair.
func (h *Auth) RefreshToken(c *gin.Context) {
	presented, err := c.Cookie(refreshTokenCookie)
	if err != nil || presented == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token is missing"})
		return
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), presented)
	if err != nil {
		handleError(c, err)
		return
	}

	setTokenCookies(c, pair, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"message": "Tokens refreshed successfully"})
}

type revokeRequest struct {
	RevokeAll bool `json:"revokeAll"`
}

// RevokeToken revokes the refresh token from the cookie, or with
// revokeAll every active token for its user, then clears cookies.
func (h *Auth) RevokeToken(c *gin.Context) {
	presented, err := c.Cookie(refreshTokenCookie)
	if err != nil || presented == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token is required"})
		return
	}

	var req revokeRequest
	_ = c.ShouldBindJSON(&req)

	if req.RevokeAll {
		result, err := h.tokens.Verify(c.Request.Context(), presented)
		if err != nil {
			handleError(c, err)
			return
		}
		userID, err := uuid.Parse(result.Claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		count, err := h.tokens.RevokeAll(c.Request.Context(), userID, result.Client.ID)
		if err != nil {
			handleError(c, err)
			return
		}

		clearTokenCookies(c, h.secureCookies)
		c.JSON(http.StatusOK, gin.H{
			"message":       "All refresh tokens revoked successfully",
			"tokensRevoked": count,
		})
		return
	}

	if err := h.tokens.RevokeOne(c.Request.Context(), presented); err != nil {
		handleError(c, err)
		return
	}

	clearTokenCookies(c, h.secureCookies)
	c.JSON(http.StatusOK, gin.H{"message": "Refresh token revoked successfully"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
