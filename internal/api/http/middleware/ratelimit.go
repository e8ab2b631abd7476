package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mauth-dev/mauth/internal/logger"
	repo "github.com/mauth-dev/mauth/internal/repository/redis"
)

// Limiter counts hits per key in a window.
type Limiter interface {
	Check(ctx context.Context, key string, limit int, window time.Duration) (repo.RateLimitResult, error)
}

// RateLimitRule is one counter: a key prefix plus limit and window.
type RateLimitRule struct {
	KeyPrefix string
	Limit     int
	Window    time.Duration
	// PerEmail additionally counts per request-body email, with the IP
	// counter as backstop (hybrid strategy). The email counter has its
	// own limit and window, so an address can be throttled over a longer
	// horizon than the IP behind it.
	PerEmail    bool
	EmailLimit  int
	EmailWindow time.Duration
}

// RateLimit applies fixed-window limits keyed by client IP and optionally
// by the email in the request body. When the limiter backend is
// unreachable the request proceeds unthrottled: availability wins over
// strict limiting.
type RateLimit struct {
	limiter Limiter
	logger  *logger.Logger
}

// NewRateLimit creates the RateLimit middleware.
func NewRateLimit(limiter Limiter, logger *logger.Logger) *RateLimit {
	return &RateLimit{limiter: limiter, logger: logger}
}

// Handler returns a gin middleware enforcing the given rule.
func (m *RateLimit) Handler(rule RateLimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if rule.PerEmail {
			if email := peekEmail(c); email != "" {
				result, err := m.limiter.Check(ctx,
					fmt.Sprintf("%s:email:%s", rule.KeyPrefix, email),
					rule.EmailLimit, rule.EmailWindow)
				if err != nil {
					m.failOpen(c, err)
					return
				}
				if !result.Allowed {
					m.reject(c, result, "email")
					return
				}
				setRateHeaders(c, result, "email")
			}
		}

		result, err := m.limiter.Check(ctx,
			fmt.Sprintf("%s:ip:%s", rule.KeyPrefix, c.ClientIP()),
			rule.Limit, rule.Window)
		if err != nil {
			m.failOpen(c, err)
			return
		}
		if !result.Allowed {
			m.reject(c, result, "ip")
			return
		}
		if !rule.PerEmail {
			setRateHeaders(c, result, "ip")
		}

		c.Next()
	}
}

func (m *RateLimit) failOpen(c *gin.Context, err error) {
	m.logger.Error("Rate limit middleware: limiter unavailable, failing open",
		"error", err.Error())
	c.Next()
}

func (m *RateLimit) reject(c *gin.Context, result repo.RateLimitResult, limitType string) {
	setRateHeaders(c, result, limitType)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":      fmt.Sprintf("Rate limit exceeded (%s). Please try again later.", limitType),
		"retryAfter": int(result.RetryAfter.Seconds()),
		"limit":      result.Limit,
		"remaining":  0,
		"limitType":  limitType,
	})
}

func setRateHeaders(c *gin.Context, result repo.RateLimitResult, limitType string) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", time.Now().Add(result.RetryAfter).UTC().Format(time.RFC3339))
	c.Header("X-RateLimit-Type", limitType)
}

// peekEmail reads the email field from a JSON body without consuming it
// for the downstream handler.
func peekEmail(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))

	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Email
}
