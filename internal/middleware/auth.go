package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"betting-backend/internal/services"
	"betting-backend/internal/svcerr"
)

const contextAccountID = "account_id"

// AccountID returns the account authenticated by AuthMiddleware.
func AccountID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(contextAccountID)
	accountID, _ := id.(uuid.UUID)
	return accountID
}

func AuthMiddleware(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				return
			}
		}

		accountID, err := jwtService.Authenticate(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(contextAccountID, accountID)
		c.Next()
	}
}

// AdminMiddleware reads the administrator flag from the store on every
// request, so revoking it takes effect without waiting for tokens to expire.
func AdminMiddleware(adminService *services.AdminService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, err := adminService.IsAdmin(c.Request.Context(), AccountID(c))
		switch {
		case svcerr.IsNotFound(err):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			return
		case err != nil:
			logger.Error("admin check failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		case !isAdmin:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		c.Next()
	}
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, accountID uuid.UUID, action string, limit int, window time.Duration) (bool, error)
}

// RateLimitMiddleware caps how often an authenticated account may perform
// action. When the limiter itself fails the request is let through.
func RateLimitMiddleware(limiter RateLimiter, action string, limit int, logger *zap.Logger) gin.HandlerFunc {
	window := services.DefaultRateLimitWindow

	return func(c *gin.Context) {
		accountID := AccountID(c)
		if accountID == uuid.Nil || limit <= 0 {
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), accountID, action, limit, window)
		if err != nil {
			logger.Warn("rate limit check failed", zap.String("action", action), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			return
		}

		c.Next()
	}
}
