package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"betting-backend/internal/svcerr"
)

// respondError maps a service error onto a status code. Server-side failures
// are logged and hidden from the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		status  int
		message string
	)

	switch {
	case svcerr.IsInsufficientFunds(err):
		status, message = http.StatusBadRequest, "Insufficient funds"
	case svcerr.IsBadRequest(err):
		status, message = http.StatusBadRequest, "Invalid request"
	case svcerr.IsUnauthorized(err):
		status, message = http.StatusUnauthorized, "Invalid email or password"
	case svcerr.IsForbidden(err):
		status, message = http.StatusForbidden, "Forbidden"
	case svcerr.IsNotFound(err):
		status, message = http.StatusNotFound, "Account not found"
	case svcerr.IsConflict(err):
		status, message = http.StatusConflict, "Email already registered"
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}
