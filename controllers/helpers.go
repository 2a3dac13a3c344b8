package controllers

import (
	"errors"
	"net/http"

	"craftory-backend/apperrors"
	"craftory-backend/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondErr maps a domain error onto the response envelope. Internals are
// logged server-side with full detail; the client sees the gateway's own
// message when it is actionable and a generic one otherwise.
func respondErr(c *gin.Context, err error) {
	status := apperrors.StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c, "Request failed", err, zap.String("path", c.FullPath()))
	} else {
		logger.Warn(c, "Request rejected", zap.String("path", c.FullPath()), zap.String("reason", err.Error()))
	}
	c.JSON(status, gin.H{"success": false, "message": apperrors.MessageFor(err)})
}

func respondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func isSignatureErr(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidSignature)
}
