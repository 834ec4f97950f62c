package middleware

import (
	"errors"
	"net/http"

	"trailer-booking/internal/delivery/http/response"
	"trailer-booking/pkg/apperror"
	"trailer-booking/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil && appErr.Code >= http.StatusInternalServerError {
				logger.Log.Warn("Request failed",
					"status", appErr.Code,
					"path", c.FullPath(),
					"request_id", c.GetString("RequestID"),
					"error", appErr.Err,
				)
			}
			response.Error(c, appErr.Code, appErr.Message, nil)
			return
		}

		// Never expose internal error details to clients
		logger.Log.Error("Internal server error",
			"path", c.FullPath(),
			"request_id", c.GetString("RequestID"),
			"error", err,
		)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
