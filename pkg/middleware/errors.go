package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/errors"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/logging"
)

// APIErrorResponse is the body of every non-2xx response.
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

// ErrorMapper turns a handler error into an AppError.
type ErrorMapper func(error) *errors.AppError

// ErrorHandler renders the last error a handler attached with c.Error,
// unless the handler already wrote a response.
func ErrorHandler(logger *logging.Logger, mapper ErrorMapper) gin.HandlerFunc {
	if mapper == nil {
		mapper = errors.FromError
	}
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RespondWithAppError(c, logger, mapper(c.Errors.Last().Err))
	}
}

// RespondWithAppError logs appErr and writes it.
func RespondWithAppError(c *gin.Context, logger *logging.Logger, appErr *errors.AppError) {
	level := slog.LevelWarn
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	args := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if appErr.Err != nil {
		args = append(args, "error", appErr.Err.Error())
	}
	if len(appErr.Details) > 0 {
		args = append(args, "details", appErr.Details)
	}
	logger.Log(c.Request.Context(), level, appErr.Message, args...)

	c.JSON(appErr.HTTPStatus, envelope(c, appErr))
}

func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, envelope(c, appErr))
}

func envelope(c *gin.Context, appErr *errors.AppError) APIErrorResponse {
	return APIErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		appErr := errors.ErrRouteNotFound()
		c.JSON(appErr.HTTPStatus, envelope(c, appErr))
	}
}

func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		appErr := errors.ErrMethodNotAllowed()
		c.JSON(appErr.HTTPStatus, envelope(c, appErr))
	}
}
