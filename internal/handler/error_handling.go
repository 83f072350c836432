package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-server/internal/models"
)

// handleServiceError translates a service error to the JSON error
// envelope plus an HTTP status code. Неожиданные ошибки логируются и
// превращаются в общий 500 без внутренних деталей.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Message: "Invalid request data", Error: err.Error()}
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Message: "Invalid credentials", Error: err.Error()}
	case errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrTokenMalformed),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenRevoked),
		errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Message: "Authentication required", Error: err.Error()}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Message: "Forbidden", Error: err.Error()}
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Message: "User not found", Error: err.Error()}
	case errors.Is(err, models.ErrBlogNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Message: "Blog not found", Error: err.Error()}
	case errors.Is(err, models.ErrUserAlreadyExists),
		errors.Is(err, models.ErrEmailAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Message: "User with this username or email already exists", Error: err.Error()}
	case errors.Is(err, models.ErrSlugAlreadyExists):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Message: "Blog already exists", Error: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Message: "Something went wrong"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

// badRequest отвечает 400 на синтаксически некорректное тело запроса.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Message: "Invalid request data",
		Error:   err.Error(),
	})
}
