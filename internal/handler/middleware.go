package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-server/internal/models"
)

// Ключи контекста gin, устанавливаемые AuthMiddleware.
const (
	ctxKeyClaims = "auth_claims"
)

// AuthMiddleware verifies the access token before the handler runs.
// Токен принимается либо из заголовка Authorization (Bearer), либо из
// http-only куки accessToken, которую ставит login.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				zap.L().Warn("Invalid Authorization header format")
				tokenVerificationsTotal.WithLabelValues("failure").Inc()
				handleServiceError(c, models.ErrTokenInvalid)
				return
			}
			tokenString = parts[1]
		} else if cookie, err := c.Cookie(accessTokenCookie); err == nil {
			tokenString = cookie
		}

		if tokenString == "" {
			zap.L().Warn("Request without access token")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrUnauthorized)
			return
		}

		claims, err := h.authService.VerifyAccessToken(c.Request.Context(), tokenString)
		if err != nil {
			zap.L().Warn("Access token verification failed", zap.Error(err))
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(ctxKeyClaims, claims)
		c.Next()
	}
}

// currentClaims returns the claims stored by AuthMiddleware.
func currentClaims(c *gin.Context) (*models.Claims, bool) {
	raw, exists := c.Get(ctxKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := raw.(*models.Claims)
	return claims, ok
}
