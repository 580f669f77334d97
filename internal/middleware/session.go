package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/pagehub/pagehub-backend/internal/service"
	"github.com/rs/zerolog"
)

// CheckAdminSession validates the JWT's JTI against the admin's active
// session in Redis. Tokens replaced by a later login or revoked by logout are
// rejected.
func CheckAdminSession(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.AdminID, claims.ID); err != nil {
			if !errors.Is(err, service.ErrSessionInvalidated) {
				log.Error().Err(err).Int("admin_id", claims.AdminID).Msg("Session check failed")
			}
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
