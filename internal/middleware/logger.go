package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "http").Logger()

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			event = log.Error()
		case status >= http.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Str("request_id", response.RequestID(c)).
			Dur("latency", time.Since(start))
		if claims := GetClaims(c); claims != nil {
			event = event.Int("admin_id", claims.AdminID)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("request")
	}
}

// Recovery turns a panic into a 500 envelope and logs the stack.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error().
					Str("panic", fmt.Sprintf("%v", recovered)).
					Str("path", c.Request.URL.Path).
					Str("request_id", response.RequestID(c)).
					Bytes("stack", debug.Stack()).
					Msg("Recovered from panic")
				response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			}
		}()
		c.Next()
	}
}
