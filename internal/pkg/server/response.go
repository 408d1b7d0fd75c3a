package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of JSON responses.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func failure(c *gin.Context, code int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
		message += ": " + err.Error()
	}

	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// requestLogger logs HTTP requests.
func requestLogger(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("client", c.ClientIP()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}

		if len(c.Errors) > 0 {
			l.Warn("request failed", append(attrs, slog.String("errors", c.Errors.String()))...)

			return
		}

		l.Info("request", attrs...)
	}
}
