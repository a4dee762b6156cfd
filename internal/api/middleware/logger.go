// internal/api/middleware/logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader é o cabeçalho usado para propagar o identificador da requisição.
const RequestIDHeader = "X-Request-ID"

// RequestIDKey é a chave do identificador no contexto do gin.
const RequestIDKey = "request_id"

// RequestLogger atribui um request_id (reaproveitando o X-Request-ID recebido) e
// registra método, rota, status e duração de cada requisição.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		fields := []zap.Field{
			zap.String(RequestIDKey, id),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duracao", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("requisição", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("requisição", fields...)
		default:
			log.Info("requisição", fields...)
		}
	}
}

// CORS libera qualquer origem e responde ao preflight.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, "+RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+RequestIDHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
