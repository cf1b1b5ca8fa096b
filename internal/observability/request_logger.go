package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestFields adds request-scoped fields, read after the handler chain ran.
type RequestFields func(c *fiber.Ctx) []zap.Field

// RequestLogger logs one line per request and records request metrics.
// Bodies are never logged since they may carry signing secrets.
func RequestLogger(logger *zap.Logger, metrics *Metrics, extra ...RequestFields) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		// route pattern keeps session ids and roles out of metric keys
		path := c.Route().Path
		metrics.RecordRequest(path, c.Method(), status, latency)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}
		for _, fn := range extra {
			fields = append(fields, fn(c)...)
		}
		logger.Info("request", fields...)
		return err
	}
}
