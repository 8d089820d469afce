package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fabritex/stock-api/pkg/logger"
)

const actorLocalsKey = "actor_id"

// ActorMiddleware carga el actor opcional del header X-Actor-Id en los locals.
// La autenticación queda fuera del libro de inventario; el actor es solo
// trazabilidad en los asientos.
func ActorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if actor := c.Get("X-Actor-Id"); actor != "" {
			c.Locals(actorLocalsKey, actor)
		}
		return c.Next()
	}
}

// GetActorID devuelve el actor del request ("" si no vino).
func GetActorID(c *fiber.Ctx) string {
	if v, ok := c.Locals(actorLocalsKey).(string); ok {
		return v
	}
	return ""
}

// RequestLogger log estructurado por request: método, ruta, status y duración.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
