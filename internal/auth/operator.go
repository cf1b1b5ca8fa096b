package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/spec-kit/jwt-builder/internal/config"
)

const operatorKey = "auth_operator"

// OperatorGate requires HTTP basic auth for the configured operator. With no
// password hash configured every request passes.
func OperatorGate(cfg config.AuthConfig) fiber.Handler {
	if cfg.OperatorPasswordHash == "" {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return basicauth.New(basicauth.Config{
		Realm: "jwt-builder",
		Authorizer: func(user, pass string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.OperatorUser)) == 1
			passOK := ComparePassword(cfg.OperatorPasswordHash, pass) == nil
			return userOK && passOK
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="jwt-builder"`)
			return fiber.NewError(fiber.StatusUnauthorized, "operator credentials required")
		},
		ContextUsername: operatorKey,
	})
}

// OperatorFromContext returns the authenticated operator name, if any.
func OperatorFromContext(c *fiber.Ctx) (string, bool) {
	user, ok := c.Locals(operatorKey).(string)
	return user, ok && user != ""
}
