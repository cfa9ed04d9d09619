package auth

import "github.com/gofiber/fiber/v2"

// RequireAgent rejects callers without agent capability before the handler runs.
func RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := (ContextAccess{}).RequireAgentCapability(c.UserContext()); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers without admin capability.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := (ContextAccess{}).RequireAdminCapability(c.UserContext()); err != nil {
			return err
		}
		return c.Next()
	}
}
