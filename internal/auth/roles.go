package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RequireAgent lets only agent sessions through. Anyone else is sent back to
// the view router.
func RequireAgent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		if _, isAgent := principal.Agent(); !isAgent {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

// RequireAgency lets only agency owner sessions through.
func RequireAgency() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		if _, isAgency := principal.Agency(); !isAgency {
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		return c.Next()
	}
}
