package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

// Capability is what a request may do, resolved once per request.
type Capability int

const (
	Guest Capability = iota
	Authenticated
	Admin
)

func (c Capability) String() string {
	switch c {
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	}
	return "guest"
}

func capabilityOf(u *domain.User) Capability {
	switch {
	case u == nil:
		return Guest
	case u.IsAdmin():
		return Admin
	}
	return Authenticated
}

// Session attaches the signed-in user, if any, to the request.
func Session(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
				c.Locals("user_id", u.ID)
			}
		}
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// Require rejects the request before the handler runs unless the resolved
// capability is at least need.
func Require(need Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		have := capabilityOf(currentUser(c))
		if have >= need {
			return c.Next()
		}
		if have == Guest {
			if wantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Please sign in"})
			}
			return c.Redirect("/login")
		}
		applog.Security(c, "access.denied."+need.String(), nil)
		return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
	}
}

func RequireUser() fiber.Handler  { return Require(Authenticated) }
func RequireAdmin() fiber.Handler { return Require(Admin) }

func wantsJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Path(), "/cart/") || strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
