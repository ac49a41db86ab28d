package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	flashOK  = "flash_ok"
	flashErr = "flash_err"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := currentUser(c); u != nil {
		data["User"] = u
	}
	data["CSRFToken"], _ = c.Locals("CSRFToken").(string)
	if _, set := data["Flash"]; !set {
		data["Flash"] = popFlash(c, flashOK)
	}
	if _, set := data["Err"]; !set {
		data["Err"] = popFlash(c, flashErr)
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}

// redirectWith stores a one-shot message for the next rendered page.
func redirectWith(c *fiber.Ctx, to, kind, msg string) error {
	c.Cookie(&fiber.Cookie{
		Name:     kind,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(to)
}

func popFlash(c *fiber.Ctx, kind string) string {
	raw := c.Cookies(kind)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{Name: kind, Path: "/", Expires: time.Now().Add(-time.Hour), HTTPOnly: true})
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}
