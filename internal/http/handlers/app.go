package handlers

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/pkg/errors"

	"shopfront/internal/config"
	applog "shopfront/internal/log"
)

// BodyLimit caps request bodies; product images are the largest uploads.
const BodyLimit = 4 << 20

// NewApp builds the Fiber app with middleware and every route mounted.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	engine := html.New(cfg.TemplateDir, ".html")

	app := fiber.New(fiber.Config{
		Views:        engine,
		BodyLimit:    BodyLimit,
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: applog.Logger().Writer()}))
	app.Use(helmet.New())
	app.Use(Session(d.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RatePerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.SecureCookies,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"error": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Static("/static", cfg.StaticDir)
	app.Get("/media/*", serveMedia(cfg.MediaDir))

	Mount(app, d)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, "Page not found")
	})
	return app
}

// ErrorHandler renders a friendly page and keeps error details in the log.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	switch {
	case code == fiber.StatusRequestEntityTooLarge:
		applog.Security(c, "request.too_large", nil)
		return c.Status(code).SendString("Request too large")
	case code >= fiber.StatusInternalServerError:
		// Never show internals to the client.
		applog.Error(c, "server.error", err, nil)
	}
	msg := "Something went wrong. Please try again."
	if code == fiber.StatusNotFound {
		msg = "Page not found"
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// Mount registers the storefront, account and admin routes.
func Mount(app *fiber.App, d *Deps) {
	// Public
	app.Get("/", d.ProductHandler.Home)
	app.Get("/products", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), d.ProductHandler.List)
	app.Get("/products/:id", d.ProductHandler.Detail)
	app.Get("/cart/count", d.CartHandler.Count)

	api := app.Group("/api/v1")
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.InventoryHandler.Check)

	// Auth (login throttled)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return render(c.Status(fiber.StatusTooManyRequests), "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Post("/logout", d.AuthHandler.Logout)

	// Signed-in customers
	user := RequireUser()
	app.Get("/cart", user, d.CartHandler.View)
	app.Post("/cart/add", user, d.CartHandler.Add)
	app.Post("/cart/update", user, d.CartHandler.Update)
	app.Post("/cart/remove", user, d.CartHandler.Remove)
	app.Get("/checkout", user, d.OrderHandler.Checkout)
	app.Post("/checkout", user, d.OrderHandler.Place)
	app.Get("/orders", user, d.OrderHandler.History)
	app.Get("/orders/:id", user, d.OrderHandler.Detail)
	app.Post("/orders/:id/cancel", user, d.OrderHandler.Cancel)

	// Admin
	a := d.AdminHandler
	admin := app.Group("/admin", RequireAdmin())
	admin.Get("/", a.Dashboard)
	admin.Get("/products", a.Products)
	admin.Get("/products/new", a.NewProduct)
	admin.Post("/products/new", a.CreateProduct)
	admin.Get("/products/:id/edit", a.EditProduct)
	admin.Post("/products/:id/edit", a.UpdateProduct)
	admin.Post("/products/:id/delete", a.DeleteProduct)
	admin.Get("/categories", a.Categories)
	admin.Post("/categories", a.CreateCategory)
	admin.Get("/orders", a.Orders)
	admin.Get("/orders/:id", a.Order)
	admin.Post("/orders/:id/status", a.UpdateOrderStatus)
}

// serveMedia serves uploaded files from dir and refuses traversal attempts.
func serveMedia(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		p := c.Params("*")
		raw := strings.ToLower(p)
		if strings.Contains(raw, "..") || strings.Contains(raw, "%2e") || strings.Contains(raw, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": p})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(p)
		if clean == "." || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": p})
			return c.SendStatus(fiber.StatusNotFound)
		}
		return c.SendFile(filepath.Join(dir, clean), true)
	}
}
