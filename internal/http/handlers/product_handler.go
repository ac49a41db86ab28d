package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	featured, err := h.Catalog.ListProducts(c.UserContext(), services.ProductFilter{Page: 1})
	if err != nil {
		return err
	}
	return render(c, "home", fiber.Map{"Categories": cats, "Products": featured.Items})
}

// List is the storefront listing with optional category, search and page.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	f := services.ProductFilter{Page: validate.Page(c.Query("page"))}
	data := fiber.Map{}

	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			c.Status(fiber.StatusBadRequest)
			data["Err"] = "Enter a valid keyword (letters and numbers only)"
		} else {
			f.Search = q
		}
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, ok := validate.ID(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return notFound(c, "Category not found")
		}
		f.CategoryID = id
	}

	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), f)
	if err != nil {
		return err
	}
	data["Categories"] = cats
	data["Page"] = page
	data["Q"] = f.Search
	data["CategoryID"] = f.CategoryID
	return render(c, "products", data)
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return notFound(c, "This item is no longer available")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return notFound(c, msg)
		}
		return err
	}
	return render(c, "product", fiber.Map{"P": p})
}
