package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check answers GET /api/v1/availability?productId=…
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing or invalid productId"})
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if errors.Is(err, services.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown product"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not check availability"})
	}
	return c.JSON(avail)
}
