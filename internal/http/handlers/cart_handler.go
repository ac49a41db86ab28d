package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

// fail answers a cart mutation with success:false. Unexpected errors are
// logged and reported generically.
func (h *CartHandler) fail(c *fiber.Ctx, action string, err error) error {
	msg, known := userMessage(err)
	if !known {
		applog.Error(c, action, err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": msg})
	}
	applog.Info(c, action, map[string]any{"reason": msg})
	return c.JSON(fiber.Map{"success": false, "message": msg})
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	cv, err := h.Cart.View(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}

// Add handles POST /cart/add (productId, quantity).
func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "missing productId"})
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid quantity"})
	}
	count, err := h.Cart.AddToCart(c.UserContext(), currentUser(c).ID, productID, qty)
	if err != nil {
		return h.fail(c, "cart.add.fail", err)
	}
	applog.Info(c, "cart.add", map[string]any{"product_id": productID, "qty": qty})
	return c.JSON(fiber.Map{"success": true, "message": "Added to cart", "cartCount": count})
}

// Update handles POST /cart/update (cartItemId, quantity).
func (h *CartHandler) Update(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.FormValue("cartItemId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "missing cartItemId"})
	}
	qty, ok := validate.Qty(c.FormValue("quantity"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid quantity"})
	}
	userID := currentUser(c).ID
	lineTotal, err := h.Cart.UpdateQuantity(c.UserContext(), userID, itemID, qty)
	if err != nil {
		return h.fail(c, "cart.update.fail", err)
	}
	cv, err := h.Cart.View(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "cart.update.fail", err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"itemTotal": lineTotal.StringFixed(2),
		"cartTotal": cv.Total.StringFixed(2),
		"cartCount": cartCount(cv),
	})
}

// Remove handles POST /cart/remove (cartItemId).
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	itemID, ok := validate.ID(c.FormValue("cartItemId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "missing cartItemId"})
	}
	userID := currentUser(c).ID
	if err := h.Cart.RemoveFromCart(c.UserContext(), userID, itemID); err != nil {
		return h.fail(c, "cart.remove.fail", err)
	}
	cv, err := h.Cart.View(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "cart.remove.fail", err)
	}
	return c.JSON(fiber.Map{"success": true, "cartTotal": cv.Total.StringFixed(2), "cartCount": cartCount(cv)})
}

// Count answers GET /cart/count; guests always have zero.
func (h *CartHandler) Count(c *fiber.Ctx) error {
	var userID string
	if u := currentUser(c); u != nil {
		userID = u.ID
	}
	n, err := h.Cart.Count(c.UserContext(), userID)
	if err != nil {
		applog.Error(c, "cart.count.fail", err, nil)
		n = 0
	}
	return c.JSON(fiber.Map{"count": n})
}

func cartCount(cv services.CartView) int {
	n := 0
	for _, it := range cv.Items {
		n += it.Quantity
	}
	return n
}
