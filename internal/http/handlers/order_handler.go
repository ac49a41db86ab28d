package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

// Checkout renders the review page. Problems found here only redirect back
// to the cart; Place re-validates inside its transaction.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	v, err := h.Order.Preview(c.UserContext(), currentUser(c).ID)
	if err != nil {
		msg, known := userMessage(err)
		if !known {
			return err
		}
		return redirectWith(c, "/cart", flashErr, msg)
	}
	return render(c, "checkout", fiber.Map{"Checkout": v, "Ship": v.Shipping})
}

func (h *OrderHandler) shippingFrom(c *fiber.Ctx) (services.Shipping, string) {
	addr, ok := validate.Name(c.FormValue("shippingAddress"), 500)
	if !ok {
		return services.Shipping{}, "Shipping address is required"
	}
	city, ok := validate.Text(c.FormValue("shippingCity"), 100)
	if !ok {
		return services.Shipping{}, "City is too long"
	}
	postal, ok := validate.PostalCode(c.FormValue("shippingPostalCode"))
	if !ok {
		return services.Shipping{}, "Enter a valid postal code"
	}
	phone, ok := validate.Phone(c.FormValue("phoneNumber"))
	if !ok {
		return services.Shipping{}, "Enter a valid phone number"
	}
	return services.Shipping{Address: addr, City: city, PostalCode: postal, Phone: phone}, ""
}

// Place handles POST /checkout.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	ship, problem := h.shippingFrom(c)
	if problem != "" {
		applog.Security(c, "validation.fail", map[string]any{"form": "checkout", "reason": problem})
		return redirectWith(c, "/checkout", flashErr, problem)
	}
	o, err := h.Order.Place(c.UserContext(), currentUser(c).ID, ship)
	if err != nil {
		msg, known := userMessage(err)
		if known {
			applog.Info(c, "order.place.rejected", map[string]any{"reason": msg})
		} else {
			applog.Error(c, "order.place.fail", err, nil)
		}
		return redirectWith(c, "/checkout", flashErr, msg)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID, "order_number": o.OrderNumber, "total": o.TotalAmount.StringFixed(2),
	})
	return redirectWith(c, "/orders/"+o.ID, flashOK, "Order "+o.OrderNumber+" placed. Thank you!")
}

func (h *OrderHandler) History(c *fiber.Ctx) error {
	page, err := h.Order.History(c.UserContext(), currentUser(c).ID, validate.Page(c.Query("page")))
	if err != nil {
		return err
	}
	return render(c, "orders", fiber.Map{"Page": page})
}

func (h *OrderHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	o, err := h.Order.Detail(c.UserContext(), currentUser(c).ID, id)
	if err != nil {
		if _, known := userMessage(err); known {
			applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
			return notFound(c, "Order not found")
		}
		return err
	}
	return render(c, "order", fiber.Map{"Order": o})
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return notFound(c, "Order not found")
	}
	back := "/orders/" + id
	if err := h.Order.Cancel(c.UserContext(), currentUser(c).ID, id); err != nil {
		msg, known := userMessage(err)
		if !known {
			applog.Error(c, "order.cancel.fail", err, map[string]any{"order_id": id})
		} else {
			applog.Info(c, "order.cancel.rejected", map[string]any{"order_id": id, "reason": msg})
		}
		return redirectWith(c, back, flashErr, msg)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": id})
	return redirectWith(c, back, flashOK, "Order cancelled")
}
