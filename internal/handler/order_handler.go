package handler

import (
	"shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// Checkout turns the caller's cart into a PENDING order
// POST /api/v1/orders/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var info service.ShippingInfo
	if err := c.BodyParser(&info); err != nil {
		return badJSON(c)
	}

	result, err := h.service.Checkout(c.UserContext(), identity.ID, info)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":          true,
		"orderNo":     result.OrderNo,
		"status":      result.Status,
		"itemsTotal":  result.ItemsTotal,
		"shippingFee": result.ShippingFee,
		"grandTotal":  result.GrandTotal,
	})
}

// GetMyOrders lists the caller's most recent orders
// GET /api/v1/orders
func (h *OrderHandler) GetMyOrders(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	orders, err := h.service.ListMyOrders(c.UserContext(), identity.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "items": orders})
}

// GetMyOrder returns one of the caller's orders with its items
// GET /api/v1/orders/:orderNo
func (h *OrderHandler) GetMyOrder(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	order, err := h.service.GetMyOrder(c.UserContext(), identity.ID, c.Params("orderNo"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "order": order, "items": order.Items})
}
