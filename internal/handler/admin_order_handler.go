package handler

import (
	"shop-api/internal/middleware"
	"shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AdminOrderHandler struct {
	orders service.OrderService
	ledger service.OrderStatusService
}

func NewAdminOrderHandler(orders service.OrderService, ledger service.OrderStatusService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders, ledger: ledger}
}

type changeStatusBody struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// GetOrders lists recent orders, optionally by status
// GET /api/v1/admin/orders?status=PAID
func (h *AdminOrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.AdminListOrders(c.UserContext(), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "items": orders})
}

// GetOrder returns an order with its buyer and items
// GET /api/v1/admin/orders/:orderNo
func (h *AdminOrderHandler) GetOrder(c *fiber.Ctx) error {
	order, err := h.orders.AdminGetOrder(c.UserContext(), c.Params("orderNo"))
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"ok": true, "order": order, "items": order.Items}
	if order.User != nil {
		resp["buyer"] = fiber.Map{"email": order.User.Email, "name": order.User.Name}
	}
	return c.JSON(resp)
}

// ChangeStatus moves an order to another status and records who did it
// POST|PATCH /api/v1/admin/orders/:orderNo/status
func (h *AdminOrderHandler) ChangeStatus(c *fiber.Ctx) error {
	var body changeStatusBody
	if err := c.BodyParser(&body); err != nil {
		return badJSON(c)
	}

	result, err := h.ledger.Transition(c.UserContext(), c.Params("orderNo"), body.Status, body.Note, actorOf(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":        true,
		"orderNo":   result.OrderNo,
		"from":      result.From,
		"to":        result.To,
		"unchanged": result.Unchanged,
	})
}

// UpdateShipping records courier and tracking number
// POST /api/v1/admin/orders/:orderNo/shipping
func (h *AdminOrderHandler) UpdateShipping(c *fiber.Ctx) error {
	var req service.ShippingRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	result, err := h.ledger.UpdateShipping(c.UserContext(), c.Params("orderNo"), req, actorOf(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"ok":         true,
		"orderNo":    result.OrderNo,
		"status":     result.Status,
		"courier":    result.Courier,
		"trackingNo": result.TrackingNo,
		"shippedAt":  result.ShippedAt,
	})
}

// GetLogs returns the status audit trail, oldest first
// GET /api/v1/admin/orders/:orderNo/logs
func (h *AdminOrderHandler) GetLogs(c *fiber.Ctx) error {
	logs, err := h.ledger.ListLogs(c.UserContext(), c.Params("orderNo"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "items": logs})
}

func actorOf(c *fiber.Ctx) service.Actor {
	actor := service.Actor{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if identity, ok := middleware.CurrentIdentity(c); ok {
		id := identity.ID
		actor.UserID = &id
		actor.Email = identity.Email
		actor.Role = identity.Role
	}
	return actor
}
