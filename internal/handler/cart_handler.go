package handler

import (
	"shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

type addCartItemBody struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  *int      `json:"quantity"`
}

type updateCartItemBody struct {
	Quantity *int `json:"quantity"`
}

// GetCart returns the caller's cart with live product data
// GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	view, err := h.service.ListItems(c.UserContext(), identity.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "cartId": view.CartID, "items": view.Items})
}

// AddItem adds quantity (default 1) of a product to the cart
// POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var body addCartItemBody
	if err := c.BodyParser(&body); err != nil {
		return badJSON(c)
	}
	quantity := 1
	if body.Quantity != nil {
		quantity = *body.Quantity
	}

	req := service.AddCartItemRequest{ProductID: body.ProductID, Quantity: quantity}
	if err := h.service.AddItem(c.UserContext(), identity.ID, req); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// UpdateItem sets the quantity of a line; zero or less removes it
// PATCH /api/v1/cart/items/:cartItemId
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, ok := uuidParam(c, "cartItemId")
	if !ok {
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", "cart item not found")
	}

	var body updateCartItemBody
	if err := c.BodyParser(&body); err != nil {
		return badJSON(c)
	}
	if body.Quantity == nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", "quantity is required")
	}

	if err := h.service.SetItemQuantity(c.UserContext(), identity.ID, itemID, *body.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// RemoveItem deletes a line from the cart
// DELETE /api/v1/cart/items/:cartItemId
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	identity, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	itemID, ok := uuidParam(c, "cartItemId")
	if !ok {
		return c.JSON(fiber.Map{"ok": true})
	}

	if err := h.service.RemoveItem(c.UserContext(), identity.ID, itemID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
