package handler

import (
	"shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// GetProducts lists ACTIVE products, optionally only featured ones
// GET /api/v1/products?featured=1
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	featured := c.Query("featured")
	products, err := h.service.ListProducts(c.UserContext(), featured == "1" || featured == "true")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "items": products})
}

// GetProduct returns one ACTIVE product
// GET /api/v1/products/:id
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", "product not found")
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "item": product})
}

// CreateProduct adds a product to the catalog
// POST /api/v1/admin/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	product, err := h.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "item": product})
}
