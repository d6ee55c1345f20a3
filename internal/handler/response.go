package handler

import (
	"errors"
	"log"

	"shop-api/internal/middleware"
	"shop-api/internal/service"
	"shop-api/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps service errors onto HTTP responses. Anything it does not
// recognise is logged and reported as a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var (
		stockErr      *service.StockError
		validationErr *service.ValidationError
	)

	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok":          false,
			"message":     "Not enough stock for " + stockErr.ProductName,
			"code":        "INSUFFICIENT_STOCK",
			"productId":   stockErr.ProductID,
			"productName": stockErr.ProductName,
			"available":   stockErr.Available,
		})
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":      false,
			"message": validationErr.Error(),
			"code":    "INVALID_INPUT",
			"fields":  validationErr.Fields,
		})
	case errors.Is(err, service.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		return fail(c, fiber.StatusBadRequest, "INVALID_STATUS", err.Error())
	case errors.Is(err, service.ErrEmptyCart):
		return fail(c, fiber.StatusBadRequest, "EMPTY_CART", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
	case errors.Is(err, service.ErrUserInactive):
		return fail(c, fiber.StatusForbidden, "USER_SUSPENDED", err.Error())
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartItemNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		return fail(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, service.ErrProductInactive):
		return fail(c, fiber.StatusConflict, "PRODUCT_INACTIVE", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return fail(c, fiber.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrSKUExists):
		return fail(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, service.ErrOrderCreationFailed):
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return fail(c, fiber.StatusServiceUnavailable, "ORDER_CREATION_FAILED", "Could not create the order, please retry")
	}

	log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "Internal server error")
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "message": message, "code": code})
}

func badJSON(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_INPUT", "Invalid JSON")
}

// currentUser reports the session identity; routes behind RequireAuth always
// have one, and the handler answers unauthorized when a route is wired without it.
func currentUser(c *fiber.Ctx) (session.Identity, bool) {
	return middleware.CurrentIdentity(c)
}

func unauthorized(c *fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Login required")
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}
