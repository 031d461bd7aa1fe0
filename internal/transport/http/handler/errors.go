package handler

import (
	"errors"

	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

// respondError maps domain errors onto HTTP statuses in one place so
// every handler reports failures the same way.
func respondError(c *fiber.Ctx, err error) error {
	var invalidItem *service.InvalidCartItemError

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cart is empty"})
	case errors.As(err, &invalidItem):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      invalidItem.Error(),
			"product_id": invalidItem.ProductID,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSelfDeleteForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, repository.ErrCartItemNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrPaymentUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service temporarily unavailable"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func currentUserID(c *fiber.Ctx) (int64, bool) {
	userId, ok := c.Locals("userId").(int64)
	return userId, ok
}
