package handler

import (
	"strconv"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/service"
	"github.com/dabd2323/music-store/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
	validate    *validator.Validate
}

func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
		validate:    validator.New(),
	}
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	input := new(domain.AddToCartRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	if err := h.cartService.AddItem(c.UserContext(), userId, input); err != nil {
		h.logger.Warn(
			"add to cart failed",
			zap.Int64("user_id", userId),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "success"})
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	productId, err := strconv.ParseInt(c.Params("productId"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	if err := h.cartService.RemoveItem(c.UserContext(), userId, productId); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	if err := h.cartService.Clear(c.UserContext(), userId); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	cart, err := h.cartService.GetCart(c.UserContext(), userId)
	if err != nil {
		h.logger.Warn(
			"get cart failed",
			zap.Int64("user_id", userId),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.JSON(cart)
}
