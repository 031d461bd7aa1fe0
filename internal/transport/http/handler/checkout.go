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

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	downloadService service.DownloadService
	logger          *zap.Logger
	validate        *validator.Validate
}

func NewCheckoutHandler(
	checkoutService service.CheckoutService,
	downloadService service.DownloadService,
	logger *zap.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		downloadService: downloadService,
		logger:          logger,
		validate:        validator.New(),
	}
}

func (h *CheckoutHandler) CreateSession(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	input := new(domain.CheckoutRequest)
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

	resp, err := h.checkoutService.CreateSession(c.UserContext(), userId, input)
	if err != nil {
		h.logger.Warn(
			"create checkout session failed",
			zap.Int64("user_id", userId),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	h.logger.Info(
		"checkout session created",
		zap.Int64("user_id", userId),
		zap.Int64("order_id", resp.OrderID),
	)

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *CheckoutHandler) SessionStatus(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id required"})
	}

	resp, err := h.checkoutService.SessionStatus(c.UserContext(), userId, sessionID)
	if err != nil {
		h.logger.Warn(
			"session status failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.JSON(resp)
}

func (h *CheckoutHandler) ListOrders(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	orders, err := h.checkoutService.ListOrders(c.UserContext(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *CheckoutHandler) GetOrder(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	orderId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	order, err := h.checkoutService.GetOrder(c.UserContext(), userId, orderId)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(order)
}

func (h *CheckoutHandler) Download(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "token required"})
	}

	grant, err := h.downloadService.ResolveToken(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.checkoutService.GetOrder(c.UserContext(), userId, grant.OrderID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"order_id":       order.ID,
		"product_id":     grant.ProductID,
		"track_position": grant.TrackPosition,
		"token":          grant.Token,
	})
}
