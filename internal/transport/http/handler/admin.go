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

type AdminHandler struct {
	adminService   service.AdminService
	catalogService service.CatalogService
	logger         *zap.Logger
	validate       *validator.Validate
}

func NewAdminHandler(
	adminService service.AdminService,
	catalogService service.CatalogService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		catalogService: catalogService,
		logger:         logger,
		validate:       validator.New(),
	}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.adminService.Stats(c.UserContext())
	if err != nil {
		h.logger.Warn("stats failed", zap.Error(err))

		return respondError(c, err)
	}

	return c.JSON(stats)
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.adminService.ListUsers(
		c.UserContext(),
		c.QueryInt("limit", 50),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"users": users,
		"count": len(users),
	})
}

func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	userId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	input := new(domain.UpdateRoleRequest)
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

	if err := h.adminService.UpdateUserRole(c.UserContext(), userId, input.Role); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	actorId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	userId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}

	if err := h.adminService.DeleteUser(c.UserContext(), actorId, userId); err != nil {
		h.logger.Warn(
			"delete user failed",
			zap.Int64("user_id", userId),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.adminService.ListOrders(
		c.UserContext(),
		c.QueryInt("limit", 50),
		c.QueryInt("offset", 0),
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	input := new(domain.CreateProductRequest)
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

	product, err := h.catalogService.Create(c.UserContext(), input)
	if err != nil {
		h.logger.Warn("create product failed", zap.Error(err))

		return respondError(c, err)
	}

	h.logger.Info(
		"product created",
		zap.Int64("product_id", product.ID),
	)

	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	productId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	input := new(domain.UpdateProductRequest)
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

	if err := h.catalogService.Update(c.UserContext(), productId, input); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	productId, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	if err := h.catalogService.Delete(c.UserContext(), productId); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success"})
}

func (h *AdminHandler) SendNewsletter(c *fiber.Ctx) error {
	input := new(service.NewsletterRequest)
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

	if err := h.adminService.SendNewsletter(c.UserContext(), input); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
}
