package handler

import (
	"strconv"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	filter := domain.ProductFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}

	products, err := h.catalogService.List(c.UserContext(), filter)
	if err != nil {
		h.logger.Warn("list products failed", zap.Error(err))

		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"products": products,
		"count":    len(products),
	})
}

func (h *CatalogHandler) FindByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}

	product, err := h.catalogService.FindByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(product)
}
