package handler

import (
	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/service"
	"github.com/dabd2323/music-store/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
		validate:    validator.New(),
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	input := new(domain.RegisterRequest)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in register",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	tokens, err := h.authService.Register(c.UserContext(), input)
	if err != nil {
		h.logger.Warn(
			"register failed",
			zap.String("email", input.Email),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tokens)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	input := new(domain.LoginRequest)

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

	tokens, err := h.authService.Login(c.UserContext(), input)
	if err != nil {
		h.logger.Warn(
			"login failed",
			zap.String("email", input.Email),
			zap.Error(err),
		)

		return respondError(c, err)
	}

	return c.JSON(tokens)
}

func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	userId, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	user, err := h.authService.GetUser(c.UserContext(), userId)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}
