package handler

import (
	"errors"

	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

func NewWebhookHandler(checkoutService service.CheckoutService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

type processorEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// HandleProcessorEvent accepts checkout session notifications from the
// payment processor. The session state is always re-read from the
// processor, so the payload only tells us which session to reconcile.
func (h *WebhookHandler) HandleProcessorEvent(c *fiber.Ctx) error {
	input := new(processorEvent)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	switch input.Type {
	case "checkout.session.completed", "checkout.session.expired":
		sessionID := input.Data.Object.ID
		if sessionID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id required"})
		}

		if err := h.checkoutService.HandleSessionEvent(c.UserContext(), sessionID); err != nil {
			// a session we never issued is acknowledged so the
			// processor stops redelivering
			if errors.Is(err, repository.ErrSessionNotFound) {
				return c.JSON(fiber.Map{"received": true})
			}

			h.logger.Warn(
				"webhook processing failed",
				zap.String("session_id", sessionID),
				zap.String("event_type", input.Type),
				zap.Error(err),
			)

			return respondError(c, err)
		}
	}

	return c.JSON(fiber.Map{"received": true})
}
