package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"
	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/pkg/kafka"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	service *NotificationService
	logger  *zap.Logger
}

func NewConsumer(service *NotificationService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"notification-group",
		[]string{domain.TopicUserEvents, domain.TopicOrderEvents, domain.TopicNewsletterEvents},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	type EventWrapper struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
		EventID int64           `json:"event_id"`
	}

	var wrapper EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return err
	}

	switch wrapper.Event {
	case "UserRegistered":
		var event domain.UserRegisteredEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			log.Printf("❌ Error parsing event: %v", err)
			return nil
		}
		event.EventID = wrapper.EventID

		if err := c.service.HandleUserRegistered(ctx, event); err != nil {
			log.Printf("❌ Error processing register event: %v", err)
			return err
		}
	case "OrderPaid":
		var event domain.OrderPaidEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			log.Printf("❌ Error parsing event: %v", err)
			return nil
		}
		event.EventID = wrapper.EventID

		if err := c.service.HandleOrderPaid(ctx, event); err != nil {
			log.Printf("❌ Error processing order paid event: %v", err)
			return err
		}
	case "NewsletterRequested":
		var event domain.NewsletterRequestedEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			log.Printf("❌ Error parsing event: %v", err)
			return nil
		}
		event.EventID = wrapper.EventID

		if err := c.service.HandleNewsletterRequested(ctx, event); err != nil {
			log.Printf("❌ Error processing newsletter event: %v", err)
			return err
		}
	default:
		log.Printf("Ignored event type: %s", wrapper.Event)
	}

	return nil
}
