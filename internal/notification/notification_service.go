package notification

import (
	"context"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/notification/email"
	"github.com/dabd2323/music-store/internal/repository"
	outboxUtils "github.com/dabd2323/music-store/pkg/outbox/utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type NotificationService struct {
	emailSender email.Sender
	userRepo    repository.UserRepository
	logger      *zap.Logger
	pool        *pgxpool.Pool
	tracer      trace.Tracer
}

func NewNotificationService(
	emailSender email.Sender,
	userRepo repository.UserRepository,
	logger *zap.Logger,
	pool *pgxpool.Pool,
) *NotificationService {
	return &NotificationService{
		emailSender: emailSender,
		userRepo:    userRepo,
		logger:      logger,
		pool:        pool,
		tracer:      otel.Tracer("notification-service"),
	}
}

func (s *NotificationService) HandleUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleUserRegistered")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", event.EventID))

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		return s.emailSender.SendWelcomeEmail(ctx, event.Email, event.Name)
	})
}

func (s *NotificationService) HandleOrderPaid(ctx context.Context, event domain.OrderPaidEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderPaid")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("event_id", event.EventID),
		attribute.Int64("order_id", event.OrderID),
	)

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		return s.emailSender.SendReceiptEmail(ctx, event.Email, event.OrderID, event.Amount)
	})
}

func (s *NotificationService) HandleNewsletterRequested(ctx context.Context, event domain.NewsletterRequestedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleNewsletterRequested")
	defer span.End()

	span.SetAttributes(attribute.Int64("event_id", event.EventID))

	return outboxUtils.ProcessWithDeduplication(ctx, s.pool, s.logger, event.EventID, func() error {
		emails, err := s.userRepo.ListEmails(ctx)
		if err != nil {
			return err
		}

		if len(emails) == 0 {
			return nil
		}

		return s.emailSender.SendNewsletter(ctx, emails, event.Subject, event.Body)
	})
}
