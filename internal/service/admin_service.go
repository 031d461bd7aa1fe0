package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/pkg/mylogger"
	outboxDomain "github.com/dabd2323/music-store/pkg/outbox/domain"
	"github.com/dabd2323/music-store/pkg/outbox/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type StoreStats struct {
	UsersCount    int64 `json:"users_count"`
	ProductsCount int64 `json:"products_count"`
	OrdersCount   int64 `json:"orders_count"`
	Revenue       int64 `json:"revenue"`
}

type NewsletterRequest struct {
	Subject string `json:"subject" validate:"required,min=1"`
	Body    string `json:"body" validate:"required,min=1"`
}

type AdminService interface {
	Stats(ctx context.Context) (*StoreStats, error)
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, userID int64, role string) error
	DeleteUser(ctx context.Context, actorID, userID int64) error
	ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error)
	SendNewsletter(ctx context.Context, req *NewsletterRequest) error
}

type adminService struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	outboxRepo  worker.OutboxRepository
	tracer      trace.Tracer
}

func NewAdminService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	outboxRepo worker.OutboxRepository,
) AdminService {
	return &adminService{
		pool:        pool,
		logger:      logger,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		outboxRepo:  outboxRepo,
		tracer:      otel.Tracer("admin_service"),
	}
}

func (s *adminService) Stats(ctx context.Context) (*StoreStats, error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.Stats")
	defer span.End()

	usersCount, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	productsCount, err := s.productRepo.CountProducts(ctx)
	if err != nil {
		return nil, err
	}

	ordersCount, revenue, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &StoreStats{
		UsersCount:    usersCount,
		ProductsCount: productsCount,
		OrdersCount:   ordersCount,
		Revenue:       revenue,
	}, nil
}

func (s *adminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.ListUsers")
	defer span.End()

	return s.userRepo.ListUsers(ctx, limit, offset)
}

func (s *adminService) UpdateUserRole(ctx context.Context, userID int64, role string) error {
	ctx, span := s.tracer.Start(ctx, "AdminService.UpdateUserRole")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.String("role", role),
	)

	return s.userRepo.UpdateUserRole(ctx, userID, role)
}

// DeleteUser refuses to let an admin remove their own account so a
// store can never lock itself out of administration.
func (s *adminService) DeleteUser(ctx context.Context, actorID, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "AdminService.DeleteUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("actor_id", actorID),
		attribute.Int64("user_id", userID),
	)

	if actorID == userID {
		mylogger.Warn(
			ctx,
			s.logger,
			"Admin attempted to delete own account",
			zap.Int64("user_id", userID),
		)

		return ErrSelfDeleteForbidden
	}

	return s.userRepo.DeleteUser(ctx, userID)
}

func (s *adminService) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "AdminService.ListOrders")
	defer span.End()

	return s.orderRepo.ListAllOrders(ctx, limit, offset)
}

func (s *adminService) SendNewsletter(ctx context.Context, req *NewsletterRequest) error {
	ctx, span := s.tracer.Start(ctx, "AdminService.SendNewsletter")
	defer span.End()

	span.SetAttributes(
		attribute.String("subject", req.Subject),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(shutdownCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(
				shutdownCtx,
				s.logger,
				"Error rolling back transaction",
				zap.Error(err),
			)
		}
	}()

	wrapper := map[string]any{
		"event": "NewsletterRequested",
		"payload": map[string]any{
			"subject": req.Subject,
			"body":    req.Body,
		},
	}

	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to marshal wrapper: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Newsletter",
		AggregateID:   req.Subject,
		EventType:     "NewsletterRequested",
		Payload:       wrapperBytes,
		Topic:         domain.TopicNewsletterEvents,
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
