package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/payment"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/pkg/mylogger"
	outboxDomain "github.com/dabd2323/music-store/pkg/outbox/domain"
	"github.com/dabd2323/music-store/pkg/outbox/worker"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreateSession(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.CheckoutResponse, error)
	SessionStatus(ctx context.Context, userID int64, sessionID string) (*domain.CheckoutStatusResponse, error)
	HandleSessionEvent(ctx context.Context, sessionID string) error
	ExpireOrder(ctx context.Context, orderID int64) error
	ListOrders(ctx context.Context, userID int64) ([]domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error)
}

type checkoutService struct {
	pool          *pgxpool.Pool
	logger        *zap.Logger
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	orderRepo     repository.OrderRepository
	userRepo      repository.UserRepository
	outboxRepo    worker.OutboxRepository
	pricing       PricingEngine
	downloads     DownloadService
	paymentClient payment.Client
	breaker       *gobreaker.CircuitBreaker
	tracer        trace.Tracer
}

func NewCheckoutService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	outboxRepo worker.OutboxRepository,
	pricing PricingEngine,
	downloads DownloadService,
	paymentClient payment.Client,
	breaker *gobreaker.CircuitBreaker,
) CheckoutService {
	return &checkoutService{
		pool:          pool,
		logger:        logger,
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		outboxRepo:    outboxRepo,
		pricing:       pricing,
		downloads:     downloads,
		paymentClient: paymentClient,
		breaker:       breaker,
		tracer:        otel.Tracer("checkout_service"),
	}
}

// CreateSession freezes the cart into a pending order, then asks the
// payment processor for a hosted checkout session. The order is created
// before the processor call so an abandoned session leaves a pending
// order for the sweeper to expire.
func (s *checkoutService) CreateSession(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CreateSession")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	cartItems, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	// GetItems joins only active products. Compare against the raw cart
	// rows so a product deactivated after it was carted fails the whole
	// attempt instead of silently shrinking the order.
	cartProductIDs, err := s.cartRepo.ListProductIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	available := make(map[int64]struct{}, len(cartItems))
	for _, item := range cartItems {
		available[item.ProductID] = struct{}{}
	}

	for _, productID := range cartProductIDs {
		if _, ok := available[productID]; !ok {
			return nil, &InvalidCartItemError{ProductID: productID, Reason: "product not available"}
		}
	}

	orderItems, total, err := s.pricing.PriceCart(cartItems)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        userID,
		Amount:        total,
		PaymentStatus: domain.PaymentStatusPending,
		Items:         orderItems,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
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

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to create order",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("order_id", order.ID),
	)

	sessionItems := make([]payment.SessionItem, len(orderItems))
	for i, item := range orderItems {
		sessionItems[i] = payment.SessionItem{
			Name:     fmt.Sprintf("%s - %s", item.Artist, item.Name),
			Amount:   item.Price,
			Quantity: item.Quantity,
		}
	}

	sessionAny, err := s.breaker.Execute(func() (any, error) {
		return s.paymentClient.CreateSession(ctx, &payment.CreateSessionRequest{
			Items:      sessionItems,
			SuccessURL: req.Origin + "/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  req.Origin + "/cart",
			Reference:  fmt.Sprintf("%d", order.ID),
		})
	})
	if err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Payment session creation failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)

		return nil, ErrPaymentUnavailable
	}
	session := sessionAny.(*payment.Session)

	txnTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		err := txnTx.Rollback(shutdownCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	txn := &domain.PaymentTransaction{
		OrderID:   order.ID,
		SessionID: session.ID,
		Amount:    total,
		Status:    payment.SessionStatusOpen,
	}

	if err := s.orderRepo.CreateTransaction(ctx, txnTx, txn); err != nil {
		return nil, err
	}

	if err := s.emitEvent(ctx, txnTx, "CheckoutSessionCreated", domain.TopicOrderEvents, order.ID, map[string]any{
		"order_id":   order.ID,
		"user_id":    userID,
		"session_id": session.ID,
		"amount":     total,
	}); err != nil {
		return nil, err
	}

	if err := txnTx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &domain.CheckoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		OrderID:     order.ID,
	}, nil
}

// SessionStatus reconciles the local order with what the processor
// reports. Terminal orders are never moved again, a paid report against
// an expired or failed order is only logged. Exactly one caller wins the
// pending to paid transition, everyone else sees the stored state.
func (s *checkoutService) SessionStatus(ctx context.Context, userID int64, sessionID string) (*domain.CheckoutStatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.SessionStatus")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	txn, err := s.orderRepo.GetTransactionBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetOrderByID(ctx, txn.OrderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		// do not leak other customers' sessions
		return nil, repository.ErrSessionNotFound
	}

	if order.PaymentStatus == domain.PaymentStatusPaid {
		return s.paidResponse(ctx, order, txn)
	}

	sessionAny, err := s.breaker.Execute(func() (any, error) {
		return s.paymentClient.GetSession(ctx, sessionID)
	})
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Processor status check failed, keeping stored state",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		// transient processor failures never change the order
		return &domain.CheckoutStatusResponse{
			Status:        txn.Status,
			PaymentStatus: order.PaymentStatus,
			OrderID:       order.ID,
		}, nil
	}
	session := sessionAny.(*payment.Session)

	if order.PaymentStatus.IsTerminal() {
		if session.PaymentStatus == payment.PaymentStatusPaid {
			mylogger.Error(
				ctx,
				s.logger,
				"Processor reports paid for a terminal order, refusing to overwrite",
				zap.Int64("order_id", order.ID),
				zap.String("stored_status", string(order.PaymentStatus)),
			)
		}

		return &domain.CheckoutStatusResponse{
			Status:        txn.Status,
			PaymentStatus: order.PaymentStatus,
			OrderID:       order.ID,
		}, nil
	}

	switch {
	case session.Status == payment.SessionStatusComplete && session.PaymentStatus == payment.PaymentStatusPaid:
		if err := s.confirmPayment(ctx, order, txn); err != nil {
			return nil, err
		}
	case session.Status == payment.SessionStatusExpired:
		if err := s.transition(ctx, order.ID, sessionID, domain.PaymentStatusExpired, payment.SessionStatusExpired); err != nil {
			return nil, err
		}
	}

	order, err = s.orderRepo.GetOrderByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus == domain.PaymentStatusPaid {
		txn, err = s.orderRepo.GetTransactionBySession(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		return s.paidResponse(ctx, order, txn)
	}

	return &domain.CheckoutStatusResponse{
		Status:        session.Status,
		PaymentStatus: order.PaymentStatus,
		OrderID:       order.ID,
	}, nil
}

// HandleSessionEvent reconciles an order in response to a processor
// webhook. The webhook payload is not trusted, the session is re-read
// from the processor and driven through the same transitions as
// polling, so duplicate or out-of-order deliveries are harmless.
func (s *checkoutService) HandleSessionEvent(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.HandleSessionEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	txn, err := s.orderRepo.GetTransactionBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	order, err := s.orderRepo.GetOrderByID(ctx, txn.OrderID)
	if err != nil {
		return err
	}

	if order.PaymentStatus == domain.PaymentStatusPaid {
		return nil
	}

	sessionAny, err := s.breaker.Execute(func() (any, error) {
		return s.paymentClient.GetSession(ctx, sessionID)
	})
	if err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Processor status check failed, webhook will be redelivered",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		return ErrPaymentUnavailable
	}
	session := sessionAny.(*payment.Session)

	if order.PaymentStatus.IsTerminal() {
		if session.PaymentStatus == payment.PaymentStatusPaid {
			mylogger.Error(
				ctx,
				s.logger,
				"Processor reports paid for a terminal order, refusing to overwrite",
				zap.Int64("order_id", order.ID),
				zap.String("stored_status", string(order.PaymentStatus)),
			)
		}

		return nil
	}

	switch {
	case session.Status == payment.SessionStatusComplete && session.PaymentStatus == payment.PaymentStatusPaid:
		return s.confirmPayment(ctx, order, txn)
	case session.Status == payment.SessionStatusExpired:
		return s.transition(ctx, order.ID, sessionID, domain.PaymentStatusExpired, payment.SessionStatusExpired)
	}

	return nil
}

func (s *checkoutService) paidResponse(ctx context.Context, order *domain.Order, txn *domain.PaymentTransaction) (*domain.CheckoutStatusResponse, error) {
	grants, err := s.orderRepo.GetGrantsByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutStatusResponse{
		Status:        txn.Status,
		PaymentStatus: order.PaymentStatus,
		OrderID:       order.ID,
		Grants:        grants,
	}, nil
}

// confirmPayment performs the single pending to paid transition. The
// winner attaches download grants, clears the cart and emits OrderPaid
// in one transaction. Losers fall through and read the stored state.
func (s *checkoutService) confirmPayment(ctx context.Context, order *domain.Order, txn *domain.PaymentTransaction) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.confirmPayment")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", order.ID),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(shutdownCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	won, err := s.orderRepo.TransitionStatus(ctx, tx, order.ID, domain.PaymentStatusPending, domain.PaymentStatusPaid)
	if err != nil {
		return err
	}

	if !won {
		mylogger.Info(
			ctx,
			s.logger,
			"Another confirmation already settled this order",
			zap.Int64("order_id", order.ID),
		)

		return nil
	}

	tracks := make(map[int64][]domain.Track, len(order.Items))
	for _, item := range order.Items {
		productTracks, err := s.productRepo.GetTracks(ctx, item.ProductID)
		if err != nil {
			return err
		}
		tracks[item.ProductID] = productTracks
	}

	grants := s.downloads.GrantsForOrder(order, tracks)
	if err := s.orderRepo.InsertGrants(ctx, tx, grants); err != nil {
		return err
	}

	if err := s.orderRepo.UpdateTransactionStatus(ctx, tx, txn.SessionID, payment.SessionStatusComplete); err != nil {
		return err
	}

	if err := s.cartRepo.ClearCart(ctx, tx, order.UserID); err != nil {
		return err
	}

	var email string
	if user, err := s.userRepo.GetUserByID(ctx, order.UserID); err == nil {
		email = user.Email
	}

	if err := s.emitEvent(ctx, tx, "OrderPaid", domain.TopicOrderEvents, order.ID, map[string]any{
		"order_id":   order.ID,
		"user_id":    order.UserID,
		"email":      email,
		"amount":     order.Amount,
		"session_id": txn.SessionID,
		"paid_at":    time.Now().UTC(),
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order paid",
		zap.Int64("order_id", order.ID),
		zap.Int("grants", len(grants)),
	)

	return nil
}

func (s *checkoutService) transition(ctx context.Context, orderID int64, sessionID string, to domain.PaymentStatus, txnStatus string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		err := tx.Rollback(shutdownCtx)

		if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, s.logger, "Error rolling back transaction", zap.Error(err))
		}
	}()

	won, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, domain.PaymentStatusPending, to)
	if err != nil {
		return err
	}

	if won && sessionID != "" {
		if err := s.orderRepo.UpdateTransactionStatus(ctx, tx, sessionID, txnStatus); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ExpireOrder is used by the sweeper to close out abandoned pending
// orders. Orders already settled are left alone.
func (s *checkoutService) ExpireOrder(ctx context.Context, orderID int64) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ExpireOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	return s.transition(ctx, orderID, "", domain.PaymentStatusExpired, payment.SessionStatusExpired)
}

func (s *checkoutService) ListOrders(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ListOrders")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	return s.orderRepo.ListOrdersByUser(ctx, userID)
}

func (s *checkoutService) GetOrder(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.GetOrder")
	defer span.End()

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}

	return order, nil
}

func (s *checkoutService) emitEvent(ctx context.Context, tx pgx.Tx, eventType, topic string, aggregateID int64, payload any) error {
	wrapper := map[string]any{
		"event":   eventType,
		"payload": payload,
	}

	wrapperBytes, err := json.Marshal(wrapper)
	if err != nil {
		return fmt.Errorf("failed to marshal wrapper: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Order",
		AggregateID:   fmt.Sprintf("%d", aggregateID),
		EventType:     eventType,
		Payload:       wrapperBytes,
		Topic:         topic,
	}

	return s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent)
}
