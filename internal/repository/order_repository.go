package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetOrderByID(ctx context.Context, orderID int64) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAllOrders(ctx context.Context, limit, offset int) ([]domain.Order, error)
	TransitionStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to domain.PaymentStatus) (bool, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]int64, error)
	CreateTransaction(ctx context.Context, tx pgx.Tx, txn *domain.PaymentTransaction) error
	GetTransactionBySession(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error)
	UpdateTransactionStatus(ctx context.Context, tx pgx.Tx, sessionID, status string) error
	InsertGrants(ctx context.Context, tx pgx.Tx, grants []domain.DownloadGrant) error
	GetGrantsByOrder(ctx context.Context, orderID int64) ([]domain.DownloadGrant, error)
	GetGrantByToken(ctx context.Context, token string) (*domain.DownloadGrant, error)
	Stats(ctx context.Context) (ordersCount int64, revenue int64, err error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", order.UserID),
		attribute.Int("items_count", len(order.Items)),
	)

	queryOrder := `
		INSERT INTO orders (user_id, payment_status, amount, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(
		ctx,
		queryOrder,
		order.UserID,
		string(order.PaymentStatus),
		order.Amount,
	).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.Error(err),
		)

		return err
	}

	queryItem := `
		INSERT INTO order_items (order_id, product_id, name, artist, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range order.Items {
		_, err := tx.Exec(
			ctx,
			queryItem,
			order.ID,
			item.ProductID,
			item.Name,
			item.Artist,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order item",
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetOrderByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetOrderByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := `
		SELECT id, user_id, amount, payment_status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order domain.Order
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.PaymentStatus,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.getItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *orderRepo) getItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `
		SELECT product_id, name, artist, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.Artist,
			&item.Price,
			&item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepo) ListOrdersByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListOrdersByUser")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT id, user_id, amount, payment_status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.queryOrders(ctx, span, query, userID)
}

func (r *orderRepo) ListAllOrders(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListAllOrders")
	defer span.End()

	query := `
		SELECT id, user_id, amount, payment_status, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return r.queryOrders(ctx, span, query, limit, offset)
}

func (r *orderRepo) queryOrders(ctx context.Context, span trace.Span, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query orders",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Amount,
			&order.PaymentStatus,
			&order.CreatedAt,
			&order.UpdatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, err
	}

	for i := range orders {
		items, err := r.getItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// TransitionStatus moves the order from one payment status to another only
// if it is still in the expected source status. Returns false without error
// when another writer got there first, the caller decides what that means.
func (r *orderRepo) TransitionStatus(ctx context.Context, tx pgx.Tx, orderID int64, from, to domain.PaymentStatus) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.TransitionStatus")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)

	query := `
		UPDATE orders
		SET payment_status = $1, updated_at = NOW()
		WHERE id = $2 AND payment_status = $3
	`

	commandTag, err := tx.Exec(ctx, query, string(to), orderID, string(from))
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order status",
			zap.Error(err),
		)

		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return commandTag.RowsAffected() == 1, nil
}

func (r *orderRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]int64, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListStalePending")
	defer span.End()

	query := `
		SELECT id
		FROM orders
		WHERE payment_status = 'pending' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query stale orders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)

			return nil, err
		}

		ids = append(ids, id)
	}

	span.SetAttributes(
		attribute.Int("result_count", len(ids)),
	)

	return ids, rows.Err()
}

func (r *orderRepo) CreateTransaction(ctx context.Context, tx pgx.Tx, txn *domain.PaymentTransaction) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateTransaction")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", txn.OrderID),
		attribute.String("session_id", txn.SessionID),
	)

	query := `
		INSERT INTO payment_transactions (order_id, session_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		txn.OrderID,
		txn.SessionID,
		txn.Amount,
		txn.Status,
	).Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert payment transaction",
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert payment transaction: %w", err)
	}

	return nil
}

func (r *orderRepo) GetTransactionBySession(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetTransactionBySession")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	query := `
		SELECT id, order_id, session_id, amount, status, created_at, updated_at
		FROM payment_transactions
		WHERE session_id = $1
	`

	var txn domain.PaymentTransaction
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&txn.ID,
		&txn.OrderID,
		&txn.SessionID,
		&txn.Amount,
		&txn.Status,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query payment transaction: %w", err)
	}

	return &txn, nil
}

func (r *orderRepo) UpdateTransactionStatus(ctx context.Context, tx pgx.Tx, sessionID, status string) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.UpdateTransactionStatus")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("status", status),
	)

	query := `
		UPDATE payment_transactions
		SET status = $1, updated_at = NOW()
		WHERE session_id = $2
	`

	commandTag, err := tx.Exec(ctx, query, status, sessionID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to update payment transaction: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// InsertGrants is idempotent, re-inserting an existing grant is a no-op so
// repeated confirmations never duplicate or rotate download tokens.
func (r *orderRepo) InsertGrants(ctx context.Context, tx pgx.Tx, grants []domain.DownloadGrant) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.InsertGrants")
	defer span.End()

	span.SetAttributes(
		attribute.Int("grants_count", len(grants)),
	)

	query := `
		INSERT INTO download_grants (order_id, product_id, track_position, token, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (order_id, product_id, track_position) DO NOTHING
	`

	for _, grant := range grants {
		_, err := tx.Exec(
			ctx,
			query,
			grant.OrderID,
			grant.ProductID,
			grant.TrackPosition,
			grant.Token,
		)
		if err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert download grant",
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert download grant: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) GetGrantsByOrder(ctx context.Context, orderID int64) ([]domain.DownloadGrant, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetGrantsByOrder")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("order_id", orderID),
	)

	query := `
		SELECT order_id, product_id, track_position, token, created_at
		FROM download_grants
		WHERE order_id = $1
		ORDER BY product_id, track_position
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query download grants: %w", err)
	}
	defer rows.Close()

	var grants []domain.DownloadGrant
	for rows.Next() {
		var grant domain.DownloadGrant
		if err := rows.Scan(
			&grant.OrderID,
			&grant.ProductID,
			&grant.TrackPosition,
			&grant.Token,
			&grant.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, err
		}

		grants = append(grants, grant)
	}

	return grants, rows.Err()
}

func (r *orderRepo) GetGrantByToken(ctx context.Context, token string) (*domain.DownloadGrant, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetGrantByToken")
	defer span.End()

	query := `
		SELECT order_id, product_id, track_position, token, created_at
		FROM download_grants
		WHERE token = $1
	`

	var grant domain.DownloadGrant
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&grant.OrderID,
		&grant.ProductID,
		&grant.TrackPosition,
		&grant.Token,
		&grant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query download grant: %w", err)
	}

	return &grant, nil
}

func (r *orderRepo) Stats(ctx context.Context) (int64, int64, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Stats")
	defer span.End()

	query := `
		SELECT COUNT(*), COALESCE(SUM(amount) FILTER (WHERE payment_status = 'paid'), 0)
		FROM orders
	`

	var count, revenue int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count, &revenue); err != nil {
		span.RecordError(err)

		return 0, 0, fmt.Errorf("failed to query order stats: %w", err)
	}

	return count, revenue, nil
}
