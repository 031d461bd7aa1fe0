package repository

import (
	"context"
	"fmt"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartRepository interface {
	AddItem(ctx context.Context, userID, productID int64, quantity int32) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	GetItems(ctx context.Context, userID int64) ([]domain.CartItem, error)
	ListProductIDs(ctx context.Context, userID int64) ([]int64, error)
	Clear(ctx context.Context, userID int64) error
	ClearCart(ctx context.Context, tx pgx.Tx, userID int64) error
}

type cartRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewCartRepository(pool *pgxpool.Pool, logger *zap.Logger) CartRepository {
	return &cartRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("cart_repository"),
	}
}

func (r *cartRepo) AddItem(ctx context.Context, userID, productID int64, quantity int32) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
		attribute.Int("quantity", int(quantity)),
	)

	query := `
		INSERT INTO carts (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity
	`

	_, err := r.pool.Exec(ctx, query, userID, productID, quantity)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to add cart item",
			zap.Error(err),
		)

		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *cartRepo) RemoveItem(ctx context.Context, userID, productID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.RemoveItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)

	query := `
		DELETE FROM carts
		WHERE user_id = $1 AND product_id = $2
	`

	commandTag, err := r.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *cartRepo) GetItems(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetItems")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT c.product_id, p.name, p.artist, p.price, p.image_url, c.quantity
		FROM carts c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 AND p.active = TRUE
		ORDER BY c.product_id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query cart items",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.Artist,
			&item.Price,
			&item.ImageURL,
			&item.Quantity,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, err
	}

	return items, nil
}

// ListProductIDs returns every product referenced by the cart, without
// joining the catalog. GetItems filters out deactivated products, so
// callers that must notice a vanished product compare against this list.
func (r *cartRepo) ListProductIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.ListProductIDs")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		SELECT product_id
		FROM carts
		WHERE user_id = $1
		ORDER BY product_id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query cart product ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan cart product id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *cartRepo) Clear(ctx context.Context, userID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Clear")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		DELETE FROM carts
		WHERE user_id = $1
	`

	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to clear cart",
			zap.Error(err),
		)

		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

func (r *cartRepo) ClearCart(ctx context.Context, tx pgx.Tx, userID int64) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.ClearCart")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	query := `
		DELETE FROM carts
		WHERE user_id = $1
	`

	_, err := tx.Exec(ctx, query, userID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to clear cart",
			zap.Error(err),
		)

		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
