package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, tx pgx.Tx, product *domain.Product) error
	GetProductByID(ctx context.Context, productID int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, productID int64, req *domain.UpdateProductRequest) error
	DeactivateProduct(ctx context.Context, productID int64) error
	GetTracks(ctx context.Context, productID int64) ([]domain.Track, error)
	CountProducts(ctx context.Context) (int64, error)
}

type productRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewProductRepository(pool *pgxpool.Pool, logger *zap.Logger) ProductRepository {
	return &productRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("product_repository"),
	}
}

func (r *productRepo) CreateProduct(ctx context.Context, tx pgx.Tx, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", product.Name),
		attribute.Int("tracks_count", len(product.Tracks)),
	)

	query := `
		INSERT INTO products (name, artist, description, price, image_url, category, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())
		RETURNING id, created_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		product.Name,
		product.Artist,
		product.Description,
		product.Price,
		product.ImageURL,
		product.Category,
	).Scan(&product.ID, &product.CreatedAt)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert product",
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert product: %w", err)
	}

	queryTrack := `
		INSERT INTO product_tracks (product_id, position, title, duration_seconds)
		VALUES ($1, $2, $3, $4)
	`

	for _, track := range product.Tracks {
		_, err := tx.Exec(
			ctx,
			queryTrack,
			product.ID,
			track.Position,
			track.Title,
			track.Duration,
		)
		if err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert track",
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert product track: %w", err)
		}
	}

	product.Active = true

	return nil
}

func (r *productRepo) GetProductByID(ctx context.Context, productID int64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetProductByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	query := `
		SELECT id, name, artist, description, price, image_url, category, active, created_at
		FROM products
		WHERE id = $1 AND active = TRUE
	`

	var product domain.Product
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&product.ID,
		&product.Name,
		&product.Artist,
		&product.Description,
		&product.Price,
		&product.ImageURL,
		&product.Category,
		&product.Active,
		&product.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	tracks, err := r.GetTracks(ctx, productID)
	if err != nil {
		return nil, err
	}
	product.Tracks = tracks

	return &product, nil
}

func (r *productRepo) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ListProducts")
	defer span.End()

	span.SetAttributes(
		attribute.String("search", filter.Search),
		attribute.String("category", filter.Category),
	)

	query := `
		SELECT id, name, artist, description, price, image_url, category, active, created_at
		FROM products
		WHERE active = TRUE
	`

	args := []any{}
	argPos := 1

	if filter.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR artist ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, filter.Category)
		argPos++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query products",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Artist,
			&product.Description,
			&product.Price,
			&product.ImageURL,
			&product.Category,
			&product.Active,
			&product.CreatedAt,
		); err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)

		return nil, err
	}

	span.SetAttributes(
		attribute.Int("result_count", len(products)),
	)

	return products, nil
}

func (r *productRepo) UpdateProduct(ctx context.Context, productID int64, req *domain.UpdateProductRequest) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.UpdateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	sets := []string{}
	args := []any{}
	argPos := 1

	addSet := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if req.Name != nil {
		addSet("name", *req.Name)
	}
	if req.Artist != nil {
		addSet("artist", *req.Artist)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Price != nil {
		addSet("price", *req.Price)
	}
	if req.ImageURL != nil {
		addSet("image_url", *req.ImageURL)
	}
	if req.Category != nil {
		addSet("category", *req.Category)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, productID)
	query := fmt.Sprintf(
		"UPDATE products SET %s WHERE id = $%d AND active = TRUE",
		strings.Join(sets, ", "),
		argPos,
	)

	commandTag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update product",
			zap.Error(err),
		)

		return fmt.Errorf("failed to update product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepo) DeactivateProduct(ctx context.Context, productID int64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeactivateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", productID),
	)

	query := `
		UPDATE products
		SET active = FALSE
		WHERE id = $1 AND active = TRUE
	`

	commandTag, err := r.pool.Exec(ctx, query, productID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to deactivate product",
			zap.Error(err),
		)

		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *productRepo) GetTracks(ctx context.Context, productID int64) ([]domain.Track, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetTracks")
	defer span.End()

	query := `
		SELECT position, title, duration_seconds
		FROM product_tracks
		WHERE product_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		var track domain.Track
		if err := rows.Scan(&track.Position, &track.Title, &track.Duration); err != nil {
			span.RecordError(err)

			return nil, err
		}

		tracks = append(tracks, track)
	}

	return tracks, rows.Err()
}

func (r *productRepo) CountProducts(ctx context.Context) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.CountProducts")
	defer span.End()

	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE active = TRUE`).Scan(&count)
	if err != nil {
		span.RecordError(err)

		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return count, nil
}
