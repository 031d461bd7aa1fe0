package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CatalogService interface {
	Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) error
	Delete(ctx context.Context, id int64) error
}

type catalogService struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	productRepo repository.ProductRepository
	tracer      trace.Tracer
}

func NewCatalogService(pool *pgxpool.Pool, logger *zap.Logger, productRepo repository.ProductRepository) CatalogService {
	return &catalogService{
		pool:        pool,
		logger:      logger,
		productRepo: productRepo,
		tracer:      otel.Tracer("catalog_service"),
	}
}

func (s *catalogService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", req.Name),
	)

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

	product := &domain.Product{
		Name:        req.Name,
		Artist:      req.Artist,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Tracks:      req.Tracks,
	}

	if err := s.productRepo.CreateProduct(ctx, tx, product); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return product, nil
}

func (s *catalogService) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
	)

	return s.productRepo.GetProductByID(ctx, id)
}

func (s *catalogService) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.List")
	defer span.End()

	return s.productRepo.ListProducts(ctx, filter)
}

func (s *catalogService) Update(ctx context.Context, id int64, req *domain.UpdateProductRequest) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Update")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
	)

	return s.productRepo.UpdateProduct(ctx, id, req)
}

func (s *catalogService) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
	)

	return s.productRepo.DeactivateProduct(ctx, id)
}
