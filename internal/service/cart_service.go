package service

import (
	"context"
	"errors"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartService interface {
	AddItem(ctx context.Context, userID int64, req *domain.AddToCartRequest) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
}

type cartService struct {
	logger      *zap.Logger
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     PricingEngine
	tracer      trace.Tracer
}

func NewCartService(
	logger *zap.Logger,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	pricing PricingEngine,
) CartService {
	return &cartService{
		logger:      logger,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
		tracer:      otel.Tracer("cart_service"),
	}
}

func (s *cartService) AddItem(ctx context.Context, userID int64, req *domain.AddToCartRequest) error {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", req.ProductID),
	)

	// reject additions pointing at missing or deactivated products
	if _, err := s.productRepo.GetProductByID(ctx, req.ProductID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return &InvalidCartItemError{ProductID: req.ProductID, Reason: "product not available"}
		}

		span.RecordError(err)

		return err
	}

	if err := s.cartRepo.AddItem(ctx, userID, req.ProductID, req.Quantity); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to add cart item",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)

		return err
	}

	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
	)

	return s.cartRepo.RemoveItem(ctx, userID, productID)
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "CartService.Clear")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	return s.cartRepo.Clear(ctx, userID)
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("user_id", userID),
	)

	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Cart{
		Items: items,
		Total: s.pricing.CartTotal(items),
	}, nil
}
