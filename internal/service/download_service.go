package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DownloadService issues download grants for paid orders. Tokens are an
// HMAC over (order, product, position) so re-deriving them for the same
// purchase always yields the same token.
type DownloadService interface {
	GrantsForOrder(order *domain.Order, tracks map[int64][]domain.Track) []domain.DownloadGrant
	ResolveToken(ctx context.Context, token string) (*domain.DownloadGrant, error)
}

type downloadService struct {
	signingKey []byte
	orderRepo  repository.OrderRepository
	logger     *zap.Logger
	tracer     trace.Tracer
}

func NewDownloadService(signingKey string, orderRepo repository.OrderRepository, logger *zap.Logger) DownloadService {
	return &downloadService{
		signingKey: []byte(signingKey),
		orderRepo:  orderRepo,
		logger:     logger,
		tracer:     otel.Tracer("download_service"),
	}
}

func (s *downloadService) token(orderID, productID int64, position int) string {
	mac := hmac.New(sha256.New, s.signingKey)
	fmt.Fprintf(mac, "%d|%d|%d", orderID, productID, position)

	return hex.EncodeToString(mac.Sum(nil))
}

func (s *downloadService) GrantsForOrder(order *domain.Order, tracks map[int64][]domain.Track) []domain.DownloadGrant {
	var grants []domain.DownloadGrant

	for _, item := range order.Items {
		productTracks := tracks[item.ProductID]
		if len(productTracks) == 0 {
			// single releases carry no track list, grant position 1
			grants = append(grants, domain.DownloadGrant{
				OrderID:       order.ID,
				ProductID:     item.ProductID,
				TrackPosition: 1,
				Token:         s.token(order.ID, item.ProductID, 1),
			})
			continue
		}

		for _, track := range productTracks {
			grants = append(grants, domain.DownloadGrant{
				OrderID:       order.ID,
				ProductID:     item.ProductID,
				TrackPosition: track.Position,
				Token:         s.token(order.ID, item.ProductID, track.Position),
			})
		}
	}

	return grants
}

func (s *downloadService) ResolveToken(ctx context.Context, token string) (*domain.DownloadGrant, error) {
	ctx, span := s.tracer.Start(ctx, "DownloadService.ResolveToken")
	defer span.End()

	grant, err := s.orderRepo.GetGrantByToken(ctx, token)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("order_id", grant.OrderID),
		attribute.Int64("product_id", grant.ProductID),
	)

	return grant, nil
}
