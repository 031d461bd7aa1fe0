package service

import (
	"context"
	"time"

	"github.com/dabd2323/music-store/internal/repository"
	"github.com/dabd2323/music-store/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Sweeper periodically expires pending orders whose checkout session
// has outlived its TTL. Failures on individual orders are logged and
// skipped, the next tick retries them.
type Sweeper struct {
	orderRepo  repository.OrderRepository
	checkout   CheckoutService
	logger     *zap.Logger
	sessionTTL time.Duration
	interval   time.Duration
	batchSize  int
	tracer     trace.Tracer
}

func NewSweeper(
	orderRepo repository.OrderRepository,
	checkout CheckoutService,
	logger *zap.Logger,
	sessionTTL time.Duration,
	interval time.Duration,
) *Sweeper {
	return &Sweeper{
		orderRepo:  orderRepo,
		checkout:   checkout,
		logger:     logger,
		sessionTTL: sessionTTL,
		interval:   interval,
		batchSize:  100,
		tracer:     otel.Tracer("order_sweeper"),
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	mylogger.Info(ctx, s.logger, "Starting order sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, s.logger, "Order sweeper stopping")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				mylogger.Error(
					ctx,
					s.logger,
					"Sweep failed",
					zap.Error(err),
				)
			}
		}
	}
}

func (s *Sweeper) Sweep(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "Sweeper.Sweep")
	defer span.End()

	cutoff := time.Now().Add(-s.sessionTTL)

	ids, err := s.orderRepo.ListStalePending(ctx, cutoff, s.batchSize)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	span.SetAttributes(
		attribute.Int("stale_count", len(ids)),
	)

	expired := 0
	for _, id := range ids {
		if err := s.checkout.ExpireOrder(ctx, id); err != nil {
			mylogger.Warn(
				ctx,
				s.logger,
				"Failed to expire order, will retry next tick",
				zap.Int64("order_id", id),
				zap.Error(err),
			)
			continue
		}

		expired++
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Sweep finished",
		zap.Int("expired", expired),
		zap.Int("stale", len(ids)),
	)

	return nil
}
