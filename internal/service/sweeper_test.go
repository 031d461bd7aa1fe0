package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCheckout struct {
	CheckoutService
	expired map[int64]int
	failOn  map[int64]error
}

func newFakeCheckout() *fakeCheckout {
	return &fakeCheckout{
		expired: make(map[int64]int),
		failOn:  make(map[int64]error),
	}
}

func (f *fakeCheckout) ExpireOrder(_ context.Context, orderID int64) error {
	if err := f.failOn[orderID]; err != nil {
		return err
	}
	f.expired[orderID]++
	return nil
}

func TestSweep_ExpiresStalePending(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderRepo.stale = []int64{10, 11, 12}

	checkout := newFakeCheckout()
	sweeper := NewSweeper(orderRepo, checkout, zap.NewNop(), time.Hour, time.Minute)

	require.NoError(t, sweeper.Sweep(context.Background()))
	require.Equal(t, map[int64]int{10: 1, 11: 1, 12: 1}, checkout.expired)
}

func TestSweep_SkipsFailedOrders(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderRepo.stale = []int64{10, 11}

	checkout := newFakeCheckout()
	checkout.failOn[10] = errors.New("processor timeout")

	sweeper := NewSweeper(orderRepo, checkout, zap.NewNop(), time.Hour, time.Minute)

	// one failing order must not stop the sweep
	require.NoError(t, sweeper.Sweep(context.Background()))
	require.Equal(t, map[int64]int{11: 1}, checkout.expired)
}

func TestSweep_NothingStale(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	checkout := newFakeCheckout()

	sweeper := NewSweeper(orderRepo, checkout, zap.NewNop(), time.Hour, time.Minute)

	require.NoError(t, sweeper.Sweep(context.Background()))
	require.Empty(t, checkout.expired)
}

func TestTransitionStatus_TerminalStaysTerminal(t *testing.T) {
	orderRepo := newFakeOrderRepo()
	orderRepo.statuses[5] = domain.PaymentStatusPaid

	won, err := orderRepo.TransitionStatus(context.Background(), nil, 5, domain.PaymentStatusPending, domain.PaymentStatusExpired)
	require.NoError(t, err)
	require.False(t, won)
	require.Equal(t, domain.PaymentStatusPaid, orderRepo.statuses[5])
}
