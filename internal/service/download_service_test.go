package service

import (
	"testing"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:     42,
		UserID: 7,
		Items: []domain.OrderItem{
			{ProductID: 1, Name: "Abbey Road", Quantity: 1},
			{ProductID: 2, Name: "Single", Quantity: 1},
		},
	}
}

func TestGrantsForOrder_Deterministic(t *testing.T) {
	svc := NewDownloadService("test-key", nil, zap.NewNop())

	tracks := map[int64][]domain.Track{
		1: {
			{Position: 1, Title: "Come Together"},
			{Position: 2, Title: "Something"},
		},
	}

	first := svc.GrantsForOrder(testOrder(), tracks)
	second := svc.GrantsForOrder(testOrder(), tracks)

	require.Equal(t, first, second)
}

func TestGrantsForOrder_MultiTrack(t *testing.T) {
	svc := NewDownloadService("test-key", nil, zap.NewNop())

	tracks := map[int64][]domain.Track{
		1: {
			{Position: 1, Title: "Come Together"},
			{Position: 2, Title: "Something"},
			{Position: 3, Title: "Octopus's Garden"},
		},
	}

	grants := svc.GrantsForOrder(testOrder(), tracks)

	// three album tracks plus one implicit grant for the single
	require.Len(t, grants, 4)

	seen := make(map[string]bool)
	for _, g := range grants {
		require.NotEmpty(t, g.Token)
		require.False(t, seen[g.Token], "tokens must be unique per grant")
		seen[g.Token] = true
		require.Equal(t, int64(42), g.OrderID)
	}
}

func TestGrantsForOrder_SingleWithoutTracklist(t *testing.T) {
	svc := NewDownloadService("test-key", nil, zap.NewNop())

	order := &domain.Order{
		ID:    9,
		Items: []domain.OrderItem{{ProductID: 5, Quantity: 1}},
	}

	grants := svc.GrantsForOrder(order, nil)
	require.Len(t, grants, 1)
	require.Equal(t, 1, grants[0].TrackPosition)
}

func TestGrantsForOrder_KeyChangesToken(t *testing.T) {
	a := NewDownloadService("key-a", nil, zap.NewNop())
	b := NewDownloadService("key-b", nil, zap.NewNop())

	order := &domain.Order{
		ID:    9,
		Items: []domain.OrderItem{{ProductID: 5, Quantity: 1}},
	}

	require.NotEqual(
		t,
		a.GrantsForOrder(order, nil)[0].Token,
		b.GrantsForOrder(order, nil)[0].Token,
	)
}
