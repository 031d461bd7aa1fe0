package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/dabd2323/music-store/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCartServiceForTest() (CartService, *fakeCartRepo, *fakeProductRepo) {
	cartRepo := newFakeCartRepo()
	productRepo := newFakeProductRepo()
	svc := NewCartService(zap.NewNop(), cartRepo, productRepo, NewPricingEngine())
	return svc, cartRepo, productRepo
}

func TestAddItem_MergesQuantity(t *testing.T) {
	svc, cartRepo, productRepo := newCartServiceForTest()
	productRepo.products[1] = &domain.Product{ID: 1, Name: "Abbey Road", Price: 999, Active: true}

	ctx := context.Background()
	require.NoError(t, svc.AddItem(ctx, 7, &domain.AddToCartRequest{ProductID: 1, Quantity: 1}))
	require.NoError(t, svc.AddItem(ctx, 7, &domain.AddToCartRequest{ProductID: 1, Quantity: 2}))

	require.Len(t, cartRepo.items[7], 1)
	require.Equal(t, int32(3), cartRepo.items[7][0].Quantity)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	svc, _, _ := newCartServiceForTest()

	err := svc.AddItem(context.Background(), 7, &domain.AddToCartRequest{ProductID: 99, Quantity: 1})

	var invalid *InvalidCartItemError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, int64(99), invalid.ProductID)
}

func TestAddItem_DeactivatedProduct(t *testing.T) {
	svc, _, productRepo := newCartServiceForTest()
	productRepo.products[1] = &domain.Product{ID: 1, Name: "Gone", Price: 999, Active: false}

	err := svc.AddItem(context.Background(), 7, &domain.AddToCartRequest{ProductID: 1, Quantity: 1})

	var invalid *InvalidCartItemError
	require.True(t, errors.As(err, &invalid))
}

func TestRemoveItem_NotInCart(t *testing.T) {
	svc, _, _ := newCartServiceForTest()

	err := svc.RemoveItem(context.Background(), 7, 1)
	require.ErrorIs(t, err, repository.ErrCartItemNotFound)
}

func TestClear_RemovesAllItems(t *testing.T) {
	svc, cartRepo, _ := newCartServiceForTest()
	cartRepo.items[7] = []domain.CartItem{
		{ProductID: 1, Price: 999, Quantity: 1},
		{ProductID: 2, Price: 1499, Quantity: 2},
	}

	require.NoError(t, svc.Clear(context.Background(), 7))
	require.Empty(t, cartRepo.items[7])
	require.Equal(t, []int64{7}, cartRepo.cleared)
}

func TestGetCart_Total(t *testing.T) {
	svc, cartRepo, _ := newCartServiceForTest()
	cartRepo.items[7] = []domain.CartItem{
		{ProductID: 1, Price: 999, Quantity: 2},
		{ProductID: 2, Price: 1499, Quantity: 1},
	}

	cart, err := svc.GetCart(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(3497), cart.Total)
	require.Len(t, cart.Items, 2)
}

func TestGetCart_Empty(t *testing.T) {
	svc, _, _ := newCartServiceForTest()

	cart, err := svc.GetCart(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, int64(0), cart.Total)
	require.Empty(t, cart.Items)
}
