package service

import (
	"errors"
	"testing"

	"github.com/dabd2323/music-store/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestPriceCart_Totals(t *testing.T) {
	pricing := NewPricingEngine()

	items := []domain.CartItem{
		{ProductID: 1, Name: "Abbey Road", Artist: "The Beatles", Price: 999, Quantity: 2},
		{ProductID: 2, Name: "Kind of Blue", Artist: "Miles Davis", Price: 1499, Quantity: 1},
	}

	orderItems, total, err := pricing.PriceCart(items)
	require.NoError(t, err)
	require.Len(t, orderItems, 2)
	require.Equal(t, int64(3497), total)

	require.Equal(t, int64(999), orderItems[0].Price)
	require.Equal(t, int32(2), orderItems[0].Quantity)
	require.Equal(t, "The Beatles", orderItems[0].Artist)
}

func TestPriceCart_EmptyCart(t *testing.T) {
	pricing := NewPricingEngine()

	_, _, err := pricing.PriceCart(nil)
	require.ErrorIs(t, err, ErrEmptyCart)

	_, _, err = pricing.PriceCart([]domain.CartItem{})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPriceCart_InvalidQuantity(t *testing.T) {
	pricing := NewPricingEngine()

	items := []domain.CartItem{
		{ProductID: 7, Name: "Blue Train", Price: 899, Quantity: 0},
	}

	_, _, err := pricing.PriceCart(items)

	var invalid *InvalidCartItemError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, int64(7), invalid.ProductID)
}

func TestPriceCart_NegativePrice(t *testing.T) {
	pricing := NewPricingEngine()

	items := []domain.CartItem{
		{ProductID: 3, Name: "Corrupted", Price: -1, Quantity: 1},
	}

	_, _, err := pricing.PriceCart(items)

	var invalid *InvalidCartItemError
	require.True(t, errors.As(err, &invalid))
	require.Equal(t, int64(3), invalid.ProductID)
}

func TestPriceCart_SnapshotsCatalogPrice(t *testing.T) {
	pricing := NewPricingEngine()

	items := []domain.CartItem{
		{ProductID: 1, Name: "Abbey Road", Price: 999, Quantity: 1},
	}

	orderItems, total, err := pricing.PriceCart(items)
	require.NoError(t, err)

	// a later catalog edit must not move the frozen line
	items[0].Price = 5000

	require.Equal(t, int64(999), orderItems[0].Price)
	require.Equal(t, int64(999), total)
}

func TestCartTotal(t *testing.T) {
	pricing := NewPricingEngine()

	require.Equal(t, int64(0), pricing.CartTotal(nil))

	items := []domain.CartItem{
		{ProductID: 1, Price: 500, Quantity: 3},
		{ProductID: 2, Price: 250, Quantity: 2},
	}
	require.Equal(t, int64(2000), pricing.CartTotal(items))
}
