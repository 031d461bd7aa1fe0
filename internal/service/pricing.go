package service

import (
	"github.com/dabd2323/music-store/internal/domain"
)

// PricingEngine turns a cart into order lines with prices frozen at the
// moment of checkout. It is deliberately free of I/O, the caller feeds
// it the cart joined with live catalog rows.
type PricingEngine interface {
	PriceCart(items []domain.CartItem) ([]domain.OrderItem, int64, error)
	CartTotal(items []domain.CartItem) int64
}

type pricingEngine struct{}

func NewPricingEngine() PricingEngine {
	return &pricingEngine{}
}

func (p *pricingEngine) PriceCart(items []domain.CartItem) ([]domain.OrderItem, int64, error) {
	if len(items) == 0 {
		return nil, 0, ErrEmptyCart
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	var total int64

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, 0, &InvalidCartItemError{ProductID: item.ProductID, Reason: "quantity must be positive"}
		}
		if item.Price < 0 {
			return nil, 0, &InvalidCartItemError{ProductID: item.ProductID, Reason: "negative price"}
		}

		lineTotal := item.Price * int64(item.Quantity)
		total += lineTotal

		orderItems = append(orderItems, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Artist:    item.Artist,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	return orderItems, total, nil
}

func (p *pricingEngine) CartTotal(items []domain.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}

	return total
}
