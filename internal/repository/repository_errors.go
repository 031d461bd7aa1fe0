package repository

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already taken")
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrSessionNotFound     = errors.New("payment session not found")
	ErrCartItemNotFound    = errors.New("cart item not found")
	ErrOrderStatusConflict = errors.New("order already in a terminal status")
)
