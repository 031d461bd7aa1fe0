package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSelfDeleteForbidden = errors.New("admins cannot delete their own account")
	ErrPaymentUnavailable  = errors.New("payment processor unavailable")
)

// InvalidCartItemError names the offending line so the handler can tell
// the customer which product to remove.
type InvalidCartItemError struct {
	ProductID int64
	Reason    string
}

func (e *InvalidCartItemError) Error() string {
	return fmt.Sprintf("invalid cart item %d: %s", e.ProductID, e.Reason)
}
