package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusExpired PaymentStatus = "expired"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsTerminal reports whether the status can never change again.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusExpired || s == PaymentStatusFailed
}

type Order struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	Amount        int64         `json:"amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Items         []OrderItem   `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// OrderItem snapshots the product name and price at checkout time so
// later catalog edits never change what the customer was billed.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Artist    string `json:"artist"`
	Price     int64  `json:"price"`
	Quantity  int32  `json:"quantity"`
}

type PaymentTransaction struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	SessionID string    `json:"session_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DownloadGrant is one purchased track made available to the buyer.
// The token is derived deterministically from the order, product and
// position so re-issuing grants can never mint a different token.
type DownloadGrant struct {
	OrderID       int64     `json:"order_id"`
	ProductID     int64     `json:"product_id"`
	TrackPosition int       `json:"track_position"`
	Token         string    `json:"token"`
	CreatedAt     time.Time `json:"created_at"`
}

type CheckoutRequest struct {
	Origin string `json:"origin" validate:"required,url"`
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	OrderID     int64  `json:"order_id"`
}

type CheckoutStatusResponse struct {
	Status        string          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	OrderID       int64           `json:"order_id"`
	Grants        []DownloadGrant `json:"grants,omitempty"`
}
