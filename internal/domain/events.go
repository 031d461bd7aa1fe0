package domain

import "time"

const (
	TopicOrderEvents      = "order_events"
	TopicUserEvents       = "user_events"
	TopicNewsletterEvents = "newsletter_events"
)

type OrderPaidEvent struct {
	EventID   int64     `json:"event_id"`
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	SessionID string    `json:"session_id"`
}

type UserRegisteredEvent struct {
	EventID int64  `json:"event_id"`
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

type NewsletterRequestedEvent struct {
	EventID int64  `json:"event_id"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
