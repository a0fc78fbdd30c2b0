package models

import "time"

// Event types
const (
	EventTypeCheckoutCreated  = "CHECKOUT_CREATED"
	EventTypePaymentCompleted = "PAYMENT_COMPLETED"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckoutCreatedEvent published when a payment session is handed off to
// the provider
type CheckoutCreatedEvent struct {
	BaseEvent
	SessionID   string             `json:"session_id"`
	CheckoutID  string             `json:"checkout_id"`
	AmountCents int64              `json:"amount_cents"`
	Items       []CheckoutItemData `json:"items"`
}

// PaymentCompletedEvent published by the payment provider webhook bridge
type PaymentCompletedEvent struct {
	BaseEvent
	SessionID   string `json:"session_id"`
	CheckoutID  string `json:"checkout_id"`
	AmountCents int64  `json:"amount_cents"`
	TxID        string `json:"tx_id"`
}

// PaymentFailedEvent published when the provider reports a failed or
// abandoned payment
type PaymentFailedEvent struct {
	BaseEvent
	SessionID  string `json:"session_id"`
	CheckoutID string `json:"checkout_id"`
	Reason     string `json:"reason"`
}

// CheckoutItemData represents line item data in checkout events
type CheckoutItemData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitCents   int64  `json:"unit_cents"`
	VariantID   *int64 `json:"variant_id,omitempty"`
	VariantName string `json:"variant_name,omitempty"`
}
