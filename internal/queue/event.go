// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// OrderCreatedEvent is published when a reservation succeeds.  It
// carries enough information for downstream consumers to log, notify,
// or feed analytics without querying the primary database.
type OrderCreatedEvent struct {
	OrderID         uint64 `json:"order_id"`
	OrderRef        string `json:"order_ref"`
	UserID          uint64 `json:"user_id"`
	ServiceID       uint64 `json:"service_id"`
	ServiceName     string `json:"service_name"`
	SlotID          uint64 `json:"slot_id"`
	SlotDate        string `json:"slot_date"`
	SlotTime        string `json:"slot_time"`
	TotalPriceCents int64  `json:"total_price_cents"`
	CreatedAt       string `json:"created_at"`
}

// PaymentStatusEvent is published when the reconciliation workflow
// moves an order's payment status.  CapacityRestored is true only on
// the delivery that actually gave slot capacity back.
type PaymentStatusEvent struct {
	OrderID          uint64 `json:"order_id"`
	OrderRef         string `json:"order_ref"`
	SlotID           uint64 `json:"slot_id"`
	PaymentStatus    string `json:"payment_status"`
	GatewayStatus    string `json:"gateway_status"`
	CapacityRestored bool   `json:"capacity_restored"`
	OccurredAt       string `json:"occurred_at"`
}
