package model

import "time"

// Order records a booking transaction.  It is the aggregate root of a
// reservation: it references the user, the service and the slot but
// does not own their lifecycle.  TotalPriceCents is snapshotted from
// the caller at creation time and never recomputed from the service's
// live price.  Orders are never deleted through the API.
//
// Fields:
//  ID               – primary key identifier.
//  OrderRef         – UUID handed to the payment gateway as the
//                     external order identifier.
//  UserID           – user who placed the order.
//  ServiceID        – ordered service.
//  SlotID           – schedule slot consumed by the order.
//  TotalPriceCents  – non-negative price snapshot in cents.
//  PaymentStatus    – one of the Payment* constants.
//  OrderStatus      – one of the Order* constants (admin-driven).
//  GatewayTxnID     – transaction id assigned by the gateway (nullable).
//  CapacityRestored – set once the slot capacity consumed by this
//                     order has been given back; guards reconciliation
//                     against duplicate gateway deliveries.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Order struct {
	ID               uint64    // orders.id
	OrderRef         string    // orders.order_ref
	UserID           uint64    // orders.user_id
	ServiceID        uint64    // orders.service_id
	SlotID           uint64    // orders.slot_id
	TotalPriceCents  int64     // orders.total_price_cents
	PaymentStatus    string    // orders.payment_status
	OrderStatus      string    // orders.order_status
	GatewayTxnID     *string   // orders.gateway_txn_id (nullable)
	CapacityRestored bool      // orders.capacity_restored
	CreatedAt        time.Time // orders.created_at
	UpdatedAt        time.Time // orders.updated_at
}

// Payment lifecycle of an order.  Only the reconciliation workflow and
// direct admin updates move an order between these states.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentExpired = "expired"
)

// Fulfilment lifecycle of an order, driven by admin updates.
const (
	OrderPending   = "pending"
	OrderApproved  = "approved"
	OrderCompleted = "completed"
)

// ValidPaymentStatus reports whether s is a known payment state.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentExpired:
		return true
	}
	return false
}

// ValidOrderStatus reports whether s is a known fulfilment state.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderApproved, OrderCompleted:
		return true
	}
	return false
}
