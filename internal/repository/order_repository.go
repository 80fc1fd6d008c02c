package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/inovix/booking-api/internal/model"
)

// OrderRepo provides persistence for orders.  Orders are created only
// through the reservation workflow and their payment status is moved
// only by the reconciliation workflow or direct admin updates; the
// repository exposes narrowly scoped methods for each of those paths
// rather than a general-purpose save.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning orders and slots.
func (r *OrderRepo) DB() *sql.DB { return r.db }

const orderColumns = "id, order_ref, user_id, service_id, slot_id, total_price_cents, payment_status, order_status, gateway_txn_id, capacity_restored, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }) (model.Order, error) {
	var o model.Order
	var txn sql.NullString
	err := row.Scan(&o.ID, &o.OrderRef, &o.UserID, &o.ServiceID, &o.SlotID,
		&o.TotalPriceCents, &o.PaymentStatus, &o.OrderStatus, &txn,
		&o.CapacityRestored, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Order{}, err
	}
	if txn.Valid {
		id := txn.String
		o.GatewayTxnID = &id
	}
	return o, nil
}

// CreateTx inserts a new order within the caller's transaction and
// populates the generated ID.  The reservation workflow calls this
// after the conditional capacity decrement succeeded, so rolling the
// transaction back on error also undoes the decrement.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (order_ref, user_id, service_id, slot_id, total_price_cents, payment_status, order_status) VALUES (?,?,?,?,?,?,?)",
		o.OrderRef, o.UserID, o.ServiceID, o.SlotID, o.TotalPriceCents,
		o.PaymentStatus, o.OrderStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByID returns a single order or ErrOrderNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// GetByRef returns the order carrying the given external reference,
// the identifier the payment gateway echoes back in notifications.
func (r *OrderRepo) GetByRef(ctx context.Context, ref string) (model.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE order_ref = ?", ref)
	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	return o, err
}

// OrderFilter narrows List results.  Zero values mean "no filter".
type OrderFilter struct {
	UserID        uint64
	ServiceID     uint64
	PaymentStatus string
	OrderStatus   string
}

// List returns orders matching the filter, newest first.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders"
	var conds []string
	var args []any
	if f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.ServiceID != 0 {
		conds = append(conds, "service_id = ?")
		args = append(args, f.ServiceID)
	}
	if f.PaymentStatus != "" {
		conds = append(conds, "payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	if f.OrderStatus != "" {
		conds = append(conds, "order_status = ?")
		args = append(args, f.OrderStatus)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// SetPaymentStatus writes a payment status directly.  Used for the
// transitions that carry no capacity effect (paid, pending); repeating
// the same write is harmless.
func (r *OrderRepo) SetPaymentStatus(ctx context.Context, orderID uint64, status string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE orders SET payment_status = ? WHERE id = ?", status, orderID)
	return err
}

// MarkExpiredOnceTx atomically moves an order to payment status
// "expired" and sets the capacity_restored marker, but only if the
// marker is still clear.  It reports whether this call won the
// transition: exactly one delivery of a cancel/expire notification
// gets true, so the slot restore that follows runs at most once no
// matter how often the gateway redelivers.
func (r *OrderRepo) MarkExpiredOnceTx(ctx context.Context, tx *sql.Tx, orderID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET payment_status = ?, capacity_restored = 1 WHERE id = ? AND capacity_restored = 0",
		model.PaymentExpired, orderID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetGatewayTxnID records the transaction id assigned by the gateway
// when a checkout session is created.
func (r *OrderRepo) SetGatewayTxnID(ctx context.Context, orderID uint64, txnID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE orders SET gateway_txn_id = ? WHERE id = ?", txnID, orderID)
	return err
}

// AdminUpdate applies an admin edit.  Only payment_status, order_status
// and gateway_txn_id are reachable this way; everything else on an
// order is immutable after creation.
func (r *OrderRepo) AdminUpdate(ctx context.Context, orderID uint64, paymentStatus, orderStatus, gatewayTxnID *string) error {
	var sets []string
	var args []any
	if paymentStatus != nil {
		sets = append(sets, "payment_status = ?")
		args = append(args, *paymentStatus)
	}
	if orderStatus != nil {
		sets = append(sets, "order_status = ?")
		args = append(args, *orderStatus)
	}
	if gatewayTxnID != nil {
		sets = append(sets, "gateway_txn_id = ?")
		args = append(args, *gatewayTxnID)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, orderID)
	_, err := r.db.ExecContext(ctx,
		"UPDATE orders SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	return err
}
