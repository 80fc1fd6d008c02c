package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inovix/booking-api/internal/model"
)

const markExpiredSQL = `UPDATE orders SET payment_status = \?, capacity_restored = 1 WHERE id = \? AND capacity_restored = 0`

func orderRows(o model.Order) *sqlmock.Rows {
	txn := any(nil)
	if o.GatewayTxnID != nil {
		txn = *o.GatewayTxnID
	}
	return sqlmock.NewRows([]string{
		"id", "order_ref", "user_id", "service_id", "slot_id", "total_price_cents",
		"payment_status", "order_status", "gateway_txn_id", "capacity_restored",
		"created_at", "updated_at",
	}).AddRow(o.ID, o.OrderRef, o.UserID, o.ServiceID, o.SlotID, o.TotalPriceCents,
		o.PaymentStatus, o.OrderStatus, txn, o.CapacityRestored, o.CreatedAt, o.UpdatedAt)
}

func TestCreateTxPopulatesID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders (order_ref, user_id, service_id, slot_id, total_price_cents, payment_status, order_status) VALUES (?,?,?,?,?,?,?)")).
		WithArgs("ref-1", uint64(2), uint64(3), uint64(4), int64(150000), model.PaymentPending, model.OrderPending).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	o := model.Order{
		OrderRef:        "ref-1",
		UserID:          2,
		ServiceID:       3,
		SlotID:          4,
		TotalPriceCents: 150000,
		PaymentStatus:   model.PaymentPending,
		OrderStatus:     model.OrderPending,
	}
	repo := NewOrderRepo(db)
	require.NoError(t, repo.CreateTx(ctx, tx, &o))
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint64(11), o.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExpiredOnceTxWinsOnlyFirstTime(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// First delivery flips the marker.
	mock.ExpectBegin()
	mock.ExpectExec(markExpiredSQL).
		WithArgs(model.PaymentExpired, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// A redelivered notification matches no rows.
	mock.ExpectBegin()
	mock.ExpectExec(markExpiredSQL).
		WithArgs(model.PaymentExpired, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	repo := NewOrderRepo(db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	won, err := repo.MarkExpiredOnceTx(ctx, tx, 5)
	require.NoError(t, err)
	assert.True(t, won)
	require.NoError(t, tx.Commit())

	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	won, err = repo.MarkExpiredOnceTx(ctx, tx, 5)
	require.NoError(t, err)
	assert.False(t, won)
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByRef(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	stored := model.Order{
		ID: 8, OrderRef: "ref-8", UserID: 1, ServiceID: 2, SlotID: 3,
		TotalPriceCents: 5000, PaymentStatus: model.PaymentPending,
		OrderStatus: model.OrderPending, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectQuery(`SELECT .+ FROM orders WHERE order_ref = \?`).
		WithArgs("ref-8").
		WillReturnRows(orderRows(stored))
	mock.ExpectQuery(`SELECT .+ FROM orders WHERE order_ref = \?`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewOrderRepo(db)
	got, err := repo.GetByRef(context.Background(), "ref-8")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Nil(t, got.GatewayTxnID)
	assert.False(t, got.CapacityRestored)

	_, err = repo.GetByRef(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFiltersCombine(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM orders WHERE user_id = \? AND payment_status = \? ORDER BY created_at DESC`).
		WithArgs(uint64(4), model.PaymentPaid).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewOrderRepo(db)
	orders, err := repo.List(context.Background(), OrderFilter{UserID: 4, PaymentStatus: model.PaymentPaid})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
