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

const (
	reserveSQL = `UPDATE schedule_slots SET remaining_capacity = remaining_capacity - 1, is_sold_out = \(remaining_capacity <= 0\), is_available = \(remaining_capacity > 0\) WHERE id = \? AND remaining_capacity > 0`
	restoreSQL = `UPDATE schedule_slots SET remaining_capacity = LEAST\(capacity, remaining_capacity \+ 1\), is_sold_out = \(remaining_capacity <= 0\), is_available = \(remaining_capacity > 0\) WHERE id = \?`
)

func TestReserveTxConsumesOneUnit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(reserveSQL).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewSlotRepo(db)
	require.NoError(t, repo.ReserveTx(ctx, tx, 7))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTxSoldOutWhenNoRowsMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(reserveSQL).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewSlotRepo(db)
	err = repo.ReserveTx(ctx, tx, 7)
	assert.ErrorIs(t, err, ErrSlotSoldOut)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreTxToleratesMissingAndFullSlots(t *testing.T) {
	// Zero affected rows (slot deleted, or value already at capacity
	// with no change reported) must not be an error: reconciliation of
	// an orphaned order still has to succeed.
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(restoreSQL).
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	repo := NewSlotRepo(db)
	require.NoError(t, repo.RestoreTx(ctx, tx, 9))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDefaultsRemainingToCapacity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_slots (service_id, slot_date, time_label, capacity, remaining_capacity, is_available, is_sold_out) VALUES (?,?,?,?,?,?,?)")).
		WithArgs(uint64(3), "2026-09-10", "10:00 - 12:00", int64(5), int64(5), true, false).
		WillReturnResult(sqlmock.NewResult(42, 1))

	slot := model.ScheduleSlot{
		ServiceID: 3,
		SlotDate:  time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		TimeLabel: "10:00 - 12:00",
		Capacity:  5,
	}
	repo := NewSlotRepo(db)
	require.NoError(t, repo.Create(context.Background(), &slot))

	assert.Equal(t, uint64(42), slot.ID)
	assert.Equal(t, int64(5), slot.RemainingCapacity)
	assert.True(t, slot.IsAvailable)
	assert.False(t, slot.IsSoldOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM schedule_slots WHERE id = \?`).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewSlotRepo(db)
	_, err = repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
