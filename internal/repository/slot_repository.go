package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/inovix/booking-api/internal/model"
)

// SlotRepo provides persistence for schedule slots, including the two
// capacity mutations the order lifecycle performs: the conditional
// decrement that backs a reservation and the clamped increment that
// gives capacity back when a reservation is abandoned.
//
// The availability flags are never written verbatim.  Every UPDATE
// that touches remaining_capacity recomputes is_sold_out and
// is_available from the freshly assigned value, mirroring
// model.DeriveSlotFlags, so stored flags cannot drift from capacity.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning slots and orders.
func (r *SlotRepo) DB() *sql.DB { return r.db }

const slotColumns = "id, service_id, slot_date, time_label, capacity, remaining_capacity, is_available, is_sold_out, created_at, updated_at"

func scanSlot(row interface{ Scan(...any) error }) (model.ScheduleSlot, error) {
	var s model.ScheduleSlot
	err := row.Scan(&s.ID, &s.ServiceID, &s.SlotDate, &s.TimeLabel, &s.Capacity,
		&s.RemainingCapacity, &s.IsAvailable, &s.IsSoldOut, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// SlotFilter narrows List results.  Zero values mean "no filter".
type SlotFilter struct {
	ServiceID   uint64
	Date        *time.Time
	IsAvailable *bool
	IsSoldOut   *bool
}

// List returns slots matching the filter ordered by date then time label.
func (r *SlotRepo) List(ctx context.Context, f SlotFilter) ([]model.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots"
	var conds []string
	var args []any
	if f.ServiceID != 0 {
		conds = append(conds, "service_id = ?")
		args = append(args, f.ServiceID)
	}
	if f.Date != nil {
		conds = append(conds, "slot_date = ?")
		args = append(args, f.Date.UTC().Format("2006-01-02"))
	}
	if f.IsAvailable != nil {
		conds = append(conds, "is_available = ?")
		args = append(args, *f.IsAvailable)
	}
	if f.IsSoldOut != nil {
		conds = append(conds, "is_sold_out = ?")
		args = append(args, *f.IsSoldOut)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY slot_date ASC, time_label ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.ScheduleSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// GetByID returns a single slot or ErrSlotNotFound.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (model.ScheduleSlot, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM schedule_slots WHERE id = ?", id)
	s, err := scanSlot(row)
	if err == sql.ErrNoRows {
		return model.ScheduleSlot{}, ErrSlotNotFound
	}
	return s, err
}

// GetByIDTx loads a slot inside an existing transaction.  The
// reservation workflow reads the slot's flags and capacity here before
// attempting the conditional decrement.
func (r *SlotRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.ScheduleSlot, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+slotColumns+" FROM schedule_slots WHERE id = ?", id)
	s, err := scanSlot(row)
	if err == sql.ErrNoRows {
		return model.ScheduleSlot{}, ErrSlotNotFound
	}
	return s, err
}

// Create inserts a new slot.  RemainingCapacity defaults to Capacity
// when left at zero, and the availability flags are derived before the
// insert regardless of what the caller set them to.
func (r *SlotRepo) Create(ctx context.Context, s *model.ScheduleSlot) error {
	if s.RemainingCapacity == 0 {
		s.RemainingCapacity = s.Capacity
	}
	s.ApplyDerivedFlags()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO schedule_slots (service_id, slot_date, time_label, capacity, remaining_capacity, is_available, is_sold_out) VALUES (?,?,?,?,?,?,?)",
		s.ServiceID, s.SlotDate.UTC().Format("2006-01-02"), s.TimeLabel, s.Capacity,
		s.RemainingCapacity, s.IsAvailable, s.IsSoldOut)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update overwrites a slot's mutable attributes.  Flags are rederived
// from the supplied remaining capacity; capacity itself is fixed at
// creation and deliberately not part of the statement.
func (r *SlotRepo) Update(ctx context.Context, s *model.ScheduleSlot) error {
	s.ApplyDerivedFlags()
	res, err := r.db.ExecContext(ctx,
		"UPDATE schedule_slots SET slot_date=?, time_label=?, remaining_capacity=?, is_available=?, is_sold_out=? WHERE id=?",
		s.SlotDate.UTC().Format("2006-01-02"), s.TimeLabel, s.RemainingCapacity,
		s.IsAvailable, s.IsSoldOut, s.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a slot.  Orders referencing it are left in place; the
// slot reference simply dangles (no cascade).
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM schedule_slots WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// ReserveTx consumes one unit of slot capacity inside the caller's
// transaction.  The decrement is conditional on remaining capacity
// being positive, so two racing reservations against a slot with one
// unit left cannot both succeed: the loser's UPDATE matches zero rows
// and ErrSlotSoldOut is returned.  MySQL evaluates SET assignments
// left to right, so the flag expressions see the already-decremented
// remaining_capacity.
func (r *SlotRepo) ReserveTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
	const q = `UPDATE schedule_slots
               SET remaining_capacity = remaining_capacity - 1,
                   is_sold_out = (remaining_capacity <= 0),
                   is_available = (remaining_capacity > 0)
               WHERE id = ? AND remaining_capacity > 0`
	res, err := tx.ExecContext(ctx, q, slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotSoldOut
	}
	return nil
}

// RestoreTx gives one unit of capacity back to a slot inside the
// caller's transaction, clamped so remaining_capacity never exceeds
// the slot's original capacity.  Callers must guard against duplicate
// restoration per order (see OrderRepo.MarkExpiredOnceTx); this method
// itself is unconditional.  A slot that was deleted by an admin, or
// one already at full capacity, matches or changes no rows; both are
// tolerated so reconciliation of orphaned orders still succeeds.
func (r *SlotRepo) RestoreTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
	const q = `UPDATE schedule_slots
               SET remaining_capacity = LEAST(capacity, remaining_capacity + 1),
                   is_sold_out = (remaining_capacity <= 0),
                   is_available = (remaining_capacity > 0)
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, slotID)
	return err
}
