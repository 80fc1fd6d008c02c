package model

import "time"

// ScheduleSlot is a bookable time unit for a service with a finite
// capacity.  Capacity is fixed at creation; RemainingCapacity is
// decremented by one for every successful order and incremented by one
// when an order tied to the slot is abandoned after payment expiry or
// cancellation.  IsAvailable and IsSoldOut are never set directly:
// they are always rederived from RemainingCapacity at every write
// site (see DeriveSlotFlags and the SQL in repository.SlotRepo).
//
// Fields:
//  ID                – primary key identifier.
//  ServiceID         – service this slot belongs to.
//  SlotDate          – calendar date of the slot.
//  TimeLabel         – free-text time label (e.g. "10:00 - 12:00");
//                      not validated as a time value.
//  Capacity          – total capacity, integer >= 1, fixed at creation.
//  RemainingCapacity – units still sellable, 0 <= n <= Capacity.
//  IsAvailable       – derived: !IsSoldOut.
//  IsSoldOut         – derived: RemainingCapacity <= 0.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type ScheduleSlot struct {
	ID                uint64    // schedule_slots.id
	ServiceID         uint64    // schedule_slots.service_id
	SlotDate          time.Time // schedule_slots.slot_date
	TimeLabel         string    // schedule_slots.time_label
	Capacity          int64     // schedule_slots.capacity
	RemainingCapacity int64     // schedule_slots.remaining_capacity
	IsAvailable       bool      // schedule_slots.is_available
	IsSoldOut         bool      // schedule_slots.is_sold_out
	CreatedAt         time.Time // schedule_slots.created_at
	UpdatedAt         time.Time // schedule_slots.updated_at
}

// DeriveSlotFlags computes the availability flags for a given
// remaining capacity.  A slot is sold out exactly when no capacity
// remains and available otherwise; the two flags are always each
// other's negation.  Every code path that persists a slot must store
// the values returned here rather than setting the flags by hand.
func DeriveSlotFlags(remainingCapacity int64) (isAvailable, isSoldOut bool) {
	isSoldOut = remainingCapacity <= 0
	return !isSoldOut, isSoldOut
}

// ApplyDerivedFlags rederives and stores the availability flags on the
// slot from its current RemainingCapacity.
func (s *ScheduleSlot) ApplyDerivedFlags() {
	s.IsAvailable, s.IsSoldOut = DeriveSlotFlags(s.RemainingCapacity)
}
