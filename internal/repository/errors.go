// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting SQL error strings.
package repository

import "errors"

// ErrSlotSoldOut is returned when the conditional capacity decrement
// matched no rows: every unit of the slot's capacity is already
// consumed, possibly by a concurrent reservation that won the race.
// Handlers translate this into the same client error as a slot that
// was visibly sold out up front, because retrying the same slot
// without new capacity cannot succeed.
var ErrSlotSoldOut = errors.New("slot sold out")

// ErrServiceNotFound is returned when a referenced service does not exist.
var ErrServiceNotFound = errors.New("service not found")

// ErrSlotNotFound is returned when a referenced schedule slot does not exist.
var ErrSlotNotFound = errors.New("schedule slot not found")

// ErrOrderNotFound is returned when a referenced order does not exist.
var ErrOrderNotFound = errors.New("order not found")
