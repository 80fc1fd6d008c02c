package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlotFlags(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		available bool
		soldOut   bool
	}{
		{"plenty left", 10, true, false},
		{"one left", 1, true, false},
		{"exactly zero", 0, false, true},
		{"negative is treated as sold out", -1, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avail, sold := DeriveSlotFlags(tt.remaining)
			assert.Equal(t, tt.available, avail)
			assert.Equal(t, tt.soldOut, sold)
		})
	}
}

func TestDeriveSlotFlagsAreNegations(t *testing.T) {
	for rc := int64(-2); rc <= 5; rc++ {
		avail, sold := DeriveSlotFlags(rc)
		assert.NotEqual(t, avail, sold, "remaining=%d", rc)
	}
}

func TestApplyDerivedFlagsOverridesStaleValues(t *testing.T) {
	s := ScheduleSlot{Capacity: 3, RemainingCapacity: 0, IsAvailable: true, IsSoldOut: false}
	s.ApplyDerivedFlags()
	assert.False(t, s.IsAvailable)
	assert.True(t, s.IsSoldOut)

	s.RemainingCapacity = 2
	s.ApplyDerivedFlags()
	assert.True(t, s.IsAvailable)
	assert.False(t, s.IsSoldOut)
}
