// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package keyword

import (
	"testing"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/stretchr/testify/require"
)

func TestSlotToIndexTSEqOnBoundary(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeTSEq, Epoch: 0, Step: 60, Unit: UnitSeconds}
	slot, err := SlotToIndex(spec, 60)
	require.NoError(t, err)
	require.Equal(t, int64(1), slot)

	slot, err = SlotToIndex(spec, 59.999)
	require.NoError(t, err)
	require.Equal(t, int64(0), slot)
}

func TestSlotToIndexTSSlotRoundsDown(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeTSSlot, Epoch: 0, Step: 60, Unit: UnitSeconds}
	slot, err := SlotToIndex(spec, 119)
	require.NoError(t, err)
	require.Equal(t, int64(1), slot)
}

func TestSlotToIndexMonotoneWithinSlot(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeTSEq, Epoch: 0, Step: 60, Unit: UnitSeconds}
	s1, err := SlotToIndex(spec, 61)
	require.NoError(t, err)
	s2, err := SlotToIndex(spec, 118)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}

func TestSlotToIndexCarr(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeCarr, Step: 1, Unit: UnitDegrees}
	slot, err := SlotToIndex(spec, 3.5)
	require.NoError(t, err)
	require.Equal(t, int64(3), slot)
}

func TestSlotsForDurationShorterThanStep(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeTSEq, Step: 60, Unit: UnitSeconds}
	slots, warn := SlotsForDuration(spec, 30)
	require.Equal(t, int64(1), slots)
	require.NotEmpty(t, warn)
}

func TestSlotsForDurationExactMultiple(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeTSEq, Step: 60, Unit: UnitSeconds}
	slots, warn := SlotsForDuration(spec, 180)
	require.Equal(t, int64(3), slots)
	require.Empty(t, warn)
}

func TestSlotsForDurationRoundedWithWarning(t *testing.T) {
	spec := SlotSpec{Scope: store.ScopeTSEq, Step: 60, Unit: UnitSeconds}
	slots, warn := SlotsForDuration(spec, 185)
	require.Equal(t, int64(3), slots)
	require.NotEmpty(t, warn)
}
