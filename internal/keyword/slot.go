// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package keyword

import (
	"fmt"
	"math"

	"github.com/heliocore/drms-export/internal/store"
	"github.com/heliocore/drms-export/pkg/xerr"
)

// SlotUnit identifies the physical unit a slotted keyword's step/epoch are
// expressed in.
type SlotUnit int

const (
	UnitSeconds SlotUnit = iota
	UnitTSeconds
	UnitMinutes
	UnitDays
	UnitDegrees
	UnitArcminutes
	UnitArcseconds
	UnitMAS
	UnitRadians
	UnitMicroRadians
	UnitArbitrary
)

// secondsMultiplier returns the TS_EQ/TS_SLOT unit's seconds-per-unit
// factor.
func secondsMultiplier(u SlotUnit) (float64, error) {
	switch u {
	case UnitTSeconds:
		return 0.1, nil
	case UnitSeconds:
		return 1, nil
	case UnitMinutes:
		return 60, nil
	case UnitDays:
		return 86400, nil
	default:
		return 0, fmt.Errorf("keyword: unit %d is not a time unit: %w", u, xerr.BadRequest)
	}
}

// SlotSpec is the auxiliary-keyword set backing one slotted keyword
// (`_index`, `_epoch`, `_base`, `_step`, `_unit`, `_round`).
type SlotSpec struct {
	Scope  store.KeywordScope
	Epoch  float64 // TS_EQ/TS_SLOT base, seconds since the Store epoch
	Base   float64 // SLOT/CARR base
	Step   float64
	Unit   SlotUnit
	Round  bool // carries the _round keyword; SlotToIndex does not read it
}

// SlotToIndex maps a physical value v to its integer slot per spec.Scope.
//
// TS_EQ and TS_SLOT are computed the same way: floor of the offset from
// Epoch in steps, where a value on a slot boundary (within a small epsilon
// of floating-point jitter) maps to the slot that begins at that boundary.
// SLOT floors the same way around Base with a unit multiplier of 1; CARR
// floors around 0, with the angular unit determining the multiplier.
func SlotToIndex(spec SlotSpec, v float64) (int64, error) {
	switch spec.Scope {
	case store.ScopeTSEq, store.ScopeTSSlot:
		mult, err := secondsMultiplier(spec.Unit)
		if err != nil {
			return 0, err
		}
		stepSeconds := spec.Step * mult
		if stepSeconds <= 0 {
			return 0, fmt.Errorf("keyword: non-positive step: %w", xerr.BadRequest)
		}
		offset := (v - spec.Epoch) / stepSeconds
		return floorWithBoundaryTolerance(offset), nil

	case store.ScopeCarr:
		mult, err := angularMultiplier(spec.Unit)
		if err != nil {
			return 0, err
		}
		stepUnits := spec.Step * mult
		if stepUnits <= 0 {
			return 0, fmt.Errorf("keyword: non-positive step: %w", xerr.BadRequest)
		}
		offset := (v - 0) / stepUnits
		return floorWithBoundaryTolerance(offset), nil

	case store.ScopeSlot:
		if spec.Step <= 0 {
			return 0, fmt.Errorf("keyword: non-positive step: %w", xerr.BadRequest)
		}
		offset := (v - spec.Base) / spec.Step
		return floorWithBoundaryTolerance(offset), nil

	default:
		return 0, fmt.Errorf("keyword: scope %v is not slotted: %w", spec.Scope, xerr.BadRequest)
	}
}

func angularMultiplier(u SlotUnit) (float64, error) {
	switch u {
	case UnitDegrees:
		return 1, nil
	case UnitArcminutes:
		return 1.0 / 60, nil
	case UnitArcseconds:
		return 1.0 / 3600, nil
	case UnitMAS:
		return 1.0 / 3600000, nil
	case UnitRadians:
		return 180 / math.Pi, nil
	case UnitMicroRadians:
		return 180 / math.Pi / 1e6, nil
	default:
		return 0, fmt.Errorf("keyword: unit %d is not an angular unit: %w", u, xerr.BadRequest)
	}
}

// slotEpsilon bounds the floating-point jitter tolerated at a slot
// boundary before floor() would otherwise misclassify a value that is
// mathematically exactly on the boundary.
const slotEpsilon = 1e-9

// floorWithBoundaryTolerance floors offset, but first snaps offset to the
// nearest integer when it is within slotEpsilon of one, so a value that
// lands exactly on a slot boundary (mod floating-point noise) reliably
// maps to the slot starting at that boundary rather than being pushed into
// the slot below by rounding error.
func floorWithBoundaryTolerance(offset float64) int64 {
	rounded := math.Round(offset)
	if math.Abs(offset-rounded) < slotEpsilon {
		return int64(rounded)
	}
	return int64(math.Floor(offset))
}

// SlotsForDuration computes how many slots a requested time coverage
// spans: a duration shorter than one step yields 1 slot with a
// warning; a duration that is not an integer multiple of the step is
// rounded, also with a warning.
func SlotsForDuration(spec SlotSpec, durationSeconds float64) (slots int64, warning string) {
	mult, err := secondsMultiplier(spec.Unit)
	if err != nil {
		mult = 1
	}
	stepSeconds := spec.Step * mult
	if stepSeconds <= 0 {
		return 1, "non-positive step, defaulting to 1 slot"
	}

	raw := durationSeconds / stepSeconds
	if raw < 1 {
		return 1, fmt.Sprintf("duration %.6gs is shorter than one step (%.6gs); using 1 slot", durationSeconds, stepSeconds)
	}
	rounded := math.Round(raw)
	if math.Abs(raw-rounded) > 1e-6 {
		return int64(rounded), fmt.Sprintf("duration %.6gs is not an integer multiple of step %.6gs; rounded to %d slots", durationSeconds, stepSeconds, int64(rounded))
	}
	return int64(rounded), ""
}
