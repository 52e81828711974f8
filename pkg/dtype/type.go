// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package dtype implements the canonical numeric/value type layer shared by
// the FITS bridge, the segment I/O engine, and the keyword engine: the
// typed sentinel "missing" values, lossless/lossy conversions between the
// store's eight value kinds, and the two-field time-formatting discipline.
package dtype

import "fmt"

// Type is the store's canonical value kind.
type Type int

const (
	Char Type = iota // 8-bit signed integer
	Short             // 16-bit signed integer
	Int               // 32-bit signed integer
	Long              // 64-bit signed integer
	Float             // 32-bit IEEE float
	Double            // 64-bit IEEE float
	Time              // 64-bit IEEE float, epoch-relative seconds
	String            // owned byte string
	Raw               // unconverted on-disk form; legal only for array payloads
)

func (t Type) String() string {
	switch t {
	case Char:
		return "Char"
	case Short:
		return "Short"
	case Int:
		return "Int"
	case Long:
		return "Long"
	case Float:
		return "Float"
	case Double:
		return "Double"
	case Time:
		return "Time"
	case String:
		return "String"
	case Raw:
		return "Raw"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// IsInteger reports whether t is one of the fixed-width signed integer kinds.
func (t Type) IsInteger() bool {
	switch t {
	case Char, Short, Int, Long:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is Float, Double, or Time (all IEEE floats underneath).
func (t Type) IsFloat() bool {
	switch t {
	case Float, Double, Time:
		return true
	default:
		return false
	}
}

// Size returns the in-memory size in bytes of one element of t. String and
// Raw have no fixed size and return 0.
func (t Type) Size() int {
	switch t {
	case Char:
		return 1
	case Short:
		return 2
	case Int, Float:
		return 4
	case Long, Double, Time:
		return 8
	default:
		return 0
	}
}
