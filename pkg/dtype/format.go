// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dtype

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatValue renders v according to a printf-style format string (the
// keyword's `format` field). A blank format falls back to a type-default
// rendering. Time values ignore the printf format and instead use
// FormatTime with the precision/zone derived from format via
// ParseTimeFormatSpec, since a printf verb cannot express the Time
// discipline.
func FormatValue(v Value, format string) string {
	if v.typ == Time {
		tf := ParseTimeFormatSpec(format)
		return FormatTime(v.f, tf)
	}

	if strings.TrimSpace(format) == "" {
		return defaultFormat(v)
	}

	switch v.typ {
	case Char, Short, Int, Long:
		if IsMissing(v) {
			return "MISSING"
		}
		return fmt.Sprintf(format, v.i)
	case Float:
		if IsMissingFloat32(float32(v.f)) {
			return "MISSING"
		}
		return fmt.Sprintf(format, v.f)
	case Double:
		if IsMissingFloat64(v.f) {
			return "MISSING"
		}
		return fmt.Sprintf(format, v.f)
	case String:
		return fmt.Sprintf(format, v.s)
	default:
		return defaultFormat(v)
	}
}

func defaultFormat(v Value) string {
	switch v.typ {
	case Char, Short, Int, Long:
		if IsMissing(v) {
			return "MISSING"
		}
		return strconv.FormatInt(v.i, 10)
	case Float:
		if IsMissingFloat32(float32(v.f)) {
			return "MISSING"
		}
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case Double:
		if IsMissingFloat64(v.f) {
			return "MISSING"
		}
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case String:
		return v.s
	default:
		return ""
	}
}

// FormatTime renders an epoch-relative-seconds Time value using the
// two-field discipline: tf.Precision > 0 means that many fractional
// digits; tf.Precision < 0 truncates that many whole date/time fields
// (from the least-significant end: seconds, then minutes, then hours).
func FormatTime(seconds float64, tf TimeFormat) string {
	if IsMissingFloat64(seconds) {
		return "MISSING"
	}

	whole := int64(seconds)
	frac := seconds - float64(whole)

	h := (whole / 3600) % 24
	m := (whole / 60) % 60
	s := whole % 60
	days := whole / 86400

	fields := []string{
		fmt.Sprintf("%d", days),
		fmt.Sprintf("%02d", h),
		fmt.Sprintf("%02d", m),
		fmt.Sprintf("%02d", s),
	}

	truncate := 0
	if tf.Precision < 0 {
		truncate = -tf.Precision
	}
	if truncate > 3 {
		truncate = 3
	}
	kept := fields[:4-truncate]
	out := strings.Join(kept, "_")

	if tf.Precision > 0 && truncate == 0 {
		out += strconv.FormatFloat(frac, 'f', tf.Precision, 64)[1:]
	}

	zone := tf.Zone
	if zone == "" || zone == "-" {
		zone = "UTC"
	}
	return out + "_" + zone
}
