// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dtype

import "strconv"

// knownZones are the time-zone/epoch names the loader recognizes when
// reinterpreting a keyword's format spec. TAI and UTC are the two epoch
// bases used throughout the store's timestamps.
var knownZones = map[string]bool{
	"UTC": true,
	"TAI": true,
	"UT":  true,
	"TDT": true,
}

// TimeFormat is the two-field discipline for formatting
// Time values: a numeric precision (positive = fractional digits, negative
// = truncate whole fields) and a zone/unit name.
type TimeFormat struct {
	Precision int
	Zone      string
}

// ParseTimeFormatSpec reinterprets a keyword's raw format string at load
// time: if it parses as an integer, that integer is the precision and the
// zone defaults to UTC; otherwise, if it names a known zone, the zone is
// taken from the spec and precision defaults to 0. An empty or
// placeholder ("-", "") unit defaults to UTC.
func ParseTimeFormatSpec(spec string) TimeFormat {
	if n, err := strconv.Atoi(spec); err == nil {
		return TimeFormat{Precision: n, Zone: "UTC"}
	}
	if knownZones[spec] {
		return TimeFormat{Precision: 0, Zone: spec}
	}
	return TimeFormat{Precision: 0, Zone: "UTC"}
}

// IsKnownZone reports whether name is a recognized zone/epoch identifier.
func IsKnownZone(name string) bool {
	return knownZones[name]
}
