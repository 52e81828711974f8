// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package store defines the Store's data model:
// keywords, segments, arrays, and the export request/processing-step rows
// that the scheduler consumes. These types are shared by the FITS bridge,
// the segment I/O engine, the keyword engine, and the scheduler so none of
// them need to redeclare the record model.
package store

import "github.com/heliocore/drms-export/pkg/dtype"

// MaxLinkDepth bounds keyword/segment link resolution; exceeding it is a
// hard cycle error.
const MaxLinkDepth = 32

// KeywordScope classifies how a keyword's value varies across a series.
type KeywordScope int

const (
	ScopeVariable KeywordScope = iota
	ScopeConstant
	ScopeIndex
	ScopeTSEq
	ScopeTSSlot
	ScopeSlot
	ScopeEnum
	ScopeCarr
)

// KeywordFlags is a bitfield of per-keyword behavior flags.
type KeywordFlags uint32

const (
	FlagPerSegment KeywordFlags = 1 << iota
	FlagInternalPrime
	FlagExternalPrime
)

func (f KeywordFlags) Has(bit KeywordFlags) bool { return f&bit != 0 }

// Keyword is either a stored value or a link reference to another
// keyword. Link and Target are only meaningful when IsLink is true.
type Keyword struct {
	Name        string
	Type        dtype.Type
	Value       dtype.Value
	Format      string
	Unit        string
	Description string
	Scope       KeywordScope
	Flags       KeywordFlags
	Rank        int

	IsLink bool
	Link   string // name of the segment/record link to follow
	Target string // name of the keyword on the linked record
}

// SegmentScope classifies how a segment's storage is shared across records.
type SegmentScope int

const (
	SegmentVariable SegmentScope = iota
	SegmentConstant
	SegmentVardim
)

// Protocol identifies the on-disk container format of a segment.
type Protocol int

const (
	ProtoFITS Protocol = iota
	ProtoFITSTiled
	ProtoBinary
	ProtoBinzip
	ProtoTAS
	ProtoGeneric
	ProtoLocal
	ProtoDSDS
)

func (p Protocol) String() string {
	switch p {
	case ProtoFITS:
		return "FITS"
	case ProtoFITSTiled:
		return "FITS_TILED"
	case ProtoBinary:
		return "BINARY"
	case ProtoBinzip:
		return "BINZIP"
	case ProtoTAS:
		return "TAS"
	case ProtoGeneric:
		return "GENERIC"
	case ProtoLocal:
		return "LOCAL"
	case ProtoDSDS:
		return "DSDS"
	default:
		return "UNKNOWN"
	}
}

// ParseProtocol parses the catalog's textual protocol name.
func ParseProtocol(s string) (Protocol, bool) {
	switch s {
	case "FITS":
		return ProtoFITS, true
	case "FITS_TILED":
		return ProtoFITSTiled, true
	case "BINARY":
		return ProtoBinary, true
	case "BINZIP":
		return ProtoBinzip, true
	case "TAS":
		return ProtoTAS, true
	case "GENERIC":
		return ProtoGeneric, true
	case "LOCAL":
		return ProtoLocal, true
	case "DSDS":
		return ProtoDSDS, true
	default:
		return 0, false
	}
}

// Segment describes one named array-valued component of a record.
type Segment struct {
	Name      string
	Segnum    int
	Type      dtype.Type
	Naxis     int
	Axes      []int64
	Protocol  Protocol
	Scope     SegmentScope
	Blocksize []int64 // tile dimensions, FITS_TILED only

	Filename string

	// ConstRecordRecnum is the record number owning the canonical copy of
	// a Constant-scope segment's shared file. 0 means unwritten.
	ConstRecordRecnum int64

	RecordRecnum int64 // owning record's number, for filename derivation
	Series       string
}

// Array is an in-memory N-dimensional numeric array tied to a segment.
type Array struct {
	Type   dtype.Type
	Naxis  int
	Axes   []int64
	Data   []dtype.Value
	Bzero  float64
	Bscale float64
	// IsRaw reports whether Data holds stored (scaled) values that require
	// x' = Bzero + Bscale*x to reach physical units, or already-physical values.
	IsRaw  bool
	Start  []int64 // slice origin within the parent segment, for TAS/slice reads
	Parent *Segment
}

// NumElements returns the product of Axes.
func (a *Array) NumElements() int64 {
	n := int64(1)
	for _, ax := range a.Axes {
		n *= ax
	}
	return n
}

// RequestStatus enumerates an export request row's lifecycle state.
type RequestStatus int

const (
	StatusDone    RequestStatus = 0
	StatusQueued  RequestStatus = 1
	StatusNew     RequestStatus = 2
	StatusFailed  RequestStatus = 4
	StatusDevNew  RequestStatus = 12
)

// ExportRequest is the external queue row driving one export.
type ExportRequest struct {
	RequestID      string
	User           string
	Spec           string
	Processing     string
	Protocol       string
	FilenameFormat string
	Method         string
	Format         string
	SizeMB         int64
	Status         RequestStatus
	ErrorMessage   string
}

// ProcessingStep is a catalog row describing one external processing program.
type ProcessingStep struct {
	Name            string
	ExecPath        string
	RequiredArgs    []string
	OptionalArgs    map[string]string // name -> default value/expression
	NameMap         map[string]string
	OutputRule      OutputRule
}

// OutputRuleKind identifies how a processing step derives its output series
// name from its input series name.
type OutputRuleKind int

const (
	OutputNone OutputRuleKind = iota
	OutputSuffix
	OutputReplacement
	OutputSubstitution
)

// OutputRule derives the output series name of a processing step.
type OutputRule struct {
	Kind OutputRuleKind
	A    string // suffix or replacement series name, or substitution "from"
	B    string // substitution "to"; unused otherwise
}

// Apply derives the output series name for inputSeries.
func (r OutputRule) Apply(inputSeries string) string {
	switch r.Kind {
	case OutputSuffix:
		suffix := "_" + r.A
		if len(inputSeries) >= len(suffix) && inputSeries[len(inputSeries)-len(suffix):] == suffix {
			return inputSeries
		}
		return inputSeries + suffix
	case OutputReplacement:
		return r.A
	case OutputSubstitution:
		return substituteAll(inputSeries, r.A, r.B)
	default:
		return inputSeries
	}
}

func substituteAll(s, from, to string) string {
	if from == "" {
		return s
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if i+len(from) <= len(s) && s[i:i+len(from)] == from {
			out = append(out, to...)
			i += len(from)
			continue
		}
		out = append(out, s[i])
		i++
	}
	return string(out)
}
