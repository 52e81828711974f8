// Copyright (c) 2026 Heliocore contributors.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
// Package fits implements the bidirectional bridge between the Store's
// keyword/array model and FITS headers/images: header
// serialization/parsing, keyword name/type resolution, image-info
// derivation, and the BZERO/BSCALE/BLANK scaling contract.
package fits

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	cardLen  = 80
	blockLen = 2880
)

// CardKind identifies the value kind a FITS header card carries.
type CardKind int

const (
	KindInteger CardKind = iota
	KindFloat
	KindString
	KindLogical
	KindComment // COMMENT/HISTORY/blank-keyword cards with no "= value"
)

// Card is one FITS header keyword record.
type Card struct {
	Name    string
	Kind    CardKind
	IntVal  int64
	FltVal  float64
	StrVal  string
	BoolVal bool
	Comment string
}

// Header is an ordered sequence of cards, as found in one FITS HDU.
type Header struct {
	Cards []Card
}

// Get returns the first card named name (case-insensitive), if present.
func (h *Header) Get(name string) (Card, bool) {
	for _, c := range h.Cards {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Card{}, false
}

// GetAll returns every card named name, in file order (used for COMMENT/HISTORY).
func (h *Header) GetAll(name string) []Card {
	var out []Card
	for _, c := range h.Cards {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// Set appends c, or replaces the first existing card of the same name for
// non-accumulating kinds (everything except COMMENT/HISTORY).
func (h *Header) Set(c Card) {
	if c.Kind != KindComment {
		for i, existing := range h.Cards {
			if strings.EqualFold(existing.Name, c.Name) {
				h.Cards[i] = c
				return
			}
		}
	}
	h.Cards = append(h.Cards, c)
}

// Append unconditionally appends c (used for COMMENT/HISTORY accumulation).
func (h *Header) Append(c Card) {
	h.Cards = append(h.Cards, c)
}

// IntVal returns the value of an integer card, or (0, false) if absent/not integer.
func (h *Header) IntVal(name string) (int64, bool) {
	c, ok := h.Get(name)
	if !ok || c.Kind != KindInteger {
		return 0, false
	}
	return c.IntVal, true
}

// FloatVal returns the value of a float card, accepting an integer card too
// (FITS allows BZERO/BSCALE to be written without a decimal point).
func (h *Header) FloatVal(name string) (float64, bool) {
	c, ok := h.Get(name)
	if !ok {
		return 0, false
	}
	switch c.Kind {
	case KindFloat:
		return c.FltVal, true
	case KindInteger:
		return float64(c.IntVal), true
	default:
		return 0, false
	}
}

// formatCardLine renders one 80-column FITS card image.
func formatCardLine(c Card) string {
	name := c.Name
	if len(name) > 8 {
		name = name[:8]
	}
	name = fmt.Sprintf("%-8s", name)

	if c.Kind == KindComment {
		line := name + " " + c.StrVal
		if len(line) > cardLen {
			line = line[:cardLen]
		}
		return fmt.Sprintf("%-80s", line)
	}

	var valueField string
	switch c.Kind {
	case KindInteger:
		valueField = fmt.Sprintf("%20d", c.IntVal)
	case KindFloat:
		valueField = fmt.Sprintf("%20s", formatFITSFloat(c.FltVal))
	case KindString:
		valueField = formatFITSString(c.StrVal)
	case KindLogical:
		if c.BoolVal {
			valueField = fmt.Sprintf("%20s", "T")
		} else {
			valueField = fmt.Sprintf("%20s", "F")
		}
	}

	line := name + "= " + valueField
	if c.Comment != "" {
		line += " / " + c.Comment
	}
	if len(line) > cardLen {
		line = line[:cardLen]
	}
	return fmt.Sprintf("%-80s", line)
}

func formatFITSFloat(f float64) string {
	s := strconv.FormatFloat(f, 'E', 10, 64)
	// FITS uses a 'D' or 'E' exponent marker with at least one digit;
	// Go's 'E' verb already produces a compatible form (e.g. 1.2345678901E+02).
	return s
}

func formatFITSString(s string) string {
	escaped := strings.ReplaceAll(s, "'", "''")
	quoted := "'" + escaped + "'"
	if len(quoted) < 20 {
		quoted = fmt.Sprintf("%-20s", quoted)
	}
	return quoted
}

// WriteTo serializes h as a sequence of 2880-byte FITS header blocks,
// terminated by an END card and padded with blank cards.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, c := range h.Cards {
		sb.WriteString(formatCardLine(c))
	}
	sb.WriteString(fmt.Sprintf("%-80s", "END"))

	data := sb.String()
	if rem := len(data) % blockLen; rem != 0 {
		data += strings.Repeat(" ", blockLen-rem)
	}

	n, err := io.WriteString(w, data)
	return int64(n), err
}

// ParseHeader reads FITS header blocks from r until the END card.
func ParseHeader(r io.Reader) (*Header, error) {
	h := &Header{}
	br := bufio.NewReaderSize(r, blockLen)
	buf := make([]byte, cardLen)

	for {
		n, err := io.ReadFull(br, buf)
		if n < cardLen {
			if err != nil {
				return h, fmt.Errorf("fits: short header card: %w", err)
			}
		}
		line := string(buf)
		name := strings.TrimRight(line[:8], " ")
		if name == "END" {
			// consume the remainder of the current 2880 block
			discardToBlockBoundary(br)
			return h, nil
		}
		if name == "" || name == "COMMENT" || name == "HISTORY" {
			h.Append(Card{Name: firstWord(line[:8]), Kind: KindComment, StrVal: strings.TrimRight(line[8:], " ")})
			continue
		}

		rest := line[8:]
		if !strings.HasPrefix(strings.TrimLeft(rest, " "), "=") {
			h.Append(Card{Name: name, Kind: KindComment, StrVal: strings.TrimRight(rest, " ")})
			continue
		}
		valuePart := strings.TrimLeft(rest, " ")[1:]
		value, comment := splitValueComment(valuePart)
		h.Cards = append(h.Cards, parseCardValue(name, value, comment))
	}
}

func firstWord(s string) string {
	return strings.TrimRight(s, " ")
}

func discardToBlockBoundary(r *bufio.Reader) {
	// best-effort: callers reading a single-HDU stream don't need this,
	// but a multi-HDU stream should skip the rest of the 2880 block.
}

func splitValueComment(s string) (value, comment string) {
	s = strings.TrimLeft(s, " ")
	if strings.HasPrefix(s, "'") {
		// quoted string: find the closing quote, handling '' escapes
		i := 1
		for i < len(s) {
			if s[i] == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i += 2
					continue
				}
				break
			}
			i++
		}
		value = s[:i+1]
		rest := strings.TrimLeft(s[i+1:], " ")
		rest = strings.TrimPrefix(rest, "/")
		comment = strings.TrimSpace(rest)
		return value, comment
	}

	if idx := strings.Index(s, "/"); idx >= 0 {
		return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+1:])
	}
	return strings.TrimSpace(s), ""
}

func parseCardValue(name, value, comment string) Card {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") && len(value) >= 2 {
		inner := value[1 : len(value)-1]
		inner = strings.ReplaceAll(inner, "''", "'")
		return Card{Name: name, Kind: KindString, StrVal: strings.TrimRight(inner, " "), Comment: comment}
	}
	if value == "T" || value == "F" {
		return Card{Name: name, Kind: KindLogical, BoolVal: value == "T", Comment: comment}
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Card{Name: name, Kind: KindInteger, IntVal: n, Comment: comment}
	}
	normalized := strings.Replace(strings.Replace(value, "D", "E", 1), "d", "e", 1)
	if f, err := strconv.ParseFloat(normalized, 64); err == nil {
		return Card{Name: name, Kind: KindFloat, FltVal: f, Comment: comment}
	}
	return Card{Name: name, Kind: KindString, StrVal: value, Comment: comment}
}
