package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds.
type Kind uint8

// Value kinds.
const (
	KindMissing Kind = iota
	KindText
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// missingTokens are raw cell texts read as "no value".
var missingTokens = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup table
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"-nan": {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
	"#NA":  {},
}

// IsMissingToken reports whether raw denotes an empty cell.
func IsMissingToken(raw string) bool {
	_, ok := missingTokens[strings.TrimSpace(raw)]
	return ok
}

// Value is a single table cell.
type Value struct {
	kind Kind
	text string
	num  float64
	date Date
}

// Missing returns the missing Value.
func Missing() Value { return Value{} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// DateValue returns a date Value.
func DateValue(d Date) Value { return Value{kind: KindDate, date: d} }

// CellOf converts a raw input string into a Value: missing tokens become
// Missing, everything else is kept as text.
func CellOf(raw string) Value {
	if IsMissingToken(raw) {
		return Missing()
	}
	return Text(raw)
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v holds no value.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Number returns the numeric content of v. Text is parsed; only finite
// numbers are accepted.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindText:
		return ParseNumber(v.text)
	default:
		return 0, false
	}
}

// Date returns the date content of v.
func (v Value) Date() (Date, bool) {
	if v.kind != KindDate {
		return Date{}, false
	}
	return v.date, true
}

// String renders v for display. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.String()
	default:
		return ""
	}
}

// MarshalJSON encodes missing as null, numbers as JSON numbers and the rest as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindText, KindDate:
		return json.Marshal(v.String())
	default:
		return []byte("null"), nil
	}
}

// ParseNumber parses s as a finite float64. Thousands separators are not accepted.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
