package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValueKind discriminates the closed set of claim value shapes.
type ValueKind string

const (
	ValueScalar     ValueKind = "scalar"     // single numeric value, optional unit
	ValueInterval   ValueKind = "interval"   // numeric range [low, high]
	ValueInequality ValueKind = "inequality" // bound like ">= 99.5"
	ValueSet        ValueKind = "set"        // enumerated members
	ValueBool       ValueKind = "boolean"
	ValueVersion    ValueKind = "version" // version-like token, e.g. "1.2.0"
	ValueText       ValueKind = "text"    // free text, compared after normalization
)

// Value is the closed tagged union carried by a raw claim. Exactly the
// fields implied by Kind are meaningful; everything else stays zero.
type Value struct {
	Kind ValueKind `json:"kind"`

	Scalar float64 `json:"scalar,omitempty"`
	Unit   string  `json:"unit,omitempty"`

	Low  float64 `json:"low,omitempty"`
	High float64 `json:"high,omitempty"`

	Op string `json:"op,omitempty"` // one of "<", "<=", ">", ">=" for inequalities

	Members []string `json:"members,omitempty"`

	Bool bool `json:"bool,omitempty"`

	Version string `json:"version,omitempty"`

	Text string `json:"text,omitempty"`
}

// ScalarValue builds a scalar value with an optional unit ("%" marks percentages).
func ScalarValue(v float64, unit string) Value {
	return Value{Kind: ValueScalar, Scalar: v, Unit: unit}
}

// IntervalValue builds a numeric range value.
func IntervalValue(low, high float64) Value {
	return Value{Kind: ValueInterval, Low: low, High: high}
}

// InequalityValue builds a bound value such as ">= 99.5".
func InequalityValue(op string, v float64) Value {
	return Value{Kind: ValueInequality, Op: op, Scalar: v}
}

// SetValue builds an enumerated value.
func SetValue(members ...string) Value {
	return Value{Kind: ValueSet, Members: members}
}

// BoolValue builds a boolean value.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// VersionValue builds a version-token value.
func VersionValue(v string) Value {
	return Value{Kind: ValueVersion, Version: v}
}

// TextValue builds a free-text value.
func TextValue(t string) Value {
	return Value{Kind: ValueText, Text: t}
}

// Numeric returns the value as a float64 when the kind carries one.
// Intervals report their midpoint; the second return is false otherwise.
func (v Value) Numeric() (float64, bool) {
	switch v.Kind {
	case ValueScalar, ValueInequality:
		return v.Scalar, true
	case ValueInterval:
		return (v.Low + v.High) / 2, true
	default:
		return 0, false
	}
}

// Canonical renders the value as a stable string used for fingerprints,
// grouping, and verbatim comparison. The rendering is deterministic: the
// same value always yields the same string.
func (v Value) Canonical() string {
	switch v.Kind {
	case ValueScalar:
		return trimFloat(v.Scalar) + v.Unit
	case ValueInterval:
		return trimFloat(v.Low) + ".." + trimFloat(v.High)
	case ValueInequality:
		return v.Op + trimFloat(v.Scalar)
	case ValueSet:
		members := make([]string, len(v.Members))
		copy(members, v.Members)
		sort.Strings(members)
		return "{" + strings.Join(members, ",") + "}"
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	case ValueVersion:
		return v.Version
	case ValueText:
		return strings.ToLower(strings.Join(strings.Fields(v.Text), " "))
	default:
		return ""
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s:%s", v.Kind, v.Canonical())
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
