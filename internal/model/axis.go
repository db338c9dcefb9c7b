package model

import "time"

// OrderingConfidence ranks how sure the engine is about an axis ordering.
// The numeric order matters: merges never move confidence downward.
type OrderingConfidence int

const (
	ConfidenceUnknown  OrderingConfidence = 0
	ConfidenceInferred OrderingConfidence = 1
	ConfidenceCertain  OrderingConfidence = 2
)

func (c OrderingConfidence) String() string {
	switch c {
	case ConfidenceCertain:
		return "CERTAIN"
	case ConfidenceInferred:
		return "INFERRED"
	default:
		return "UNKNOWN"
	}
}

// OrderType describes the kind of order inferred for an axis.
type OrderType string

const (
	OrderNone  OrderType = "NONE"
	OrderTotal OrderType = "TOTAL"
)

// ApplicabilityAxis tracks one contextual dimension (e.g. "release") for a
// tenant: every raw value ever observed, and whether those values form an
// order. Ordering state only ever strengthens; see axis.Merge.
type ApplicabilityAxis struct {
	TenantID string `json:"tenant_id"`
	Key      string `json:"key"` // dimension name, e.g. "release"

	Values []string `json:"values"` // known raw values, insertion order

	IsOrderable bool               `json:"is_orderable"`
	Confidence  OrderingConfidence `json:"ordering_confidence"`
	OrderType   OrderType          `json:"order_type"`

	// ValueOrder is the known values in ascending order. Present only when
	// IsOrderable; replaced only by another order of length >= 2.
	ValueOrder []string `json:"value_order,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// HasValue reports whether the axis has already observed raw.
func (a *ApplicabilityAxis) HasValue(raw string) bool {
	for _, v := range a.Values {
		if v == raw {
			return true
		}
	}
	return false
}

// Latest returns the last value in the inferred order, if one exists.
func (a *ApplicabilityAxis) Latest() (string, bool) {
	if !a.IsOrderable || len(a.ValueOrder) == 0 {
		return "", false
	}
	return a.ValueOrder[len(a.ValueOrder)-1], true
}

// Position returns the index of raw in the inferred order, or -1.
func (a *ApplicabilityAxis) Position(raw string) int {
	for i, v := range a.ValueOrder {
		if v == raw {
			return i
		}
	}
	return -1
}
