package axis

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/fredpottier/kbgraph/internal/model"
)

// Inference is the outcome of order inference over one axis's values.
// An inconclusive inference reports IsOrderable=false with UNKNOWN
// confidence and carries no order at all.
type Inference struct {
	IsOrderable   bool                     `json:"is_orderable"`
	OrderType     model.OrderType          `json:"order_type"`
	Confidence    model.OrderingConfidence `json:"confidence"`
	InferredOrder []string                 `json:"inferred_order,omitempty"`
	Shape         string                   `json:"shape,omitempty"` // which value shape produced the order
}

// shape is one parseable value family. TryOrder returns the values sorted
// under the shape's comparison rule, or false if any value fails to parse.
type shape struct {
	name     string
	tryOrder func(values []string) ([]string, bool)
}

// shapes are tried in priority order; the first shape under which every
// value parses wins. Mixed shapes never produce a guessed order.
var shapes = []shape{
	{name: "numeric", tryOrder: orderNumeric},
	{name: "semver", tryOrder: orderSemver},
	{name: "roman", tryOrder: orderRoman},
	{name: "year", tryOrder: orderYear},
	{name: "quarter", tryOrder: orderQuarter},
}

// InferOrder decides whether values form a meaningful order. It is a pure
// function: no persistence, no side effects. Fewer than two distinct values,
// or values spanning multiple shapes, yield an inconclusive result.
func InferOrder(values []string) Inference {
	distinct := dedupe(values)
	if len(distinct) < 2 {
		return inconclusive()
	}

	for _, s := range shapes {
		if order, ok := s.tryOrder(distinct); ok {
			return Inference{
				IsOrderable:   true,
				OrderType:     model.OrderTotal,
				Confidence:    model.ConfidenceCertain,
				InferredOrder: order,
				Shape:         s.name,
			}
		}
	}
	return inconclusive()
}

func inconclusive() Inference {
	return Inference{
		IsOrderable: false,
		OrderType:   model.OrderNone,
		Confidence:  model.ConfidenceUnknown,
	}
}

func dedupe(values []string) []string {
	seen := make(map[string]bool)
	var distinct []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		distinct = append(distinct, v)
	}
	return distinct
}

// sortByKey sorts values by numeric key, breaking exact ties by the raw
// string so the result is deterministic.
func sortByKey(values []string, keys map[string]float64) []string {
	order := make([]string, len(values))
	copy(order, values)
	sort.Slice(order, func(i, j int) bool {
		if keys[order[i]] != keys[order[j]] {
			return keys[order[i]] < keys[order[j]]
		}
		return order[i] < order[j]
	})
	return order
}

func orderNumeric(values []string) ([]string, bool) {
	keys := make(map[string]float64, len(values))
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		keys[v] = f
	}
	return sortByKey(values, keys), true
}

// semverLike matches dotted version tokens like "1.2" or "v1.2.3-rc1".
var semverLike = regexp.MustCompile(`^v?\d+(\.\d+){1,2}([.-][0-9A-Za-z.-]+)?$`)

func orderSemver(values []string) ([]string, bool) {
	parsed := make(map[string]*semver.Version, len(values))
	for _, v := range values {
		if !semverLike.MatchString(v) {
			return nil, false
		}
		ver, err := semver.NewVersion(v)
		if err != nil {
			return nil, false
		}
		parsed[v] = ver
	}
	order := make([]string, len(values))
	copy(order, values)
	sort.Slice(order, func(i, j int) bool {
		cmp := parsed[order[i]].Compare(parsed[order[j]])
		if cmp != 0 {
			return cmp < 0
		}
		return order[i] < order[j]
	})
	return order, true
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

var romanPattern = regexp.MustCompile(`^M{0,3}(CM|CD|D?C{0,3})(XC|XL|L?X{0,3})(IX|IV|V?I{0,3})$`)

func parseRoman(s string) (int, bool) {
	if s == "" || !romanPattern.MatchString(s) {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanValues[s[i]]
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total, true
}

func orderRoman(values []string) ([]string, bool) {
	keys := make(map[string]float64, len(values))
	for _, v := range values {
		n, ok := parseRoman(strings.ToUpper(v))
		if !ok {
			return nil, false
		}
		keys[v] = float64(n)
	}
	return sortByKey(values, keys), true
}

var yearPattern = regexp.MustCompile(`^[12]\d{3}$`)

func orderYear(values []string) ([]string, bool) {
	keys := make(map[string]float64, len(values))
	for _, v := range values {
		if !yearPattern.MatchString(v) {
			return nil, false
		}
		n, _ := strconv.Atoi(v)
		keys[v] = float64(n)
	}
	return sortByKey(values, keys), true
}

// quarterPatterns accept "Q1 2024", "2024-Q1" and "2024Q1" (case-insensitive).
var quarterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Q([1-4])[\s-]?([12]\d{3})$`),
	regexp.MustCompile(`(?i)^([12]\d{3})[\s-]?Q([1-4])$`),
}

func parseQuarter(s string) (year, quarter int, ok bool) {
	if m := quarterPatterns[0].FindStringSubmatch(s); m != nil {
		quarter, _ = strconv.Atoi(m[1])
		year, _ = strconv.Atoi(m[2])
		return year, quarter, true
	}
	if m := quarterPatterns[1].FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
		quarter, _ = strconv.Atoi(m[2])
		return year, quarter, true
	}
	return 0, 0, false
}

func orderQuarter(values []string) ([]string, bool) {
	keys := make(map[string]float64, len(values))
	for _, v := range values {
		year, quarter, ok := parseQuarter(v)
		if !ok {
			return nil, false
		}
		keys[v] = float64(year*4 + quarter)
	}
	return sortByKey(values, keys), true
}
