package axis

import (
	"time"

	"github.com/fredpottier/kbgraph/internal/model"
)

// Merge folds a fresh inference into an axis's existing ordering state and
// returns the merged axis. It is pure; callers hold the per-axis lock and
// persist the result.
//
// Monotonicity law: the merged ordering confidence is the higher-ranked of
// (existing, inferred) on CERTAIN > INFERRED > UNKNOWN, so a later,
// less-informative observation can never downgrade an axis. A value order of
// length >= 2 is only ever replaced by another order of length >= 2; an
// inconclusive inference preserves the previous order untouched.
func Merge(existing model.ApplicabilityAxis, inf Inference) model.ApplicabilityAxis {
	merged := existing

	if inf.Confidence > merged.Confidence {
		merged.Confidence = inf.Confidence
	}

	if inf.IsOrderable && len(inf.InferredOrder) >= 2 {
		merged.IsOrderable = true
		merged.OrderType = inf.OrderType
		merged.ValueOrder = append([]string(nil), inf.InferredOrder...)
	}

	merged.UpdatedAt = time.Now().UTC()
	return merged
}

// Observe adds a raw value to the axis's known set if unseen, returning the
// updated axis and whether the value was new. It does not run inference;
// the orchestrator does that when the value count reaches two.
func Observe(existing model.ApplicabilityAxis, raw string) (model.ApplicabilityAxis, bool) {
	if raw == "" || existing.HasValue(raw) {
		return existing, false
	}
	updated := existing
	updated.Values = append(append([]string(nil), existing.Values...), raw)
	updated.UpdatedAt = time.Now().UTC()
	return updated, true
}
