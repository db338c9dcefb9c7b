package latest

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/model"
)

// maxAlternatives caps the alternatives list on escalated results.
const maxAlternatives = 5

// Selection is the outcome of one currency decision. Either SelectedID is
// set with a non-empty WhySelected, or AskUserNeeded is true, or (under the
// return_all tie-break) the tied candidates are listed in Alternatives.
// The selector never guesses silently.
type Selection struct {
	SelectedID    string   `json:"selected_id,omitempty"`
	WhySelected   string   `json:"why_selected,omitempty"`
	FallbackUsed  bool     `json:"fallback_used"`
	AskUserNeeded bool     `json:"ask_user_needed"`
	Alternatives  []string `json:"alternatives,omitempty"`
}

// Selector decides which document candidate is "current" on an axis under a
// declared governance policy. Every decision is attributable to a policy
// field or an axis order; anything else escalates.
type Selector struct {
	policy model.SelectionPolicy
	log    *zap.Logger
}

// NewSelector creates a selector bound to one policy.
func NewSelector(policy model.SelectionPolicy, log *zap.Logger) *Selector {
	return &Selector{policy: policy, log: log}
}

// SelectLatest picks the current document among candidates, consulting the
// axes known for the tenant (keyed by axis key).
func (s *Selector) SelectLatest(candidates []model.DocCandidate, axes map[string]*model.ApplicabilityAxis) *Selection {
	remaining := s.filter(candidates)
	if len(remaining) == 0 {
		return &Selection{
			AskUserNeeded: true,
			WhySelected:   "no candidate passed the policy filters (required statuses, excluded document types)",
		}
	}
	if len(remaining) == 1 {
		return &Selection{
			SelectedID:  remaining[0].DocumentID,
			WhySelected: "only candidate remaining after policy filters",
		}
	}

	axis := axes[s.policy.PrimaryAxis]

	if s.knownRatio(remaining) >= s.policy.KnownRatioThreshold {
		return s.selectByAuthority(remaining, axis)
	}

	if s.policy.AllowAxisFallback && axis != nil &&
		axis.IsOrderable && axis.Confidence == model.ConfidenceCertain {
		if sel := s.selectByAxis(remaining, axis); sel != nil {
			sel.FallbackUsed = true
			return sel
		}
	}

	s.log.Info("currency decision escalated",
		zap.Int("candidates", len(remaining)),
		zap.String("primary_axis", s.policy.PrimaryAxis))
	return &Selection{
		AskUserNeeded: true,
		WhySelected: fmt.Sprintf(
			"authority is known for too few candidates (ratio below %.2f) and no certain axis order applies",
			s.policy.KnownRatioThreshold),
		Alternatives: documentIDs(remaining),
	}
}

// filter applies the declarative policy filters.
func (s *Selector) filter(candidates []model.DocCandidate) []model.DocCandidate {
	var kept []model.DocCandidate
	for _, c := range candidates {
		if len(s.policy.RequiredStatuses) > 0 && !contains(s.policy.RequiredStatuses, c.Status) {
			continue
		}
		if contains(s.policy.ExcludedDocTypes, c.DocType) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (s *Selector) knownRatio(candidates []model.DocCandidate) float64 {
	known := 0
	for _, c := range candidates {
		if c.Authority != model.AuthorityUnknown {
			known++
		}
	}
	return float64(known) / float64(len(candidates))
}

// selectByAuthority ranks candidates by document authority. Ties among the
// top tier fall through to the primary axis order, then to the policy's
// tie-break strategy.
func (s *Selector) selectByAuthority(candidates []model.DocCandidate, axis *model.ApplicabilityAxis) *Selection {
	top := model.AuthorityUnknown
	for _, c := range candidates {
		if c.Authority > top {
			top = c.Authority
		}
	}
	var tier []model.DocCandidate
	for _, c := range candidates {
		if c.Authority == top {
			tier = append(tier, c)
		}
	}

	if len(tier) == 1 {
		return &Selection{
			SelectedID: tier[0].DocumentID,
			WhySelected: fmt.Sprintf("highest document authority (%s) among %d candidates",
				top, len(candidates)),
		}
	}

	if axis != nil && axis.IsOrderable && len(axis.ValueOrder) > 0 {
		if best, ok := latestOnAxis(tier, axis, s.policy.PrimaryAxis); ok {
			return &Selection{
				SelectedID: best.DocumentID,
				WhySelected: fmt.Sprintf(
					"authority tie (%s) broken by axis %q: value %q is last in the inferred order",
					top, axis.Key, best.AxisValues[s.policy.PrimaryAxis]),
			}
		}
	}

	return s.breakTie(tier, top)
}

// selectByAxis picks the candidate whose primary-axis value is last in the
// certain order. Returns nil when the order cannot separate the candidates.
func (s *Selector) selectByAxis(candidates []model.DocCandidate, axis *model.ApplicabilityAxis) *Selection {
	best, ok := latestOnAxis(candidates, axis, s.policy.PrimaryAxis)
	if !ok {
		return nil
	}
	return &Selection{
		SelectedID: best.DocumentID,
		WhySelected: fmt.Sprintf(
			"axis fallback: axis %q has %s ordering and value %q is the most recent",
			axis.Key, axis.Confidence, best.AxisValues[s.policy.PrimaryAxis]),
	}
}

// latestOnAxis finds the unique candidate holding the highest position in
// the axis order. Candidates without a position never win, and a positional
// tie reports no winner.
func latestOnAxis(candidates []model.DocCandidate, axis *model.ApplicabilityAxis, axisKey string) (model.DocCandidate, bool) {
	var best model.DocCandidate
	bestPos := -1
	tied := false
	for _, c := range candidates {
		pos := axis.Position(c.AxisValues[axisKey])
		switch {
		case pos < 0:
			continue
		case pos > bestPos:
			best, bestPos, tied = c, pos, false
		case pos == bestPos:
			tied = true
		}
	}
	if bestPos < 0 || tied {
		return model.DocCandidate{}, false
	}
	return best, true
}

func (s *Selector) breakTie(tier []model.DocCandidate, authority model.DocumentAuthority) *Selection {
	ids := documentIDs(tier)

	switch s.policy.TieBreak {
	case model.TieBreakArbitrary:
		return &Selection{
			SelectedID: ids[0],
			WhySelected: fmt.Sprintf(
				"authority tie (%s) resolved by the policy's arbitrary tie-break (lowest document ID of %s)",
				authority, strings.Join(ids, ", ")),
			Alternatives: ids[1:],
		}
	case model.TieBreakReturnAll:
		return &Selection{
			WhySelected: fmt.Sprintf(
				"%d candidates tied at authority %s; policy returns all of them",
				len(tier), authority),
			Alternatives: ids,
		}
	default:
		return &Selection{
			AskUserNeeded: true,
			WhySelected: fmt.Sprintf(
				"%d candidates tied at authority %s and the policy escalates ties",
				len(tier), authority),
			Alternatives: ids,
		}
	}
}

func documentIDs(candidates []model.DocCandidate) []string {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.DocumentID)
	}
	sort.Strings(ids)
	if len(ids) > maxAlternatives {
		ids = ids[:maxAlternatives]
	}
	return ids
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
