package consolidate

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/axis"
	"github.com/fredpottier/kbgraph/internal/model"
)

// Consolidator projects raw claims into one canonical claim per
// (subject, kind, scope) group. The projection is pure and idempotent:
// identifiers are content-derived, nothing depends on the clock or on
// iteration order, so the same raw claim set always produces byte-identical
// canonical claims.
type Consolidator struct {
	cfg model.ConsolidateConfig
	log *zap.Logger
}

// NewConsolidator creates a consolidator.
func NewConsolidator(cfg model.ConsolidateConfig, log *zap.Logger) *Consolidator {
	return &Consolidator{cfg: cfg, log: log}
}

// Consolidate recomputes every canonical claim for the tenant from a
// snapshot of raw claims. Claims that fail structural validation are
// skipped and counted, never fatal.
func (c *Consolidator) Consolidate(tenantID string, claims []*model.RawClaim) ([]*model.CanonicalClaim, error) {
	if tenantID == "" {
		return nil, &model.InputError{Field: "tenant_id", Reason: "required"}
	}

	groups := make(map[string][]*model.RawClaim)
	skipped := 0
	for _, claim := range claims {
		if err := claim.Validate(); err != nil {
			skipped++
			continue
		}
		groups[claim.GroupKey()] = append(groups[claim.GroupKey()], claim)
	}
	if skipped > 0 {
		c.log.Info("skipped invalid raw claims during consolidation",
			zap.String("tenant", tenantID), zap.Int("count", skipped))
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var canonical []*model.CanonicalClaim
	for _, key := range keys {
		canonical = append(canonical, c.consolidateGroup(tenantID, groups[key]))
	}
	return canonical, nil
}

func (c *Consolidator) consolidateGroup(tenantID string, group []*model.RawClaim) *model.CanonicalClaim {
	// Stable processing order regardless of input order.
	sorted := make([]*model.RawClaim, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	first := sorted[0]
	docs := make(map[string]bool)
	for _, claim := range sorted {
		docs[claim.DocumentID] = true
	}

	representative := pickRepresentative(sorted)

	result := &model.CanonicalClaim{
		ID:             canonicalID(tenantID, first.SubjectID, first.Kind, first.ScopeKey),
		TenantID:       tenantID,
		SubjectID:      first.SubjectID,
		Kind:           first.Kind,
		ScopeKey:       first.ScopeKey,
		Value:          representative.Value,
		DocumentCount:  len(docs),
		AssertionCount: len(sorted),
		Sources:        pickSources(sorted, c.cfg.MaxSources),
	}

	switch {
	case c.conditionalFraction(sorted) > c.cfg.ConditionalFraction:
		result.Maturity = model.MaturityContextDependent

	case !c.consistent(sorted):
		if newest, ok := supersededBy(sorted); ok {
			// All competing values are version hints with a certain order:
			// the older assertions are strictly superseded, not in conflict.
			result.Maturity = model.MaturitySuperseded
			result.Value = newest.Value
		} else {
			result.Maturity = model.MaturityConflicting
			result.ConflictingClaimIDs = claimIDs(sorted)
		}

	case len(docs) >= 2:
		result.Maturity = model.MaturityValidated

	default:
		result.Maturity = model.MaturityCandidate
	}

	return result
}

// canonicalID derives a stable identifier from the grouping key.
func canonicalID(tenantID, subjectID, kind, scopeKey string) string {
	key := tenantID + "|" + subjectID + "|" + kind + "|" + scopeKey
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// pickRepresentative selects the majority raw value. Ties go to the most
// recently observed claim, then to the smallest canonical rendering so the
// choice is deterministic.
func pickRepresentative(group []*model.RawClaim) *model.RawClaim {
	counts := make(map[string]int)
	for _, claim := range group {
		counts[claim.Value.Canonical()]++
	}

	best := group[0]
	for _, claim := range group[1:] {
		bc, cc := counts[best.Value.Canonical()], counts[claim.Value.Canonical()]
		switch {
		case cc > bc:
			best = claim
		case cc == bc && claim.ObservedAt.After(best.ObservedAt):
			best = claim
		case cc == bc && claim.ObservedAt.Equal(best.ObservedAt) &&
			claim.Value.Canonical() < best.Value.Canonical():
			best = claim
		}
	}
	return best
}

// conditionalFraction is the share of claims flagged conditional.
func (c *Consolidator) conditionalFraction(group []*model.RawClaim) float64 {
	conditional := 0
	for _, claim := range group {
		if claim.Conditional {
			conditional++
		}
	}
	return float64(conditional) / float64(len(group))
}

// consistent reports whether the group's values agree. Numeric values agree
// within the relative tolerance; everything else must match verbatim after
// canonical normalization.
func (c *Consolidator) consistent(group []*model.RawClaim) bool {
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			if !c.valuesAgree(group[i].Value, group[j].Value) {
				return false
			}
		}
	}
	return true
}

func (c *Consolidator) valuesAgree(a, b model.Value) bool {
	na, aNumeric := a.Numeric()
	nb, bNumeric := b.Numeric()
	// Percentage values compare exactly. On figures like availability SLAs
	// a relative tolerance would swallow real disagreements.
	if aNumeric && bNumeric && a.Unit == b.Unit && a.Unit != "%" {
		larger := na
		if nb > larger {
			larger = nb
		}
		if larger < 0 {
			larger = -larger
		}
		diff := na - nb
		if diff < 0 {
			diff = -diff
		}
		return diff <= c.cfg.NumericTolerance*larger
	}
	return a.Canonical() == b.Canonical()
}

// supersededBy checks whether every distinct value in the group is a
// version hint that the order inferrer can order with certainty. When it
// can, the claim carrying the newest version wins and the rest are
// superseded. An INFERRED order is deliberately not enough.
func supersededBy(group []*model.RawClaim) (*model.RawClaim, bool) {
	var versions []string
	for _, claim := range group {
		if claim.Value.Kind != model.ValueVersion {
			return nil, false
		}
		versions = append(versions, claim.Value.Version)
	}

	inference := axis.InferOrder(versions)
	if !inference.IsOrderable || inference.Confidence != model.ConfidenceCertain {
		return nil, false
	}

	newest := inference.InferredOrder[len(inference.InferredOrder)-1]
	var winner *model.RawClaim
	for _, claim := range group {
		if claim.Value.Version != newest {
			continue
		}
		if winner == nil || claim.ID < winner.ID {
			winner = claim
		}
	}
	return winner, winner != nil
}

// pickSources cites up to max sources, preferring distinct documents and
// higher-confidence claims.
func pickSources(group []*model.RawClaim, max int) []model.SourceRef {
	if max <= 0 {
		return nil
	}

	sorted := make([]*model.RawClaim, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].ID < sorted[j].ID
	})

	seenDocs := make(map[string]bool)
	seenClaims := make(map[string]bool)
	var sources []model.SourceRef
	for pass := 0; pass < 2 && len(sources) < max; pass++ {
		for _, claim := range sorted {
			if len(sources) >= max {
				break
			}
			// First pass: one citation per document. Second pass fills
			// remaining slots with repeat documents.
			if pass == 0 && seenDocs[claim.DocumentID] {
				continue
			}
			if pass == 1 && seenClaims[claim.ID] {
				continue
			}
			seenDocs[claim.DocumentID] = true
			seenClaims[claim.ID] = true
			sources = append(sources, model.SourceRef{
				DocumentID: claim.DocumentID,
				SegmentID:  claim.SegmentID,
				Quote:      claim.EvidenceQuote,
			})
		}
	}
	return sources
}

func claimIDs(group []*model.RawClaim) []string {
	ids := make([]string, 0, len(group))
	for _, claim := range group {
		ids = append(ids, claim.ID)
	}
	sort.Strings(ids)
	return ids
}
