package model

import "time"

// RawClaim is one document's atomic assertion. Raw claims are immutable and
// append-only: corrections arrive as new claims, never as edits.
type RawClaim struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`

	SubjectID string `json:"subject_id"`
	Kind      string `json:"kind"` // claim kind/type, e.g. "SLA", "release_id"

	// Text is the assertion as extracted, used for clustering similarity.
	Text  string `json:"text"`
	Value Value  `json:"value"`

	// ScopeKey canonicalizes the contextual qualifiers (edition, region, ...)
	// into a stable grouping key. Qualifiers keeps the raw pairs for display.
	ScopeKey   string            `json:"scope_key"`
	Qualifiers map[string]string `json:"qualifiers,omitempty"`

	// EvidenceQuote is the verbatim passage the claim was extracted from.
	EvidenceQuote string `json:"evidence_quote,omitempty"`

	DocumentID string `json:"document_id"`
	SegmentID  string `json:"segment_id,omitempty"`

	// Entities lists resolved subject IDs mentioned by the claim, used to
	// validate candidate merges during clustering.
	Entities []string `json:"entities,omitempty"`

	// Conditional marks claims qualified by a condition ("if deployed in...").
	Conditional bool `json:"conditional,omitempty"`

	// Confidence is the extractor's confidence in [0,1].
	Confidence float64 `json:"confidence"`

	ObservedAt time.Time `json:"observed_at"`
}

// GroupKey identifies the (subject, kind, scope) consolidation group.
func (c *RawClaim) GroupKey() string {
	return c.SubjectID + "|" + c.Kind + "|" + c.ScopeKey
}

// ClaimCluster is a set of raw claims from two or more documents judged to
// assert the same fact. Clusters are re-derivable from raw claims and are
// never treated as a source of truth on their own.
type ClaimCluster struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Label       string    `json:"label"` // text of the highest-confidence member
	ClaimIDs    []string  `json:"claim_ids"`
	DocumentIDs []string  `json:"document_ids"`
	Confidence  float64   `json:"confidence"` // mean member confidence
	CreatedAt   time.Time `json:"created_at"`
}

// Maturity summarizes how much independent corroboration a consolidated
// claim has.
type Maturity string

const (
	MaturityCandidate        Maturity = "CANDIDATE"         // single source, no conflict
	MaturityValidated        Maturity = "VALIDATED"         // >= 2 distinct documents agree
	MaturityConflicting      Maturity = "CONFLICTING"       // sources disagree on the value
	MaturityContextDependent Maturity = "CONTEXT_DEPENDENT" // mostly conditional assertions
	MaturitySuperseded       Maturity = "SUPERSEDED"        // an ordered hint shows a newer value
)

// SourceRef cites one document segment backing a canonical claim.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	SegmentID  string `json:"segment_id,omitempty"`
	Quote      string `json:"quote,omitempty"`
}

// CanonicalClaim is the consolidated row for one (subject, kind, scope)
// group. It is recomputed idempotently from raw claims and never mutated
// in place.
type CanonicalClaim struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`

	SubjectID string `json:"subject_id"`
	Kind      string `json:"kind"`
	ScopeKey  string `json:"scope_key"`

	Value Value `json:"value"` // chosen representative value

	DocumentCount  int `json:"document_count"`  // distinct source documents
	AssertionCount int `json:"assertion_count"` // total raw claims in the group

	Maturity Maturity `json:"maturity"`

	// ConflictingClaimIDs lists every contributing raw claim when the group
	// is CONFLICTING, so the disagreement stays auditable.
	ConflictingClaimIDs []string `json:"conflicting_claim_ids,omitempty"`

	Sources []SourceRef `json:"sources,omitempty"`
}
