package model

// DocumentAuthority classifies how authoritative a source document is.
// Higher values outrank lower ones when selecting the current document.
type DocumentAuthority int

const (
	AuthorityUnknown   DocumentAuthority = 0
	AuthorityCommunity DocumentAuthority = 1
	AuthorityVerified  DocumentAuthority = 2
	AuthorityOfficial  DocumentAuthority = 3
)

func (a DocumentAuthority) String() string {
	switch a {
	case AuthorityOfficial:
		return "official"
	case AuthorityVerified:
		return "verified"
	case AuthorityCommunity:
		return "community"
	default:
		return "unknown"
	}
}

// TieBreak names the policy strategy for ties among equally ranked candidates.
type TieBreak string

const (
	TieBreakArbitrary TieBreak = "arbitrary"  // deterministic pick (lowest document ID)
	TieBreakReturnAll TieBreak = "return_all" // surface all tied candidates
	TieBreakAskUser   TieBreak = "ask_user"   // escalate instead of choosing
)

// SelectionPolicy is the declared governance policy the Latest Selector
// applies. Every selection decision is attributable to one of its fields.
type SelectionPolicy struct {
	// RequiredStatuses keeps only candidates whose status is listed.
	// Empty means any status is acceptable.
	RequiredStatuses []string `json:"required_statuses,omitempty" yaml:"required_statuses"`

	// ExcludedDocTypes drops candidates of the listed document types.
	ExcludedDocTypes []string `json:"excluded_doc_types,omitempty" yaml:"excluded_doc_types"`

	// KnownRatioThreshold is the minimum fraction of candidates with a
	// non-unknown authority required to rank by authority at all.
	KnownRatioThreshold float64 `json:"known_ratio_threshold" yaml:"known_ratio_threshold"`

	// PrimaryAxis names the applicability axis used for ordering fallbacks
	// and authority tie-breaks (e.g. "release").
	PrimaryAxis string `json:"primary_axis" yaml:"primary_axis"`

	// AllowAxisFallback permits selecting by axis order alone when
	// authority information is too sparse.
	AllowAxisFallback bool `json:"allow_axis_fallback" yaml:"allow_axis_fallback"`

	// TieBreak applies when authority and axis order both fail to separate
	// the top candidates.
	TieBreak TieBreak `json:"tie_break" yaml:"tie_break"`
}

// DefaultPolicy returns the conservative defaults: rank by authority when at
// least half the candidates are classified, permit declared axis fallbacks,
// and escalate ties.
func DefaultPolicy() SelectionPolicy {
	return SelectionPolicy{
		KnownRatioThreshold: 0.5,
		AllowAxisFallback:   true,
		TieBreak:            TieBreakAskUser,
	}
}

// DocCandidate is one document competing to be "current" on an axis.
type DocCandidate struct {
	DocumentID string            `json:"document_id"`
	Status     string            `json:"status,omitempty"`   // e.g. "published", "draft"
	DocType    string            `json:"doc_type,omitempty"` // e.g. "datasheet", "forum_post"
	Authority  DocumentAuthority `json:"authority"`
	AxisValues map[string]string `json:"axis_values,omitempty"` // axis key -> observed value
}
