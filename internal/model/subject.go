package model

import (
	"time"

	"github.com/google/uuid"
)

// Subject is a stable, tenant-scoped identity for what a claim is about.
// Subjects are never destroyed and never silently merged; equivalence with
// another subject is only ever suggested via PossibleEquivalents.
type Subject struct {
	ID            string `json:"id"`
	TenantID      string `json:"tenant_id"`
	CanonicalName string `json:"canonical_name"`

	// Aliases are operator-curated and trusted like the canonical name.
	Aliases []string `json:"aliases,omitempty"`

	// LearnedAliases were discovered by the system (e.g. a raw mention that
	// resolved through embedding similarity) and carry slightly lower trust.
	LearnedAliases []string `json:"learned_aliases,omitempty"`

	// Embedding is the vector for the canonical name, if one was computed.
	Embedding []float32 `json:"embedding,omitempty"`

	// PossibleEquivalents lists subject IDs that may denote the same entity.
	// They are suggestions for human review, never acted on automatically.
	PossibleEquivalents []string `json:"possible_equivalents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSubject creates a subject with a fresh identifier.
func NewSubject(tenantID, canonicalName string) *Subject {
	now := time.Now().UTC()
	return &Subject{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		CanonicalName: canonicalName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasAlias reports whether name appears among the explicit aliases.
func (s *Subject) HasAlias(name string) bool {
	for _, a := range s.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// HasLearnedAlias reports whether name appears among the learned aliases.
func (s *Subject) HasLearnedAlias(name string) bool {
	for _, a := range s.LearnedAliases {
		if a == name {
			return true
		}
	}
	return false
}

// AddLearnedAlias records a system-discovered alias, skipping duplicates.
func (s *Subject) AddLearnedAlias(name string) {
	if name == "" || name == s.CanonicalName || s.HasAlias(name) || s.HasLearnedAlias(name) {
		return
	}
	s.LearnedAliases = append(s.LearnedAliases, name)
	s.UpdatedAt = time.Now().UTC()
}

// SuggestEquivalent appends a possible-equivalent subject ID for human
// review, skipping duplicates and self-references.
func (s *Subject) SuggestEquivalent(subjectID string) {
	if subjectID == "" || subjectID == s.ID {
		return
	}
	for _, id := range s.PossibleEquivalents {
		if id == subjectID {
			return
		}
	}
	s.PossibleEquivalents = append(s.PossibleEquivalents, subjectID)
	s.UpdatedAt = time.Now().UTC()
}
