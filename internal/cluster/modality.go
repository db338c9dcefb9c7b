package cluster

import (
	"strings"

	"github.com/fredpottier/kbgraph/internal/textutil"
)

// Modality is the deontic class of a claim, derived by keyword matching.
// Two claims asserting the same fact must share a modality class; "must
// encrypt" and "may encrypt" are different assertions.
type Modality string

const (
	ModalityStrongObligation Modality = "strong_obligation" // must, shall, required
	ModalityWeakObligation   Modality = "weak_obligation"   // should, recommended
	ModalityPermission       Modality = "permission"        // may, can, optional
	ModalityNeutral          Modality = "neutral"
)

var strongKeywords = map[string]bool{
	"must": true, "shall": true, "required": true, "mandatory": true,
	"requires": true, "obligatory": true,
}

var weakKeywords = map[string]bool{
	"should": true, "recommended": true, "ought": true, "advisable": true,
	"preferably": true,
}

var permissionKeywords = map[string]bool{
	"may": true, "can": true, "optional": true, "permitted": true,
	"allowed": true, "optionally": true,
}

// classifyModality derives the deontic class of a claim text. Stronger
// classes win when several keyword families appear.
func classifyModality(text string) Modality {
	strong, weak, permission := false, false, false
	for _, tok := range textutil.ContentTokens(text) {
		switch {
		case strongKeywords[tok]:
			strong = true
		case weakKeywords[tok]:
			weak = true
		case permissionKeywords[tok]:
			permission = true
		}
	}
	switch {
	case strong:
		return ModalityStrongObligation
	case weak:
		return ModalityWeakObligation
	case permission:
		return ModalityPermission
	default:
		return ModalityNeutral
	}
}

var negationTokens = map[string]bool{
	"not": true, "never": true, "cannot": true, "neither": true, "nor": true,
}

// isNegated reports whether the claim text carries a negation marker.
// Contractions ("doesn't", "isn't") are caught before normalization strips
// the apostrophe.
func isNegated(text string) bool {
	if strings.Contains(strings.ToLower(text), "n't") {
		return true
	}
	for _, tok := range textutil.ContentTokens(text) {
		if negationTokens[tok] {
			return true
		}
	}
	return false
}
