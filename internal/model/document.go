package model

import (
	"sort"
	"strings"
	"time"
)

// Document is one ingestion unit: extracted claims plus source metadata.
// Parsing and extraction happen upstream; the engine only consumes the
// structured result.
type Document struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`

	// Type classifies the document (e.g. "datasheet", "forum_post") and
	// feeds the selection policy's exclusion filter.
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"` // e.g. "published", "draft"

	Authority DocumentAuthority `json:"authority"`

	Claims []ClaimInput `json:"claims"`
}

// ClaimInput is one extracted assertion before subject resolution. Subject
// and entity mentions are raw strings; ingestion resolves them.
type ClaimInput struct {
	Subject string `json:"subject"`
	Kind    string `json:"kind"`

	Text  string `json:"text"`
	Value Value  `json:"value"`

	// Qualifiers are the contextual dimensions the claim applies under
	// (edition, region, release, ...). Each key is treated as a tracked
	// applicability axis.
	Qualifiers map[string]string `json:"qualifiers,omitempty"`

	EvidenceQuote string   `json:"evidence_quote,omitempty"`
	SegmentID     string   `json:"segment_id,omitempty"`
	Entities      []string `json:"entities,omitempty"`
	Conditional   bool     `json:"conditional,omitempty"`

	Confidence float64 `json:"confidence"`

	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// Validate checks the structural requirements of a document.
func (d *Document) Validate() error {
	switch {
	case d.TenantID == "":
		return &InputError{Document: d.ID, Field: "tenant_id", Reason: "required"}
	case d.ID == "":
		return &InputError{Tenant: d.TenantID, Field: "id", Reason: "required"}
	case len(d.Claims) == 0:
		return &InputError{Tenant: d.TenantID, Document: d.ID, Field: "claims", Reason: "at least one required"}
	}
	for i := range d.Claims {
		if err := d.Claims[i].Validate(d.TenantID, d.ID); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks one claim input in its document's context.
func (c *ClaimInput) Validate(tenantID, documentID string) error {
	switch {
	case strings.TrimSpace(c.Subject) == "":
		return &InputError{Tenant: tenantID, Document: documentID, Field: "subject", Reason: "required"}
	case c.Kind == "":
		return &InputError{Tenant: tenantID, Document: documentID, Subject: c.Subject, Field: "kind", Reason: "required"}
	case c.Confidence < 0 || c.Confidence > 1:
		return &InputError{Tenant: tenantID, Document: documentID, Subject: c.Subject, Field: "confidence", Reason: "must be in [0,1]"}
	}
	return nil
}

// ScopeKey canonicalizes qualifier pairs into a stable grouping key:
// keys sorted, rendered as "k=v" joined by "|". Empty qualifiers yield
// "default".
func ScopeKey(qualifiers map[string]string) string {
	if len(qualifiers) == 0 {
		return "default"
	}
	keys := make([]string, 0, len(qualifiers))
	for k := range qualifiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.ToLower(strings.TrimSpace(qualifiers[k])))
	}
	return strings.Join(parts, "|")
}
