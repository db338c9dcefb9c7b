package model

import "fmt"

// InputError reports a malformed input structure: the only class of hard
// failure the engine produces. It carries enough context to retry the item
// after a fix. Ambiguity and unavailable dependencies are not errors; they
// surface as typed result statuses.
type InputError struct {
	Tenant   string
	Document string
	Subject  string
	Field    string
	Reason   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input (tenant=%q document=%q subject=%q): %s: %s",
		e.Tenant, e.Document, e.Subject, e.Field, e.Reason)
}

// Validate checks the structural requirements of a raw claim.
func (c *RawClaim) Validate() error {
	switch {
	case c.TenantID == "":
		return &InputError{Document: c.DocumentID, Subject: c.SubjectID, Field: "tenant_id", Reason: "required"}
	case c.DocumentID == "":
		return &InputError{Tenant: c.TenantID, Subject: c.SubjectID, Field: "document_id", Reason: "required"}
	case c.SubjectID == "":
		return &InputError{Tenant: c.TenantID, Document: c.DocumentID, Field: "subject_id", Reason: "required"}
	case c.Kind == "":
		return &InputError{Tenant: c.TenantID, Document: c.DocumentID, Subject: c.SubjectID, Field: "kind", Reason: "required"}
	case c.Confidence < 0 || c.Confidence > 1:
		return &InputError{Tenant: c.TenantID, Document: c.DocumentID, Subject: c.SubjectID, Field: "confidence", Reason: "must be in [0,1]"}
	}
	return nil
}
