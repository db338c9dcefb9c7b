package store

import (
	"context"
	"errors"

	"github.com/fredpottier/kbgraph/internal/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// SubjectStore is the tenant-scoped subject registry. Subjects are only
// ever created and annotated, never deleted or merged.
type SubjectStore interface {
	// GetSubject returns the subject by ID, or ErrNotFound.
	GetSubject(ctx context.Context, tenantID, id string) (*model.Subject, error)

	// ListSubjects returns every subject for the tenant.
	ListSubjects(ctx context.Context, tenantID string) ([]*model.Subject, error)

	// UpsertSubject inserts or replaces the subject row.
	UpsertSubject(ctx context.Context, subject *model.Subject) error
}

// ClaimStore is the append-only raw claim log. Writes are keyed by content
// fingerprint so re-ingesting a document is idempotent.
type ClaimStore interface {
	// AppendClaim writes the claim unless its fingerprint already exists.
	// It returns true when the claim was new.
	AppendClaim(ctx context.Context, claim *model.RawClaim) (bool, error)

	// ListClaims returns a consistent snapshot of the tenant's raw claims.
	ListClaims(ctx context.Context, tenantID string) ([]*model.RawClaim, error)
}

// GraphStore persists derived artifacts - clusters, canonical claims, and
// applicability axes - with upsert (merge) semantics keyed by their stable
// identifiers. Derived rows are regenerated, never edited in place.
type GraphStore interface {
	UpsertCluster(ctx context.Context, cluster *model.ClaimCluster) error
	UpsertCanonicalClaim(ctx context.Context, claim *model.CanonicalClaim) error
	UpsertAxis(ctx context.Context, ax *model.ApplicabilityAxis) error

	// GetAxis returns the axis by key, or ErrNotFound.
	GetAxis(ctx context.Context, tenantID, key string) (*model.ApplicabilityAxis, error)

	// ListAxes returns every axis for the tenant.
	ListAxes(ctx context.Context, tenantID string) ([]*model.ApplicabilityAxis, error)
}
