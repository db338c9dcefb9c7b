package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fredpottier/kbgraph/internal/model"
)

func testClaim(doc string, value model.Value) *model.RawClaim {
	return &model.RawClaim{
		TenantID:   "acme",
		SubjectID:  "subj-1",
		Kind:       "SLA",
		Text:       "uptime commitment",
		Value:      value,
		ScopeKey:   "edition=enterprise",
		DocumentID: doc,
		Confidence: 0.9,
		ObservedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFingerprint_StableAndContentSensitive(t *testing.T) {
	a := testClaim("doc-a", model.ScalarValue(99.5, "%"))
	b := testClaim("doc-a", model.ScalarValue(99.5, "%"))
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical content produced different fingerprints")
	}

	// Fields outside the content identity do not move the fingerprint.
	b.Confidence = 0.2
	b.Text = "different wording"
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("non-identity fields changed the fingerprint")
	}

	changed := map[string]*model.RawClaim{
		"value":    testClaim("doc-a", model.ScalarValue(97.0, "%")),
		"document": testClaim("doc-b", model.ScalarValue(99.5, "%")),
	}
	for field, claim := range changed {
		if Fingerprint(a) == Fingerprint(claim) {
			t.Errorf("changing %s did not change the fingerprint", field)
		}
	}
}

func TestMemoryStore_AppendClaimDeduplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	added, err := s.AppendClaim(ctx, testClaim("doc-a", model.ScalarValue(99.5, "%")))
	if err != nil {
		t.Fatalf("AppendClaim: %v", err)
	}
	if !added {
		t.Error("first append reported not added")
	}

	added, err = s.AppendClaim(ctx, testClaim("doc-a", model.ScalarValue(99.5, "%")))
	if err != nil {
		t.Fatalf("AppendClaim replay: %v", err)
	}
	if added {
		t.Error("replayed append reported added")
	}

	claims, err := s.ListClaims(ctx, "acme")
	if err != nil {
		t.Fatalf("ListClaims: %v", err)
	}
	if len(claims) != 1 {
		t.Errorf("got %d claims, want 1", len(claims))
	}
}

func TestMemoryStore_AppendClaimValidates(t *testing.T) {
	s := NewMemoryStore()
	claim := testClaim("doc-a", model.BoolValue(true))
	claim.TenantID = ""

	_, err := s.AppendClaim(context.Background(), claim)
	var inputErr *model.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("got %v, want InputError", err)
	}
}

func TestMemoryStore_ListClaimsReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if _, err := s.AppendClaim(ctx, testClaim("doc-a", model.BoolValue(true))); err != nil {
		t.Fatalf("AppendClaim: %v", err)
	}

	first, _ := s.ListClaims(ctx, "acme")
	first[0].Text = "mutated by caller"

	second, _ := s.ListClaims(ctx, "acme")
	if second[0].Text != "uptime commitment" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestMemoryStore_SubjectRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetSubject(ctx, "acme", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing subject: got %v, want ErrNotFound", err)
	}

	subject := model.NewSubject("acme", "Aurora Cloud Platform")
	if err := s.UpsertSubject(ctx, subject); err != nil {
		t.Fatalf("UpsertSubject: %v", err)
	}

	got, err := s.GetSubject(ctx, "acme", subject.ID)
	if err != nil {
		t.Fatalf("GetSubject: %v", err)
	}
	if got.CanonicalName != "Aurora Cloud Platform" {
		t.Errorf("canonical name = %q", got.CanonicalName)
	}

	// Tenants are isolated.
	if _, err := s.GetSubject(ctx, "other", subject.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant read: got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_AxisRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetAxis(ctx, "acme", "release"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing axis: got %v, want ErrNotFound", err)
	}

	ax := &model.ApplicabilityAxis{
		TenantID:    "acme",
		Key:         "release",
		Values:      []string{"2.0", "3.0"},
		IsOrderable: true,
		Confidence:  model.ConfidenceCertain,
		OrderType:   model.OrderTotal,
		ValueOrder:  []string{"2.0", "3.0"},
	}
	if err := s.UpsertAxis(ctx, ax); err != nil {
		t.Fatalf("UpsertAxis: %v", err)
	}

	got, err := s.GetAxis(ctx, "acme", "release")
	if err != nil {
		t.Fatalf("GetAxis: %v", err)
	}
	if !got.IsOrderable || got.Confidence != model.ConfidenceCertain {
		t.Errorf("axis state = %+v", got)
	}

	axes, err := s.ListAxes(ctx, "acme")
	if err != nil {
		t.Fatalf("ListAxes: %v", err)
	}
	if len(axes) != 1 || axes[0].Key != "release" {
		t.Errorf("ListAxes = %+v", axes)
	}
}

func TestMemoryStore_CanonicalClaimUpsertReplaces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	claim := &model.CanonicalClaim{
		ID:       "canon-1",
		TenantID: "acme",
		Maturity: model.MaturityCandidate,
	}
	if err := s.UpsertCanonicalClaim(ctx, claim); err != nil {
		t.Fatalf("UpsertCanonicalClaim: %v", err)
	}

	claim.Maturity = model.MaturityValidated
	if err := s.UpsertCanonicalClaim(ctx, claim); err != nil {
		t.Fatalf("UpsertCanonicalClaim update: %v", err)
	}

	stored, err := s.ListCanonicalClaims(ctx, "acme")
	if err != nil {
		t.Fatalf("ListCanonicalClaims: %v", err)
	}
	if len(stored) != 1 || stored[0].Maturity != model.MaturityValidated {
		t.Errorf("stored = %+v, want one VALIDATED row", stored)
	}
}
