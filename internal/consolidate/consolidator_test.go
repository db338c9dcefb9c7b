package consolidate

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/model"
)

func testConsolidator() *Consolidator {
	return NewConsolidator(model.DefaultConfig().Consolidate, zap.NewNop())
}

func rawClaim(id, doc string, value model.Value) *model.RawClaim {
	return &model.RawClaim{
		ID:         id,
		TenantID:   "acme",
		SubjectID:  "subj-1",
		Kind:       "SLA",
		ScopeKey:   "edition=enterprise",
		Value:      value,
		DocumentID: doc,
		Confidence: 0.9,
		ObservedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestConsolidate_DisagreeingPercentagesConflict(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.ScalarValue(99.5, "%")),
		rawClaim("c2", "doc-b", model.ScalarValue(99.5, "%")),
		rawClaim("c3", "doc-c", model.ScalarValue(97.0, "%")),
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d canonical claims, want 1", len(out))
	}

	got := out[0]
	if got.Maturity != model.MaturityConflicting {
		t.Errorf("maturity = %s, want %s", got.Maturity, model.MaturityConflicting)
	}
	wantIDs := []string{"c1", "c2", "c3"}
	if !reflect.DeepEqual(got.ConflictingClaimIDs, wantIDs) {
		t.Errorf("conflicting claim IDs = %v, want %v", got.ConflictingClaimIDs, wantIDs)
	}
	// The majority value is still reported alongside the conflict.
	if got.Value.Canonical() != "99.5%" {
		t.Errorf("representative value = %q, want %q", got.Value.Canonical(), "99.5%")
	}
	if got.DocumentCount != 3 || got.AssertionCount != 3 {
		t.Errorf("counts = (%d docs, %d assertions), want (3, 3)",
			got.DocumentCount, got.AssertionCount)
	}
}

func TestConsolidate_Idempotent(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.ScalarValue(99.5, "%")),
		rawClaim("c2", "doc-b", model.ScalarValue(97.0, "%")),
		rawClaim("c3", "doc-b", model.VersionValue("2.0")),
	}
	claims[2].Kind = "release_id"

	c := testConsolidator()
	first, err := c.Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	// Second run sees the same claims in a different order.
	reversed := []*model.RawClaim{claims[2], claims[0], claims[1]}
	second, err := c.Consolidate("acme", reversed)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconsolidation changed output:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	for _, claim := range first {
		if claim.ID == "" {
			t.Error("canonical claim ID is empty")
		}
	}
}

func TestConsolidate_TwoAgreeingDocumentsValidate(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.ScalarValue(200, "ms")),
		rawClaim("c2", "doc-b", model.ScalarValue(205, "ms")), // within 5% tolerance
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if out[0].Maturity != model.MaturityValidated {
		t.Errorf("maturity = %s, want %s", out[0].Maturity, model.MaturityValidated)
	}
}

func TestConsolidate_NumericBeyondToleranceConflicts(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.ScalarValue(200, "ms")),
		rawClaim("c2", "doc-b", model.ScalarValue(300, "ms")),
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if out[0].Maturity != model.MaturityConflicting {
		t.Errorf("maturity = %s, want %s", out[0].Maturity, model.MaturityConflicting)
	}
}

func TestConsolidate_SingleSourceStaysCandidate(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.BoolValue(true)),
		rawClaim("c2", "doc-a", model.BoolValue(true)),
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if out[0].Maturity != model.MaturityCandidate {
		t.Errorf("maturity = %s, want %s", out[0].Maturity, model.MaturityCandidate)
	}
}

func TestConsolidate_MostlyConditionalIsContextDependent(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.BoolValue(true)),
		rawClaim("c2", "doc-b", model.BoolValue(true)),
		rawClaim("c3", "doc-c", model.BoolValue(false)),
		rawClaim("c4", "doc-d", model.BoolValue(true)),
	}
	for _, claim := range claims[:3] {
		claim.Conditional = true
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	// 3 of 4 conditional, above the 0.7 threshold. Conditionality is
	// checked before value conflicts.
	if out[0].Maturity != model.MaturityContextDependent {
		t.Errorf("maturity = %s, want %s", out[0].Maturity, model.MaturityContextDependent)
	}
}

func TestConsolidate_OrderedVersionsSupersede(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.VersionValue("1.0")),
		rawClaim("c2", "doc-b", model.VersionValue("2.0")),
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	got := out[0]
	if got.Maturity != model.MaturitySuperseded {
		t.Errorf("maturity = %s, want %s", got.Maturity, model.MaturitySuperseded)
	}
	if got.Value.Version != "2.0" {
		t.Errorf("value = %q, want newest version %q", got.Value.Version, "2.0")
	}
	if len(got.ConflictingClaimIDs) != 0 {
		t.Errorf("superseded group should not list conflicting IDs, got %v",
			got.ConflictingClaimIDs)
	}
}

func TestConsolidate_UnorderableVersionsConflict(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.VersionValue("2.0")),
		rawClaim("c2", "doc-b", model.VersionValue("beta")),
	}

	out, err := testConsolidator().Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	// "beta" breaks the version shape, so no certain order exists and the
	// disagreement must surface instead of being silently resolved.
	if out[0].Maturity != model.MaturityConflicting {
		t.Errorf("maturity = %s, want %s", out[0].Maturity, model.MaturityConflicting)
	}
}

func TestConsolidate_MajorityTieGoesToMostRecent(t *testing.T) {
	older := rawClaim("c1", "doc-a", model.TextValue("region eu-west"))
	newer := rawClaim("c2", "doc-b", model.TextValue("region eu-central"))
	newer.ObservedAt = older.ObservedAt.Add(24 * time.Hour)
	newer.Conditional = false

	out, err := testConsolidator().Consolidate("acme", []*model.RawClaim{older, newer})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if out[0].Value.Canonical() != "region eu-central" {
		t.Errorf("representative value = %q, want the more recent %q",
			out[0].Value.Canonical(), "region eu-central")
	}
}

func TestConsolidate_SourcesPreferDistinctDocuments(t *testing.T) {
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.BoolValue(true)),
		rawClaim("c2", "doc-a", model.BoolValue(true)),
		rawClaim("c3", "doc-b", model.BoolValue(true)),
	}
	cfg := model.DefaultConfig().Consolidate
	cfg.MaxSources = 2
	c := NewConsolidator(cfg, zap.NewNop())

	out, err := c.Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	sources := out[0].Sources
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].DocumentID == sources[1].DocumentID {
		t.Errorf("both sources cite %q, want distinct documents", sources[0].DocumentID)
	}
}

func TestConsolidate_SourcesUnaffectedByClaimDocumentIDCollision(t *testing.T) {
	// The second claim's ID equals its document's ID; the repeat-document
	// pass must still cite it.
	claims := []*model.RawClaim{
		rawClaim("c1", "doc-a", model.BoolValue(true)),
		rawClaim("doc-a", "doc-a", model.BoolValue(true)),
	}
	claims[1].Confidence = 0.8
	cfg := model.DefaultConfig().Consolidate
	cfg.MaxSources = 2
	c := NewConsolidator(cfg, zap.NewNop())

	out, err := c.Consolidate("acme", claims)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if got := len(out[0].Sources); got != 2 {
		t.Fatalf("got %d sources, want 2", got)
	}
}

func TestConsolidate_SeparateGroupsStaySeparate(t *testing.T) {
	a := rawClaim("c1", "doc-a", model.ScalarValue(99.5, "%"))
	b := rawClaim("c2", "doc-a", model.ScalarValue(97.0, "%"))
	b.ScopeKey = "edition=community"

	out, err := testConsolidator().Consolidate("acme", []*model.RawClaim{a, b})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d canonical claims, want 2", len(out))
	}
	for _, claim := range out {
		if claim.Maturity != model.MaturityCandidate {
			t.Errorf("scope %q maturity = %s, want %s",
				claim.ScopeKey, claim.Maturity, model.MaturityCandidate)
		}
	}
}

func TestConsolidate_InvalidClaimsSkipped(t *testing.T) {
	valid := rawClaim("c1", "doc-a", model.BoolValue(true))
	invalid := rawClaim("c2", "", model.BoolValue(true)) // missing document

	out, err := testConsolidator().Consolidate("acme", []*model.RawClaim{valid, invalid})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(out) != 1 || out[0].AssertionCount != 1 {
		t.Errorf("invalid claim leaked into consolidation: %+v", out)
	}
}

func TestConsolidate_MissingTenantRejected(t *testing.T) {
	_, err := testConsolidator().Consolidate("", nil)
	var inputErr *model.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("got %v, want InputError", err)
	}
}
