package cluster

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/model"
)

type fakeProvider struct {
	vectors map[string][]float32
	err     error
}

func (p *fakeProvider) Name() string                     { return "fake" }
func (p *fakeProvider) Available(_ context.Context) bool { return p.err == nil }

func (p *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	if v, ok := p.vectors[text]; ok {
		return v, nil
	}
	return nil, errors.New("no vector for text")
}

func testClaim(id, doc, text string, confidence float64, entities ...string) *model.RawClaim {
	return &model.RawClaim{
		ID:         id,
		TenantID:   "t1",
		SubjectID:  "subj-1",
		Kind:       "SLA",
		Text:       text,
		Value:      model.TextValue(text),
		DocumentID: doc,
		Entities:   entities,
		Confidence: confidence,
	}
}

func newTestClusterer(provider *fakeProvider) *Clusterer {
	cfg := model.DefaultConfig().Cluster
	if provider == nil {
		return NewClusterer(cfg, nil, zap.NewNop())
	}
	return NewClusterer(cfg, provider, zap.NewNop())
}

func TestCluster_EquivalentClaimsAcrossDocumentsMerge(t *testing.T) {
	clusterer := newTestClusterer(nil)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "Uptime SLA must reach 99.5 percent in public cloud deployments", 0.8, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 1 {
		t.Fatalf("Expected 1 cluster, got %d", len(output.Clusters))
	}

	c := output.Clusters[0]
	if len(c.ClaimIDs) != 2 {
		t.Errorf("Expected 2 member claims, got %d", len(c.ClaimIDs))
	}
	if len(c.DocumentIDs) != 2 {
		t.Errorf("Expected 2 distinct documents, got %d", len(c.DocumentIDs))
	}
	if c.Label != claims[0].Text {
		t.Errorf("Expected label from highest-confidence member, got %q", c.Label)
	}
}

func TestCluster_DisjointEntitiesNeverMerge(t *testing.T) {
	clusterer := newTestClusterer(nil)

	// Near-identical wording about two different subjects.
	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-2"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 0 {
		t.Errorf("Expected no cluster for disjoint entity sets, got %d", len(output.Clusters))
	}
}

func TestCluster_DifferentModalityNeverMerges(t *testing.T) {
	clusterer := newTestClusterer(nil)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "Customers must encrypt backups at rest", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "Customers may encrypt backups at rest", 0.9, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 0 {
		t.Errorf("Expected obligation and permission to stay separate, got %d clusters", len(output.Clusters))
	}
}

func TestCluster_InvertedNegationNeverMerges(t *testing.T) {
	clusterer := newTestClusterer(nil)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "The gateway supports IPv6 traffic routing", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "The gateway does not support IPv6 traffic routing", 0.9, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 0 {
		t.Errorf("Expected negated and affirmative claims to stay separate, got %d clusters", len(output.Clusters))
	}
}

func TestCluster_SingleDocumentNeverFormsCluster(t *testing.T) {
	clusterer := newTestClusterer(nil)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-1"),
		testClaim("c2", "doc-a", "Uptime SLA must reach 99.5 percent in public cloud deployments", 0.8, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 0 {
		t.Errorf("Expected no cross-document cluster from one document, got %d", len(output.Clusters))
	}
}

func TestCluster_EmbeddingFailureFallsBackToLexical(t *testing.T) {
	provider := &fakeProvider{err: errors.New("provider down")}
	clusterer := newTestClusterer(provider)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "Uptime SLA must reach 99.5 percent in public cloud deployments", 0.8, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Expected clustering to survive a dead embedding provider, got %v", err)
	}
	if len(output.Clusters) != 1 {
		t.Errorf("Expected lexical fallback to still find 1 cluster, got %d", len(output.Clusters))
	}
}

func TestCluster_EmbeddingSimilarityStillNeedsLexicalOverlap(t *testing.T) {
	// Identical vectors report cosine 1.0, but the texts share almost no
	// tokens: the stage-2 lexical re-check must reject the pair.
	vec := []float32{1, 0, 0}
	provider := &fakeProvider{vectors: map[string][]float32{
		"Payment processing latency stays below two hundred milliseconds": vec,
		"Checkout response time is capped at 200ms":                       vec,
	}}
	clusterer := newTestClusterer(provider)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "Payment processing latency stays below two hundred milliseconds", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "Checkout response time is capped at 200ms", 0.9, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 0 {
		t.Errorf("Expected lexical re-check to reject the pair, got %d clusters", len(output.Clusters))
	}
}

func TestCluster_OversizedClusterTrimmedDeterministically(t *testing.T) {
	cfg := model.DefaultConfig().Cluster
	cfg.MaxClusterSize = 2
	clusterer := NewClusterer(cfg, nil, zap.NewNop())

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "Uptime SLA must reach 99.5 percent in public cloud deployments", 0.8, "subj-1"),
		testClaim("c3", "doc-c", "The uptime SLA must reach 99.5 percent for the public cloud offering", 0.7, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if len(output.Clusters) != 1 {
		t.Fatalf("Expected 1 trimmed cluster, got %d", len(output.Clusters))
	}

	c := output.Clusters[0]
	if len(c.ClaimIDs) != 2 {
		t.Fatalf("Expected cluster capped at 2 members, got %d", len(c.ClaimIDs))
	}
	// Without vectors the trim keeps the highest-confidence members.
	for _, id := range c.ClaimIDs {
		if id == "c3" {
			t.Error("Expected the lowest-confidence member to be trimmed")
		}
	}
	// The trimmed member stays unclustered and may seed a cluster later.
	found := false
	for _, id := range output.Unclustered {
		if id == "c3" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected trimmed member in unclustered set, got %v", output.Unclustered)
	}
}

func TestCluster_EmptyTextClaimsSkippedNotFatal(t *testing.T) {
	clusterer := newTestClusterer(nil)

	claims := []*model.RawClaim{
		testClaim("c1", "doc-a", "", 0.9, "subj-1"),
		testClaim("c2", "doc-b", "Uptime SLA must reach 99.5 percent in public cloud", 0.8, "subj-1"),
		testClaim("c3", "doc-c", "The uptime SLA must reach 99.5 percent for public cloud", 0.9, "subj-1"),
	}

	output, err := clusterer.Cluster(context.Background(), "t1", claims)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if output.Skipped != 1 {
		t.Errorf("Expected 1 skipped claim, got %d", output.Skipped)
	}
	if len(output.Clusters) != 1 {
		t.Errorf("Expected remaining claims to still cluster, got %d clusters", len(output.Clusters))
	}
}

func TestClassifyModality(t *testing.T) {
	cases := []struct {
		text string
		want Modality
	}{
		{"Backups must be encrypted at rest", ModalityStrongObligation},
		{"Operators shall rotate credentials quarterly", ModalityStrongObligation},
		{"Customers should enable audit logging", ModalityWeakObligation},
		{"Tenants may opt out of telemetry", ModalityPermission},
		{"The gateway runs on port 8443", ModalityNeutral},
	}
	for _, tc := range cases {
		if got := classifyModality(tc.text); got != tc.want {
			t.Errorf("classifyModality(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestIsNegated(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"The gateway does not support IPv6", true},
		{"The gateway doesn't support IPv6", true},
		{"Snapshots are never replicated offsite", true},
		{"The gateway supports IPv6", false},
	}
	for _, tc := range cases {
		if got := isNegated(tc.text); got != tc.want {
			t.Errorf("isNegated(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
