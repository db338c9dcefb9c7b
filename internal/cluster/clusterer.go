package cluster

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/embed"
	"github.com/fredpottier/kbgraph/internal/model"
	"github.com/fredpottier/kbgraph/internal/textutil"
)

// Clusterer groups raw claims that assert the same fact across documents.
// It is deliberately conservative: a missed merge is recoverable on the
// next run, a wrong merge poisons the knowledge base. Every candidate pair
// must survive strict validation before it contributes to a cluster.
type Clusterer struct {
	cfg      model.ClusterConfig
	provider embed.Provider // may be nil; lexical matching then applies
	log      *zap.Logger
}

// NewClusterer creates a clusterer. provider may be nil.
func NewClusterer(cfg model.ClusterConfig, provider embed.Provider, log *zap.Logger) *Clusterer {
	return &Clusterer{cfg: cfg, provider: provider, log: log}
}

// member is a claim prepared for pairwise comparison.
type member struct {
	claim    *model.RawClaim
	vector   []float32 // nil when embeddings were unavailable
	modality Modality
	negated  bool
	entities map[string]bool
}

// Output is the result of one clustering run over a claim snapshot.
type Output struct {
	Clusters []*model.ClaimCluster

	// Unclustered lists claim IDs not covered by any cluster, including
	// members trimmed from oversized clusters - those may seed new
	// clusters on a later run.
	Unclustered []string

	// Skipped counts claims dropped for empty or invalid text.
	Skipped int
}

// Cluster runs both stages over a snapshot of raw claims. Embedding
// failures are not fatal; affected comparisons fall back to lexical
// similarity.
func (c *Clusterer) Cluster(ctx context.Context, tenantID string, claims []*model.RawClaim) (*Output, error) {
	if tenantID == "" {
		return nil, &model.InputError{Field: "tenant_id", Reason: "required"}
	}

	members, skipped := c.prepare(ctx, claims)
	if skipped > 0 {
		c.log.Info("skipped claims with empty text",
			zap.String("tenant", tenantID), zap.Int("count", skipped))
	}

	uf := newUnionFind(len(members))
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if c.candidatePair(members[i], members[j]) && c.validatePair(members[i], members[j]) {
				uf.union(i, j)
			}
		}
	}

	components := make(map[int][]*member)
	for i := range members {
		root := uf.find(i)
		components[root] = append(components[root], members[i])
	}

	clustered := make(map[string]bool)
	var clusters []*model.ClaimCluster
	for _, component := range components {
		if len(component) < 2 || distinctDocuments(component) < 2 {
			continue
		}
		kept := c.trim(component)
		if len(kept) < 2 || distinctDocuments(kept) < 2 {
			continue
		}
		clusters = append(clusters, buildCluster(tenantID, kept))
		for _, m := range kept {
			clustered[m.claim.ID] = true
		}
	}

	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Label < clusters[j].Label })

	var unclustered []string
	for _, m := range members {
		if !clustered[m.claim.ID] {
			unclustered = append(unclustered, m.claim.ID)
		}
	}

	return &Output{Clusters: clusters, Unclustered: unclustered, Skipped: skipped}, nil
}

// prepare filters unusable claims and precomputes comparison features.
func (c *Clusterer) prepare(ctx context.Context, claims []*model.RawClaim) ([]*member, int) {
	var members []*member
	skipped := 0
	for _, claim := range claims {
		text := textutil.StripMarkup(claim.Text)
		if len(textutil.ContentTokens(text)) == 0 {
			skipped++
			continue
		}

		m := &member{
			claim:    claim,
			modality: classifyModality(claim.Text),
			negated:  isNegated(claim.Text),
			entities: make(map[string]bool, len(claim.Entities)),
		}
		for _, e := range claim.Entities {
			m.entities[e] = true
		}

		if c.provider != nil {
			vector, err := c.provider.Embed(ctx, claim.Text)
			if err != nil {
				// Downgrade this claim to lexical matching only.
				c.log.Warn("embedding unavailable, falling back to lexical similarity",
					zap.String("claim_id", claim.ID), zap.Error(err))
			} else {
				m.vector = vector
			}
		}

		members = append(members, m)
	}
	return members, skipped
}

// candidatePair is stage 1: embedding cosine when both vectors exist,
// token-set Jaccard otherwise.
func (c *Clusterer) candidatePair(a, b *member) bool {
	if a.vector != nil && b.vector != nil {
		return embed.Cosine(a.vector, b.vector) >= c.cfg.EmbeddingThreshold
	}
	return textutil.Jaccard(a.claim.Text, b.claim.Text) >= c.cfg.JaccardThreshold
}

// validatePair is stage 2: every check must hold to keep a candidate pair.
func (c *Clusterer) validatePair(a, b *member) bool {
	// Claims with disjoint resolved entity sets talk about different
	// things, whatever their wording similarity says.
	if len(a.entities) > 0 && len(b.entities) > 0 && !intersects(a.entities, b.entities) {
		return false
	}
	if a.modality != b.modality {
		return false
	}
	if a.negated != b.negated {
		return false
	}
	// Lexical overlap is re-checked even for embedding-accepted pairs.
	return textutil.Jaccard(a.claim.Text, b.claim.Text) >= c.cfg.JaccardThreshold
}

// trim caps an oversized component at MaxClusterSize, keeping the members
// nearest the embedding centroid, or by (confidence desc, ID asc) when
// vectors are missing. Trimmed members stay unclustered and may seed other
// clusters on a later run.
func (c *Clusterer) trim(component []*member) []*member {
	if c.cfg.MaxClusterSize <= 0 || len(component) <= c.cfg.MaxClusterSize {
		return component
	}

	kept := make([]*member, len(component))
	copy(kept, component)

	centroid := centroidOf(kept)
	if centroid != nil {
		sort.Slice(kept, func(i, j int) bool {
			di := embed.Cosine(kept[i].vector, centroid)
			dj := embed.Cosine(kept[j].vector, centroid)
			if di != dj {
				return di > dj
			}
			return kept[i].claim.ID < kept[j].claim.ID
		})
	} else {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].claim.Confidence != kept[j].claim.Confidence {
				return kept[i].claim.Confidence > kept[j].claim.Confidence
			}
			return kept[i].claim.ID < kept[j].claim.ID
		})
	}
	return kept[:c.cfg.MaxClusterSize]
}

// centroidOf returns the mean vector if every member has one, else nil.
func centroidOf(members []*member) []float32 {
	if len(members) == 0 || members[0].vector == nil {
		return nil
	}
	dim := len(members[0].vector)
	sum := make([]float64, dim)
	for _, m := range members {
		if m.vector == nil || len(m.vector) != dim {
			return nil
		}
		for i, v := range m.vector {
			sum[i] += float64(v)
		}
	}
	centroid := make([]float32, dim)
	for i, v := range sum {
		centroid[i] = float32(v / float64(len(members)))
	}
	return centroid
}

func buildCluster(tenantID string, members []*member) *model.ClaimCluster {
	best := members[0]
	total := 0.0
	docs := make(map[string]bool)
	claimIDs := make([]string, 0, len(members))

	for _, m := range members {
		claimIDs = append(claimIDs, m.claim.ID)
		docs[m.claim.DocumentID] = true
		total += m.claim.Confidence
		if m.claim.Confidence > best.claim.Confidence ||
			(m.claim.Confidence == best.claim.Confidence && m.claim.ID < best.claim.ID) {
			best = m
		}
	}
	sort.Strings(claimIDs)

	docIDs := make([]string, 0, len(docs))
	for id := range docs {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	return &model.ClaimCluster{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Label:       best.claim.Text,
		ClaimIDs:    claimIDs,
		DocumentIDs: docIDs,
		Confidence:  total / float64(len(members)),
		CreatedAt:   time.Now().UTC(),
	}
}

func distinctDocuments(members []*member) int {
	docs := make(map[string]bool)
	for _, m := range members {
		docs[m.claim.DocumentID] = true
	}
	return len(docs)
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
