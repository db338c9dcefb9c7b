package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/axis"
	"github.com/fredpottier/kbgraph/internal/cluster"
	"github.com/fredpottier/kbgraph/internal/consolidate"
	"github.com/fredpottier/kbgraph/internal/embed"
	"github.com/fredpottier/kbgraph/internal/latest"
	"github.com/fredpottier/kbgraph/internal/model"
	"github.com/fredpottier/kbgraph/internal/resolve"
	"github.com/fredpottier/kbgraph/internal/store"
	"github.com/fredpottier/kbgraph/internal/worker"
)

// Stores groups the persistence backends the engine writes through.
type Stores struct {
	Subjects store.SubjectStore
	Claims   store.ClaimStore
	Graph    store.GraphStore
}

// Engine orchestrates the full claim lifecycle: ingestion (resolve subjects,
// append raw claims, update axes) and the derived read paths (clustering,
// consolidation, currency selection). Documents may be ingested in parallel;
// subject-registry and per-axis mutations are serialized through keyed locks.
type Engine struct {
	cfg *model.Config
	log *zap.Logger

	subjects store.SubjectStore
	claims   store.ClaimStore
	graph    store.GraphStore

	resolver     *resolve.Resolver
	clusterer    *cluster.Clusterer
	consolidator *consolidate.Consolidator
	selector     *latest.Selector

	locks *worker.KeyedLocks
}

// NewEngine wires the components over the given stores. provider may be nil;
// resolution and clustering then run lexical-only.
func NewEngine(cfg *model.Config, stores Stores, provider embed.Provider, log *zap.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		log:          log,
		subjects:     stores.Subjects,
		claims:       stores.Claims,
		graph:        stores.Graph,
		resolver:     resolve.NewResolver(cfg.Resolver, stores.Subjects, provider, log),
		clusterer:    cluster.NewClusterer(cfg.Cluster, provider, log),
		consolidator: consolidate.NewConsolidator(cfg.Consolidate, log),
		selector:     latest.NewSelector(cfg.Latest, log),
		locks:        worker.NewKeyedLocks(),
	}
}

// SkippedClaim records one claim input that ingestion did not persist,
// with the resolution outcome that caused it.
type SkippedClaim struct {
	Subject string `json:"subject"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// IngestReport summarizes one document ingestion.
type IngestReport struct {
	DocumentID string `json:"document_id"`

	Claims     int `json:"claims"`
	Appended   int `json:"appended"`
	Duplicates int `json:"duplicates"`

	SubjectsCreated int `json:"subjects_created"`

	Skipped []SkippedClaim `json:"skipped,omitempty"`

	AxesUpdated []string      `json:"axes_updated,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// IngestDocument resolves the document's subject mentions, appends its raw
// claims idempotently, and feeds qualifier values into the applicability
// axes. Ambiguous or rejected resolutions skip only the affected claim;
// there is no implicit retry, re-ingesting after a fix is safe.
func (e *Engine) IngestDocument(ctx context.Context, doc *model.Document) (*IngestReport, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	report := &IngestReport{DocumentID: doc.ID, Claims: len(doc.Claims)}
	axesTouched := make(map[string]bool)

	for i := range doc.Claims {
		in := &doc.Claims[i]

		res, err := e.resolveLocked(ctx, doc.TenantID, in.Subject)
		if err != nil {
			return nil, err
		}
		if res.Status == resolve.StatusCreated {
			report.SubjectsCreated++
		}
		if res.Subject == nil {
			report.Skipped = append(report.Skipped, SkippedClaim{
				Subject: in.Subject,
				Status:  string(res.Status),
				Reason:  res.Reason,
			})
			continue
		}

		entities, created, err := e.resolveEntities(ctx, doc.TenantID, in.Entities)
		if err != nil {
			return nil, err
		}
		report.SubjectsCreated += created

		claim := e.buildClaim(doc, in, res.Subject.ID, entities)
		added, err := e.claims.AppendClaim(ctx, claim)
		if err != nil {
			return nil, fmt.Errorf("append claim for subject %s: %w", res.Subject.ID, err)
		}
		if added {
			report.Appended++
		} else {
			report.Duplicates++
		}

		for key, value := range axisObservations(in) {
			updated, err := e.observeAxis(ctx, doc.TenantID, key, value)
			if err != nil {
				return nil, err
			}
			if updated {
				axesTouched[key] = true
			}
		}
	}

	for key := range axesTouched {
		report.AxesUpdated = append(report.AxesUpdated, key)
	}
	sort.Strings(report.AxesUpdated)
	report.Elapsed = time.Since(start)

	e.log.Info("document ingested",
		zap.String("tenant", doc.TenantID),
		zap.String("document", doc.ID),
		zap.Int("appended", report.Appended),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// ResolveSubject maps one raw name to a subject, serialized against other
// registry writers for the tenant.
func (e *Engine) ResolveSubject(ctx context.Context, tenantID, rawName string) (*resolve.Result, error) {
	return e.resolveLocked(ctx, tenantID, rawName)
}

func (e *Engine) resolveLocked(ctx context.Context, tenantID, rawName string) (*resolve.Result, error) {
	// Resolution scores against the whole registry, so creations and alias
	// learning serialize per tenant, not per subject.
	key := tenantID + "|subjects"
	e.locks.Lock(key)
	defer e.locks.Unlock(key)
	return e.resolver.Resolve(ctx, tenantID, rawName)
}

// resolveEntities resolves entity mentions, dropping the ones the resolver
// abstains on. Entity ambiguity never blocks the claim itself.
func (e *Engine) resolveEntities(ctx context.Context, tenantID string, mentions []string) ([]string, int, error) {
	var ids []string
	created := 0
	for _, mention := range mentions {
		res, err := e.resolveLocked(ctx, tenantID, mention)
		if err != nil {
			return nil, 0, err
		}
		if res.Status == resolve.StatusCreated {
			created++
		}
		if res.Subject != nil {
			ids = append(ids, res.Subject.ID)
		}
	}
	return ids, created, nil
}

func (e *Engine) buildClaim(doc *model.Document, in *model.ClaimInput, subjectID string, entities []string) *model.RawClaim {
	observedAt := in.ObservedAt
	if observedAt.IsZero() {
		observedAt = time.Now().UTC()
	}

	claim := &model.RawClaim{
		TenantID:      doc.TenantID,
		SubjectID:     subjectID,
		Kind:          in.Kind,
		Text:          in.Text,
		Value:         in.Value,
		ScopeKey:      model.ScopeKey(in.Qualifiers),
		Qualifiers:    in.Qualifiers,
		EvidenceQuote: in.EvidenceQuote,
		DocumentID:    doc.ID,
		SegmentID:     in.SegmentID,
		Entities:      entities,
		Conditional:   in.Conditional,
		Confidence:    in.Confidence,
		ObservedAt:    observedAt,
	}
	// The content fingerprint doubles as the claim ID, so replays produce
	// the same row instead of a sibling.
	claim.ID = store.Fingerprint(claim)
	return claim
}

// axisObservations extracts the (axis key, value) pairs a claim contributes:
// every qualifier pair, plus the claim's own value when it is version-shaped
// (a "release_id" claim tracks the "release_id" axis).
func axisObservations(in *model.ClaimInput) map[string]string {
	obs := make(map[string]string, len(in.Qualifiers)+1)
	for key, value := range in.Qualifiers {
		obs[key] = value
	}
	if in.Value.Kind == model.ValueVersion && in.Value.Version != "" {
		obs[in.Kind] = in.Value.Version
	}
	return obs
}

// observeAxis folds one observed value into the tenant's axis under the
// per-axis lock. Inference runs on the full value set once it has at least
// two members; merging never weakens previously established order.
func (e *Engine) observeAxis(ctx context.Context, tenantID, key, value string) (bool, error) {
	lockKey := tenantID + "|axis:" + key
	e.locks.Lock(lockKey)
	defer e.locks.Unlock(lockKey)

	current, err := e.graph.GetAxis(ctx, tenantID, key)
	if errors.Is(err, store.ErrNotFound) {
		current = &model.ApplicabilityAxis{TenantID: tenantID, Key: key}
	} else if err != nil {
		return false, fmt.Errorf("load axis %q: %w", key, err)
	}

	observed, added := axis.Observe(*current, value)
	if !added {
		return false, nil
	}
	if len(observed.Values) >= 2 {
		observed = axis.Merge(observed, axis.InferOrder(observed.Values))
	}

	if err := e.graph.UpsertAxis(ctx, &observed); err != nil {
		return false, fmt.Errorf("persist axis %q: %w", key, err)
	}
	return true, nil
}

// InferAxisOrder runs order inference over raw values without touching
// stored state.
func (e *Engine) InferAxisOrder(values []string) axis.Inference {
	return axis.InferOrder(values)
}

// Axis returns the stored axis state for a key.
func (e *Engine) Axis(ctx context.Context, tenantID, key string) (*model.ApplicabilityAxis, error) {
	return e.graph.GetAxis(ctx, tenantID, key)
}

// ClusterClaims runs the clusterer over a snapshot of the tenant's raw
// claims and persists the resulting clusters.
func (e *Engine) ClusterClaims(ctx context.Context, tenantID string) (*cluster.Output, error) {
	snapshot, err := e.claims.ListClaims(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("snapshot raw claims: %w", err)
	}

	out, err := e.clusterer.Cluster(ctx, tenantID, snapshot)
	if err != nil {
		return nil, err
	}
	for _, cl := range out.Clusters {
		if err := e.graph.UpsertCluster(ctx, cl); err != nil {
			return nil, fmt.Errorf("persist cluster %s: %w", cl.ID, err)
		}
	}
	return out, nil
}

// ConsolidateClaims recomputes every canonical claim for the tenant from
// the raw claim snapshot and persists them.
func (e *Engine) ConsolidateClaims(ctx context.Context, tenantID string) ([]*model.CanonicalClaim, error) {
	snapshot, err := e.claims.ListClaims(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("snapshot raw claims: %w", err)
	}

	canonical, err := e.consolidator.Consolidate(tenantID, snapshot)
	if err != nil {
		return nil, err
	}
	for _, claim := range canonical {
		if err := e.graph.UpsertCanonicalClaim(ctx, claim); err != nil {
			return nil, fmt.Errorf("persist canonical claim %s: %w", claim.ID, err)
		}
	}
	return canonical, nil
}

// SelectLatest decides the current document among candidates using the
// tenant's stored axes and the configured policy.
func (e *Engine) SelectLatest(ctx context.Context, tenantID string, candidates []model.DocCandidate) (*latest.Selection, error) {
	stored, err := e.graph.ListAxes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("load axes: %w", err)
	}
	axes := make(map[string]*model.ApplicabilityAxis, len(stored))
	for _, ax := range stored {
		axes[ax.Key] = ax
	}
	return e.selector.SelectLatest(candidates, axes), nil
}
