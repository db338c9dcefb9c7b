package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/embed"
	"github.com/fredpottier/kbgraph/internal/model"
	"github.com/fredpottier/kbgraph/internal/store"
	"github.com/fredpottier/kbgraph/internal/textutil"
)

// Status classifies a resolution outcome. Ambiguity and rejection are
// first-class outcomes, not errors: the resolver abstains rather than guess.
type Status string

const (
	StatusMatched   Status = "matched"   // linked to an existing subject
	StatusCreated   Status = "created"   // a new subject was persisted
	StatusAmbiguous Status = "ambiguous" // no unique resolution; nothing linked
	StatusRejected  Status = "rejected"  // name failed the validity filter
)

// MatchType names which strategy produced a match.
type MatchType string

const (
	MatchExact        MatchType = "exact"
	MatchLearnedAlias MatchType = "learned_alias"
	MatchEmbedding    MatchType = "embedding"
	MatchNone         MatchType = "none"
)

// Candidate is one scored alternative surfaced with ambiguous results.
type Candidate struct {
	SubjectID  string  `json:"subject_id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Result is the outcome of resolving one raw subject mention.
type Result struct {
	Subject    *model.Subject `json:"subject,omitempty"`
	Status     Status         `json:"status"`
	Confidence float64        `json:"confidence"`
	MatchType  MatchType      `json:"match_type"`
	Candidates []Candidate    `json:"candidates,omitempty"` // populated when ambiguous
	Reason     string         `json:"reason,omitempty"`
}

// strategy is one stage of the resolution chain. Stages run in strict
// order; the first stage that returns done short-circuits the rest.
type strategy interface {
	name() string
	resolve(ctx context.Context, req *request) (*Result, bool)
}

type request struct {
	tenantID   string
	raw        string
	normalized string
	subjects   []*model.Subject

	// scored is filled by the embedding stage so the creation stage can
	// turn near-misses into possible-equivalent suggestions.
	scored []scoredSubject
}

type scoredSubject struct {
	subject    *model.Subject
	similarity float64
}

// Resolver maps raw subject mentions to canonical subjects. It never merges
// two existing subjects; at most it records possible-equivalent suggestions.
type Resolver struct {
	cfg        model.ResolverConfig
	subjects   store.SubjectStore
	provider   embed.Provider
	strategies []strategy
	log        *zap.Logger
}

// NewResolver creates a resolver over the given subject store. provider may
// be nil, in which case the embedding stage is skipped entirely.
func NewResolver(cfg model.ResolverConfig, subjects store.SubjectStore, provider embed.Provider, log *zap.Logger) *Resolver {
	r := &Resolver{cfg: cfg, subjects: subjects, provider: provider, log: log}
	r.strategies = []strategy{
		&exactStrategy{},
		&learnedAliasStrategy{},
		&embeddingStrategy{cfg: cfg, provider: provider, log: log},
	}
	return r
}

// Resolve maps a raw name to a subject for the tenant. Resolution tries, in
// order: exact normalized match, learned-alias match, embedding similarity,
// and finally creation of a new subject. Side effects: a successful
// embedding match records the raw name as a learned alias; creation
// persists a new subject (with possible-equivalent suggestions for any
// near-miss candidates). Everything else leaves the registry untouched.
func (r *Resolver) Resolve(ctx context.Context, tenantID, rawName string) (*Result, error) {
	raw := strings.TrimSpace(rawName)
	if tenantID == "" {
		return nil, &model.InputError{Subject: raw, Field: "tenant_id", Reason: "required"}
	}
	if raw == "" {
		return nil, &model.InputError{Tenant: tenantID, Field: "raw_name", Reason: "required"}
	}

	subjects, err := r.subjects.ListSubjects(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list subjects for tenant %s: %w", tenantID, err)
	}

	req := &request{
		tenantID:   tenantID,
		raw:        raw,
		normalized: textutil.NormalizeName(raw),
		subjects:   subjects,
	}

	for _, s := range r.strategies {
		result, done := s.resolve(ctx, req)
		if !done {
			continue
		}
		if result.Status == StatusMatched && result.MatchType == MatchEmbedding {
			// The raw mention resolved through similarity: remember it so
			// the next occurrence matches at the learned-alias stage.
			result.Subject.AddLearnedAlias(raw)
			if err := r.subjects.UpsertSubject(ctx, result.Subject); err != nil {
				return nil, fmt.Errorf("persist learned alias for subject %s: %w", result.Subject.ID, err)
			}
		}
		r.log.Debug("subject resolved",
			zap.String("tenant", tenantID),
			zap.String("raw", raw),
			zap.String("strategy", s.name()),
			zap.String("status", string(result.Status)))
		return result, nil
	}

	return r.create(ctx, req)
}

// create is the final stage: persist a new subject if the name passes the
// validity filter.
func (r *Resolver) create(ctx context.Context, req *request) (*Result, error) {
	if reason, ok := r.validName(req.raw); !ok {
		r.log.Debug("subject name rejected",
			zap.String("tenant", req.tenantID),
			zap.String("raw", req.raw),
			zap.String("reason", reason))
		return &Result{Status: StatusRejected, MatchType: MatchNone, Reason: reason}, nil
	}

	subject := model.NewSubject(req.tenantID, req.raw)

	// The vector lets later mentions reach this subject through the
	// embedding stage. Unavailable embeddings degrade to a vectorless
	// subject; they never block creation.
	if r.provider != nil {
		if vector, err := r.provider.Embed(ctx, subject.CanonicalName); err != nil {
			r.log.Warn("embedding unavailable for new subject",
				zap.String("tenant", req.tenantID),
				zap.String("name", subject.CanonicalName),
				zap.Error(err))
		} else {
			subject.Embedding = vector
		}
	}

	// Near-miss candidates become possible-equivalent suggestions on both
	// sides; the pair is never merged automatically.
	for _, near := range nearMisses(req, r.cfg.SuggestThreshold) {
		subject.SuggestEquivalent(near.ID)
		near.SuggestEquivalent(subject.ID)
		if err := r.subjects.UpsertSubject(ctx, near); err != nil {
			return nil, fmt.Errorf("persist equivalence suggestion for subject %s: %w", near.ID, err)
		}
	}

	if err := r.subjects.UpsertSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("persist new subject %q: %w", req.raw, err)
	}

	r.log.Info("subject created",
		zap.String("tenant", req.tenantID),
		zap.String("subject_id", subject.ID),
		zap.String("name", subject.CanonicalName))

	return &Result{
		Subject:    subject,
		Status:     StatusCreated,
		Confidence: 1.0,
		MatchType:  MatchNone,
	}, nil
}

// validName applies the minimum-length, word-count, and generic-term
// filters that gate new subject creation.
func (r *Resolver) validName(raw string) (string, bool) {
	normalized := textutil.NormalizeName(raw)
	if len(normalized) < r.cfg.MinNameLength {
		return fmt.Sprintf("shorter than %d characters", r.cfg.MinNameLength), false
	}
	if textutil.WordCount(raw) < r.cfg.MinWordCount {
		return fmt.Sprintf("fewer than %d words", r.cfg.MinWordCount), false
	}
	for _, term := range r.cfg.GenericTerms {
		if normalized == textutil.NormalizeName(term) {
			return fmt.Sprintf("generic term %q", term), false
		}
	}
	return "", true
}

// nearMisses returns subjects whose recorded similarity to the request was
// high enough to suggest, but not to link.
func nearMisses(req *request, threshold float64) []*model.Subject {
	if threshold <= 0 || len(req.scored) == 0 {
		return nil
	}
	var near []*model.Subject
	for _, sc := range req.scored {
		if sc.similarity >= threshold {
			near = append(near, sc.subject)
		}
	}
	return near
}
