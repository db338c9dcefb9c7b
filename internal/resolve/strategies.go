package resolve

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/embed"
	"github.com/fredpottier/kbgraph/internal/model"
	"github.com/fredpottier/kbgraph/internal/textutil"
)

// exactStrategy matches the normalized raw name against canonical names
// and explicit (operator-curated) aliases.
type exactStrategy struct{}

func (s *exactStrategy) name() string { return "exact" }

func (s *exactStrategy) resolve(_ context.Context, req *request) (*Result, bool) {
	for _, subject := range req.subjects {
		if textutil.NormalizeName(subject.CanonicalName) == req.normalized {
			return &Result{Subject: subject, Status: StatusMatched, Confidence: 1.0, MatchType: MatchExact}, true
		}
		for _, alias := range subject.Aliases {
			if textutil.NormalizeName(alias) == req.normalized {
				return &Result{Subject: subject, Status: StatusMatched, Confidence: 1.0, MatchType: MatchExact}, true
			}
		}
	}
	return nil, false
}

// learnedAliasStrategy matches against system-discovered aliases, which
// carry slightly lower trust than the curated set.
type learnedAliasStrategy struct{}

func (s *learnedAliasStrategy) name() string { return "learned_alias" }

func (s *learnedAliasStrategy) resolve(_ context.Context, req *request) (*Result, bool) {
	for _, subject := range req.subjects {
		for _, alias := range subject.LearnedAliases {
			if textutil.NormalizeName(alias) == req.normalized {
				return &Result{Subject: subject, Status: StatusMatched, Confidence: 0.95, MatchType: MatchLearnedAlias}, true
			}
		}
	}
	return nil, false
}

// embeddingStrategy scores the raw name against every candidate subject by
// vector similarity. A match requires the top candidate to clear the
// similarity threshold AND to lead the runner-up by the configured delta;
// a high score with a close runner-up is AMBIGUOUS and never auto-linked.
type embeddingStrategy struct {
	cfg      model.ResolverConfig
	provider embed.Provider
	log      *zap.Logger
}

func (s *embeddingStrategy) name() string { return "embedding" }

func (s *embeddingStrategy) resolve(ctx context.Context, req *request) (*Result, bool) {
	if s.provider == nil || len(req.subjects) == 0 {
		return nil, false
	}

	vector, err := s.provider.Embed(ctx, req.raw)
	if err != nil {
		// Unavailable embeddings degrade to the creation stage; they never
		// abort resolution.
		s.log.Warn("embedding unavailable during resolution",
			zap.String("tenant", req.tenantID), zap.Error(err))
		return nil, false
	}

	for _, subject := range req.subjects {
		if len(subject.Embedding) == 0 {
			continue
		}
		req.scored = append(req.scored, scoredSubject{
			subject:    subject,
			similarity: embed.Cosine(vector, subject.Embedding),
		})
	}
	if len(req.scored) == 0 {
		return nil, false
	}

	sort.Slice(req.scored, func(i, j int) bool {
		if req.scored[i].similarity != req.scored[j].similarity {
			return req.scored[i].similarity > req.scored[j].similarity
		}
		return req.scored[i].subject.ID < req.scored[j].subject.ID
	})

	top := req.scored[0]
	if top.similarity < s.cfg.SimilarityThreshold {
		return nil, false
	}

	if len(req.scored) > 1 {
		second := req.scored[1]
		if top.similarity-second.similarity < s.cfg.SimilarityDelta {
			return &Result{
				Status:    StatusAmbiguous,
				MatchType: MatchEmbedding,
				Candidates: []Candidate{
					{SubjectID: top.subject.ID, Name: top.subject.CanonicalName, Similarity: top.similarity},
					{SubjectID: second.subject.ID, Name: second.subject.CanonicalName, Similarity: second.similarity},
				},
				Reason: fmt.Sprintf("top similarity %.2f leads runner-up %.2f by less than %.2f",
					top.similarity, second.similarity, s.cfg.SimilarityDelta),
			}, true
		}
	}

	return &Result{
		Subject:    top.subject,
		Status:     StatusMatched,
		Confidence: top.similarity,
		MatchType:  MatchEmbedding,
	}, true
}
