package store

import (
	"context"
	"sort"
	"sync"

	"github.com/fredpottier/kbgraph/internal/model"
)

// MemoryStore implements SubjectStore, ClaimStore, and GraphStore in
// memory. It is the default backend for tests and single-run ingestion.
type MemoryStore struct {
	mu sync.RWMutex

	subjects     map[string]map[string]*model.Subject           // tenant -> id -> subject
	claims       map[string][]*model.RawClaim                   // tenant -> append-only log
	fingerprints map[string]map[string]bool                     // tenant -> fingerprint set
	clusters     map[string]map[string]*model.ClaimCluster      // tenant -> id -> cluster
	canonical    map[string]map[string]*model.CanonicalClaim    // tenant -> id -> canonical claim
	axes         map[string]map[string]*model.ApplicabilityAxis // tenant -> key -> axis
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subjects:     make(map[string]map[string]*model.Subject),
		claims:       make(map[string][]*model.RawClaim),
		fingerprints: make(map[string]map[string]bool),
		clusters:     make(map[string]map[string]*model.ClaimCluster),
		canonical:    make(map[string]map[string]*model.CanonicalClaim),
		axes:         make(map[string]map[string]*model.ApplicabilityAxis),
	}
}

// GetSubject returns the subject by ID.
func (s *MemoryStore) GetSubject(_ context.Context, tenantID, id string) (*model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if subject, ok := s.subjects[tenantID][id]; ok {
		copied := *subject
		return &copied, nil
	}
	return nil, ErrNotFound
}

// ListSubjects returns every subject for the tenant, ordered by ID for
// deterministic iteration.
func (s *MemoryStore) ListSubjects(_ context.Context, tenantID string) ([]*model.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var subjects []*model.Subject
	for _, subject := range s.subjects[tenantID] {
		copied := *subject
		subjects = append(subjects, &copied)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].ID < subjects[j].ID })
	return subjects, nil
}

// UpsertSubject inserts or replaces the subject row.
func (s *MemoryStore) UpsertSubject(_ context.Context, subject *model.Subject) error {
	if subject.TenantID == "" || subject.ID == "" {
		return &model.InputError{Tenant: subject.TenantID, Subject: subject.ID, Field: "id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subjects[subject.TenantID] == nil {
		s.subjects[subject.TenantID] = make(map[string]*model.Subject)
	}
	copied := *subject
	s.subjects[subject.TenantID][subject.ID] = &copied
	return nil
}

// AppendClaim writes the claim unless its fingerprint already exists.
func (s *MemoryStore) AppendClaim(_ context.Context, claim *model.RawClaim) (bool, error) {
	if err := claim.Validate(); err != nil {
		return false, err
	}
	fp := Fingerprint(claim)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fingerprints[claim.TenantID] == nil {
		s.fingerprints[claim.TenantID] = make(map[string]bool)
	}
	if s.fingerprints[claim.TenantID][fp] {
		return false, nil
	}
	s.fingerprints[claim.TenantID][fp] = true
	copied := *claim
	s.claims[claim.TenantID] = append(s.claims[claim.TenantID], &copied)
	return true, nil
}

// ListClaims returns a snapshot of the tenant's raw claims.
func (s *MemoryStore) ListClaims(_ context.Context, tenantID string) ([]*model.RawClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claims := make([]*model.RawClaim, 0, len(s.claims[tenantID]))
	for _, claim := range s.claims[tenantID] {
		copied := *claim
		claims = append(claims, &copied)
	}
	return claims, nil
}

// UpsertCluster inserts or replaces the cluster row.
func (s *MemoryStore) UpsertCluster(_ context.Context, cluster *model.ClaimCluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clusters[cluster.TenantID] == nil {
		s.clusters[cluster.TenantID] = make(map[string]*model.ClaimCluster)
	}
	copied := *cluster
	s.clusters[cluster.TenantID][cluster.ID] = &copied
	return nil
}

// UpsertCanonicalClaim inserts or replaces the canonical claim row.
func (s *MemoryStore) UpsertCanonicalClaim(_ context.Context, claim *model.CanonicalClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.canonical[claim.TenantID] == nil {
		s.canonical[claim.TenantID] = make(map[string]*model.CanonicalClaim)
	}
	copied := *claim
	s.canonical[claim.TenantID][claim.ID] = &copied
	return nil
}

// ListCanonicalClaims returns every canonical claim for the tenant,
// ordered by ID.
func (s *MemoryStore) ListCanonicalClaims(_ context.Context, tenantID string) ([]*model.CanonicalClaim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var claims []*model.CanonicalClaim
	for _, claim := range s.canonical[tenantID] {
		copied := *claim
		claims = append(claims, &copied)
	}
	sort.Slice(claims, func(i, j int) bool { return claims[i].ID < claims[j].ID })
	return claims, nil
}

// ListClusters returns every cluster for the tenant, ordered by ID.
func (s *MemoryStore) ListClusters(_ context.Context, tenantID string) ([]*model.ClaimCluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var clusters []*model.ClaimCluster
	for _, cluster := range s.clusters[tenantID] {
		copied := *cluster
		clusters = append(clusters, &copied)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	return clusters, nil
}

// UpsertAxis inserts or replaces the axis row.
func (s *MemoryStore) UpsertAxis(_ context.Context, ax *model.ApplicabilityAxis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.axes[ax.TenantID] == nil {
		s.axes[ax.TenantID] = make(map[string]*model.ApplicabilityAxis)
	}
	copied := *ax
	s.axes[ax.TenantID][ax.Key] = &copied
	return nil
}

// GetAxis returns the axis by key.
func (s *MemoryStore) GetAxis(_ context.Context, tenantID, key string) (*model.ApplicabilityAxis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ax, ok := s.axes[tenantID][key]; ok {
		copied := *ax
		return &copied, nil
	}
	return nil, ErrNotFound
}

// ListAxes returns every axis for the tenant, ordered by key.
func (s *MemoryStore) ListAxes(_ context.Context, tenantID string) ([]*model.ApplicabilityAxis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var axes []*model.ApplicabilityAxis
	for _, ax := range s.axes[tenantID] {
		copied := *ax
		axes = append(axes, &copied)
	}
	sort.Slice(axes, func(i, j int) bool { return axes[i].Key < axes[j].Key })
	return axes, nil
}
