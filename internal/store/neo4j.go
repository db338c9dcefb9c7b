package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/fredpottier/kbgraph/internal/model"
)

// Neo4jStore implements GraphStore against a Neo4j database. All writes use
// MERGE so derived artifacts can be regenerated idempotently.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	log      *zap.Logger
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(ctx context.Context, cfg model.StorageConfig, log *zap.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	database := cfg.Neo4jDatabase
	if database == "" {
		database = "neo4j"
	}

	log.Info("neo4j graph store initialized", zap.String("uri", cfg.Neo4jURI))

	return &Neo4jStore{driver: driver, database: database, log: log}, nil
}

// Close releases the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) run(ctx context.Context, query string, params map[string]any) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.Run(ctx, query, params)
	return err
}

// UpsertCluster merges the cluster node and its MEMBER_OF edges.
func (s *Neo4jStore) UpsertCluster(ctx context.Context, cluster *model.ClaimCluster) error {
	query := `
		MERGE (c:ClaimCluster {tenant_id: $tenant_id, id: $id})
		SET c.label = $label,
		    c.claim_ids = $claim_ids,
		    c.document_ids = $document_ids,
		    c.confidence = $confidence,
		    c.updated_at = timestamp()
		WITH c
		UNWIND $claim_ids AS claim_id
		MERGE (r:RawClaim {tenant_id: $tenant_id, id: claim_id})
		MERGE (r)-[:MEMBER_OF]->(c)
	`
	err := s.run(ctx, query, map[string]any{
		"tenant_id":    cluster.TenantID,
		"id":           cluster.ID,
		"label":        cluster.Label,
		"claim_ids":    cluster.ClaimIDs,
		"document_ids": cluster.DocumentIDs,
		"confidence":   cluster.Confidence,
	})
	if err != nil {
		return fmt.Errorf("upsert cluster %s: %w", cluster.ID, err)
	}
	s.log.Debug("cluster upserted", zap.String("cluster_id", cluster.ID), zap.Int("members", len(cluster.ClaimIDs)))
	return nil
}

// UpsertCanonicalClaim merges the canonical claim node keyed by its
// (subject, kind, scope) identity.
func (s *Neo4jStore) UpsertCanonicalClaim(ctx context.Context, claim *model.CanonicalClaim) error {
	query := `
		MERGE (c:CanonicalClaim {tenant_id: $tenant_id, subject_id: $subject_id, kind: $kind, scope_key: $scope_key})
		SET c.id = $id,
		    c.value = $value,
		    c.maturity = $maturity,
		    c.document_count = $document_count,
		    c.assertion_count = $assertion_count,
		    c.conflicting_claim_ids = $conflicting_claim_ids,
		    c.updated_at = timestamp()
		WITH c
		MERGE (s:Subject {tenant_id: $tenant_id, id: $subject_id})
		MERGE (c)-[:ABOUT]->(s)
	`
	err := s.run(ctx, query, map[string]any{
		"tenant_id":             claim.TenantID,
		"id":                    claim.ID,
		"subject_id":            claim.SubjectID,
		"kind":                  claim.Kind,
		"scope_key":             claim.ScopeKey,
		"value":                 claim.Value.Canonical(),
		"maturity":              string(claim.Maturity),
		"document_count":        claim.DocumentCount,
		"assertion_count":       claim.AssertionCount,
		"conflicting_claim_ids": claim.ConflictingClaimIDs,
	})
	if err != nil {
		return fmt.Errorf("upsert canonical claim %s: %w", claim.ID, err)
	}
	return nil
}

// UpsertAxis merges the axis node keyed by (tenant, key).
func (s *Neo4jStore) UpsertAxis(ctx context.Context, ax *model.ApplicabilityAxis) error {
	query := `
		MERGE (a:ApplicabilityAxis {tenant_id: $tenant_id, key: $key})
		SET a.values = $values,
		    a.is_orderable = $is_orderable,
		    a.ordering_confidence = $confidence,
		    a.order_type = $order_type,
		    a.value_order = $value_order,
		    a.updated_at = timestamp()
	`
	err := s.run(ctx, query, map[string]any{
		"tenant_id":    ax.TenantID,
		"key":          ax.Key,
		"values":       ax.Values,
		"is_orderable": ax.IsOrderable,
		"confidence":   ax.Confidence.String(),
		"order_type":   string(ax.OrderType),
		"value_order":  ax.ValueOrder,
	})
	if err != nil {
		return fmt.Errorf("upsert axis %s: %w", ax.Key, err)
	}
	return nil
}

// GetAxis returns the axis by key.
func (s *Neo4jStore) GetAxis(ctx context.Context, tenantID, key string) (*model.ApplicabilityAxis, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:ApplicabilityAxis {tenant_id: $tenant_id, key: $key})
		RETURN a.values, a.is_orderable, a.ordering_confidence, a.order_type, a.value_order`,
		map[string]any{"tenant_id": tenantID, "key": key})
	if err != nil {
		return nil, fmt.Errorf("get axis %s: %w", key, err)
	}
	if !result.Next(ctx) {
		return nil, ErrNotFound
	}
	return axisFromRecord(tenantID, key, result.Record()), nil
}

// ListAxes returns every axis for the tenant.
func (s *Neo4jStore) ListAxes(ctx context.Context, tenantID string) ([]*model.ApplicabilityAxis, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (a:ApplicabilityAxis {tenant_id: $tenant_id})
		RETURN a.key, a.values, a.is_orderable, a.ordering_confidence, a.order_type, a.value_order
		ORDER BY a.key`,
		map[string]any{"tenant_id": tenantID})
	if err != nil {
		return nil, fmt.Errorf("list axes: %w", err)
	}

	var axes []*model.ApplicabilityAxis
	for result.Next(ctx) {
		record := result.Record()
		key, _ := record.Get("a.key")
		axes = append(axes, axisFromRecord(tenantID, toString(key), record))
	}
	return axes, result.Err()
}

func axisFromRecord(tenantID, key string, record *neo4j.Record) *model.ApplicabilityAxis {
	values, _ := record.Get("a.values")
	orderable, _ := record.Get("a.is_orderable")
	confidence, _ := record.Get("a.ordering_confidence")
	orderType, _ := record.Get("a.order_type")
	valueOrder, _ := record.Get("a.value_order")

	ax := &model.ApplicabilityAxis{
		TenantID:    tenantID,
		Key:         key,
		Values:      toStrings(values),
		IsOrderable: orderable == true,
		OrderType:   model.OrderType(toString(orderType)),
		ValueOrder:  toStrings(valueOrder),
	}
	switch toString(confidence) {
	case "CERTAIN":
		ax.Confidence = model.ConfidenceCertain
	case "INFERRED":
		ax.Confidence = model.ConfidenceInferred
	default:
		ax.Confidence = model.ConfidenceUnknown
	}
	return ax
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
