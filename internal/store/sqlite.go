package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fredpottier/kbgraph/internal/model"
)

// SQLiteStore persists subjects and the append-only raw claim log.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and initializes
// the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		tenant_id TEXT NOT NULL,
		id TEXT NOT NULL,
		canonical_name TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_subjects_name ON subjects(tenant_id, canonical_name);

	CREATE TABLE IF NOT EXISTS raw_claims (
		tenant_id TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		id TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		scope_key TEXT NOT NULL,
		document_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		observed_at INTEGER NOT NULL,
		PRIMARY KEY (tenant_id, fingerprint)
	);
	CREATE INDEX IF NOT EXISTS idx_raw_claims_group ON raw_claims(tenant_id, subject_id, kind, scope_key);
	CREATE INDEX IF NOT EXISTS idx_raw_claims_document ON raw_claims(tenant_id, document_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// GetSubject returns the subject by ID.
func (s *SQLiteStore) GetSubject(ctx context.Context, tenantID, id string) (*model.Subject, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT payload FROM subjects WHERE tenant_id = ? AND id = ?`, tenantID, id)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	var subject model.Subject
	if err := json.Unmarshal([]byte(payload), &subject); err != nil {
		return nil, fmt.Errorf("decode subject %s: %w", id, err)
	}
	return &subject, nil
}

// ListSubjects returns every subject for the tenant.
func (s *SQLiteStore) ListSubjects(ctx context.Context, tenantID string) ([]*model.Subject, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM subjects WHERE tenant_id = ? ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*model.Subject
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		var subject model.Subject
		if err := json.Unmarshal([]byte(payload), &subject); err != nil {
			return nil, fmt.Errorf("decode subject: %w", err)
		}
		subjects = append(subjects, &subject)
	}
	return subjects, rows.Err()
}

// UpsertSubject inserts or replaces the subject row.
func (s *SQLiteStore) UpsertSubject(ctx context.Context, subject *model.Subject) error {
	if subject.TenantID == "" || subject.ID == "" {
		return &model.InputError{Tenant: subject.TenantID, Subject: subject.ID, Field: "id", Reason: "required"}
	}
	payload, err := json.Marshal(subject)
	if err != nil {
		return fmt.Errorf("encode subject %s: %w", subject.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO subjects (tenant_id, id, canonical_name, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			canonical_name = excluded.canonical_name,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		subject.TenantID, subject.ID, subject.CanonicalName, string(payload),
		subject.CreatedAt.Unix(), subject.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert subject %s: %w", subject.ID, err)
	}
	return nil
}

// AppendClaim writes the claim unless its fingerprint already exists.
func (s *SQLiteStore) AppendClaim(ctx context.Context, claim *model.RawClaim) (bool, error) {
	if err := claim.Validate(); err != nil {
		return false, err
	}
	payload, err := json.Marshal(claim)
	if err != nil {
		return false, fmt.Errorf("encode claim %s: %w", claim.ID, err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_claims (tenant_id, fingerprint, id, subject_id, kind, scope_key, document_id, payload, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, fingerprint) DO NOTHING`,
		claim.TenantID, Fingerprint(claim), claim.ID, claim.SubjectID, claim.Kind,
		claim.ScopeKey, claim.DocumentID, string(payload), claim.ObservedAt.Unix())
	if err != nil {
		return false, fmt.Errorf("append claim %s: %w", claim.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append claim %s: %w", claim.ID, err)
	}
	return affected > 0, nil
}

// ListClaims returns a consistent snapshot of the tenant's raw claims.
func (s *SQLiteStore) ListClaims(ctx context.Context, tenantID string) ([]*model.RawClaim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM raw_claims WHERE tenant_id = ? ORDER BY observed_at, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var claims []*model.RawClaim
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		var claim model.RawClaim
		if err := json.Unmarshal([]byte(payload), &claim); err != nil {
			return nil, fmt.Errorf("decode claim: %w", err)
		}
		claims = append(claims, &claim)
	}
	return claims, rows.Err()
}
