package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/fredpottier/kbgraph/internal/model"
)

// Fingerprint derives the content identity of a raw claim:
// tenant + document + subject + kind + scope + canonical value. Re-ingesting
// the same document produces identical fingerprints, which makes claim
// appends idempotent.
func Fingerprint(c *model.RawClaim) string {
	parts := []string{
		c.TenantID,
		c.DocumentID,
		c.SubjectID,
		c.Kind,
		c.ScopeKey,
		c.Value.Canonical(),
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(hash[:])
}
