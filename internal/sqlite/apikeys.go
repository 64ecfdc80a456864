package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/tracereplay/internal/repository"
)

// APIKeyRepository stores bearer tokens by hash and resolves them to tenants.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add registers token for tenantID, replacing any previous tenant.
func (r *APIKeyRepository) Add(ctx context.Context, token, tenantID string) error {
	if token == "" || tenantID == "" {
		return repository.ErrInvalidInput
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, tenant_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key_hash) DO UPDATE SET tenant_id = excluded.tenant_id`,
		hashToken(token), tenantID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// Seed registers every token to tenant pair.
func (r *APIKeyRepository) Seed(ctx context.Context, tokens map[string]string) error {
	for token, tenantID := range tokens {
		if err := r.Add(ctx, token, tenantID); err != nil {
			return err
		}
	}
	return nil
}

// ResolveTenant returns the tenant registered for token.
func (r *APIKeyRepository) ResolveTenant(ctx context.Context, token string) (string, error) {
	var tenantID string
	err := r.db.QueryRowContext(ctx, `SELECT tenant_id FROM api_keys WHERE key_hash = ?`, hashToken(token)).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("api key: %w", repository.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	return tenantID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
