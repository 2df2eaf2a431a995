package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// StoreRepo loads stores and their settings document.
type StoreRepo struct {
	db *sql.DB
}

// NewStoreRepo returns a StoreRepo bound to the given database.
func NewStoreRepo(db *sql.DB) *StoreRepo { return &StoreRepo{db: db} }

const storeColumns = `id, slug, name, timezone, settings, created_at, updated_at`

// GetBySlug returns the store identified by its public slug.  Slugs are
// matched case-insensitively.  ErrNotFound is returned for unknown slugs.
func (r *StoreRepo) GetBySlug(ctx context.Context, slug string) (*model.Store, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM stores WHERE slug = ? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(slug)))
	return scanStore(row)
}

// GetByID returns the store with the given primary key.
func (r *StoreRepo) GetByID(ctx context.Context, id uint64) (*model.Store, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ? LIMIT 1`, id)
	return scanStore(row)
}

func scanStore(row *sql.Row) (*model.Store, error) {
	var (
		s        model.Store
		tz       sql.NullString
		settings []byte
	)
	if err := row.Scan(&s.ID, &s.Slug, &s.Name, &tz, &settings, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	s.Timezone = tz.String
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &s.Settings); err != nil {
			return nil, fmt.Errorf("store %d settings: %w", s.ID, err)
		}
	}
	return &s, nil
}
