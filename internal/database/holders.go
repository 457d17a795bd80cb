package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// GetHolderTypeBySlug fetches a HolderType, e.g. "player".
func (s *Store) GetHolderTypeBySlug(ctx context.Context, slug string) (models.HolderType, error) {
	row := s.DB().QueryRowContext(ctx, `SELECT id, slug FROM holder_types WHERE slug = ?`, slug)
	var ht models.HolderType
	err := row.Scan(&ht.Id, &ht.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HolderType{}, store.ErrNotFound
	}
	return ht, err
}

// EnsureHolderType fetches the HolderType for slug, creating it if absent.
// Grounded on original_source's auto-creation of the default holder type
// the first time a holder references it (SPEC_FULL.md §5).
func (s *Store) EnsureHolderType(ctx context.Context, id, slug string) (models.HolderType, error) {
	ht, err := s.GetHolderTypeBySlug(ctx, slug)
	if err == nil {
		return ht, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.HolderType{}, err
	}
	_, err = s.DB().ExecContext(ctx, `INSERT INTO holder_types (id, slug) VALUES (?, ?)`, id, slug)
	if err != nil {
		return models.HolderType{}, ledgererr.Conflict(err)
	}
	return models.HolderType{Id: id, Slug: slug}, nil
}

// GetHolderByHolderID fetches a Holder by its externally-assigned holder_id.
func (s *Store) GetHolderByHolderID(ctx context.Context, holderID string) (models.Holder, error) {
	row := s.DB().QueryRowContext(ctx, `
		SELECT h.id, h.holder_id, t.slug, h.enabled, h.info, h.created_at, h.updated_at
		FROM holders h JOIN holder_types t ON t.id = h.holder_type_id
		WHERE h.holder_id = ?`, holderID)

	var h models.Holder
	var info string
	err := row.Scan(&h.Id, &h.HolderId, &h.HolderType, &h.Enabled, &info, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Holder{}, store.ErrNotFound
	}
	if err != nil {
		return models.Holder{}, err
	}
	h.Info = json.RawMessage(info)
	return h, nil
}

// ListHolders returns every Holder, optionally filtered to one external
// holder_id when filter is non-empty.
func (s *Store) ListHolders(ctx context.Context, filter string) ([]models.Holder, error) {
	query := `
		SELECT h.id, h.holder_id, t.slug, h.enabled, h.info, h.created_at, h.updated_at
		FROM holders h JOIN holder_types t ON t.id = h.holder_type_id`
	args := []any{}
	if filter != "" {
		query += ` WHERE h.holder_id = ?`
		args = append(args, filter)
	}

	rows, err := s.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Holder
	for rows.Next() {
		var h models.Holder
		var info string
		if err := rows.Scan(&h.Id, &h.HolderId, &h.HolderType, &h.Enabled, &info, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.Info = json.RawMessage(info)
		out = append(out, h)
	}
	return out, rows.Err()
}

// CreateHolder inserts a new Holder row under the given HolderType.
func (s *Store) CreateHolder(ctx context.Context, h models.Holder, holderTypeID string) error {
	if h.Info == nil {
		h.Info = json.RawMessage("{}")
	}
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO holders (id, holder_id, holder_type_id, enabled, info)
		VALUES (?, ?, ?, ?, ?)`,
		h.Id, h.HolderId, holderTypeID, h.Enabled, string(h.Info))
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}
