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

// GetServiceByName fetches a CurrencyService by its unique name.
func (s *Store) GetServiceByName(ctx context.Context, name string) (models.CurrencyService, error) {
	return s.getService(ctx, s.DB(), "name = ?", name)
}

// GetServiceByID fetches a CurrencyService by primary key.
func (s *Store) GetServiceByID(ctx context.Context, id string) (models.CurrencyService, error) {
	return s.getService(ctx, s.DB(), "id = ?", id)
}

func (s *Store) getService(ctx context.Context, q querier, where string, arg any) (models.CurrencyService, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, enabled, permissions, created_at, updated_at
		FROM currency_services WHERE `+where, arg)

	var svc models.CurrencyService
	var perms string
	err := row.Scan(&svc.Id, &svc.Name, &svc.Enabled, &perms, &svc.CreatedAt, &svc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CurrencyService{}, store.ErrNotFound
	}
	if err != nil {
		return models.CurrencyService{}, err
	}
	svc.Permissions = json.RawMessage(perms)
	return svc, nil
}

// GetServiceAuth fetches the ServiceAuth row bound to a service.
func (s *Store) GetServiceAuth(ctx context.Context, serviceID string) (models.ServiceAuth, error) {
	row := s.DB().QueryRowContext(ctx, `
		SELECT id, service_id, key, is_battlemetrics
		FROM service_auths WHERE service_id = ?`, serviceID)

	var auth models.ServiceAuth
	err := row.Scan(&auth.Id, &auth.ServiceId, &auth.Key, &auth.IsBattlemetrics)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ServiceAuth{}, store.ErrNotFound
	}
	return auth, err
}

// CreateServiceAuth inserts the ServiceAuth row bound to a service. A
// service owns at most one; the schema's UNIQUE constraint on service_id
// turns a second attempt into a ledgererr.Conflict.
func (s *Store) CreateServiceAuth(ctx context.Context, auth models.ServiceAuth) error {
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO service_auths (id, service_id, key, is_battlemetrics)
		VALUES (?, ?, ?, ?)`,
		auth.Id, auth.ServiceId, auth.Key, auth.IsBattlemetrics)
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// CreateService inserts a new CurrencyService row.
func (s *Store) CreateService(ctx context.Context, svc models.CurrencyService) error {
	if svc.Permissions == nil {
		svc.Permissions = json.RawMessage("{}")
	}
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO currency_services (id, name, enabled, permissions)
		VALUES (?, ?, ?, ?)`,
		svc.Id, svc.Name, svc.Enabled, string(svc.Permissions))
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// UpdateServicePermissions overwrites a service's permission document.
func (s *Store) UpdateServicePermissions(ctx context.Context, serviceID string, perms json.RawMessage) error {
	_, err := s.DB().ExecContext(ctx, `
		UPDATE currency_services SET permissions = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(perms), serviceID)
	return err
}

// ListServices returns every registered CurrencyService.
func (s *Store) ListServices(ctx context.Context) ([]models.CurrencyService, error) {
	rows, err := s.DB().QueryContext(ctx, `
		SELECT id, name, enabled, permissions, created_at, updated_at FROM currency_services`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CurrencyService
	for rows.Next() {
		var svc models.CurrencyService
		var perms string
		if err := rows.Scan(&svc.Id, &svc.Name, &svc.Enabled, &perms, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, err
		}
		svc.Permissions = json.RawMessage(perms)
		out = append(out, svc)
	}
	return out, rows.Err()
}
