package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// GetCurrencyUnit fetches a CurrencyUnit by its symbol.
func (s *Store) GetCurrencyUnit(ctx context.Context, symbol string) (models.CurrencyUnit, error) {
	return s.getCurrencyUnit(ctx, s.DB(), symbol)
}

func (s *Store) getCurrencyUnit(ctx context.Context, q querier, symbol string) (models.CurrencyUnit, error) {
	row := q.QueryRowContext(ctx, `
		SELECT symbol, measurement, precision, is_negative_allowed
		FROM currency_units WHERE symbol = ?`, symbol)

	var u models.CurrencyUnit
	err := row.Scan(&u.Symbol, &u.Measurement, &u.Precision, &u.IsNegativeAllowed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CurrencyUnit{}, store.ErrNotFound
	}
	return u, err
}

// CreateCurrencyUnit inserts a new CurrencyUnit row.
func (s *Store) CreateCurrencyUnit(ctx context.Context, u models.CurrencyUnit) error {
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO currency_units (symbol, measurement, precision, is_negative_allowed)
		VALUES (?, ?, ?, ?)`,
		u.Symbol, u.Measurement, u.Precision, u.IsNegativeAllowed)
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// ListCurrencyUnits returns every registered CurrencyUnit.
func (s *Store) ListCurrencyUnits(ctx context.Context) ([]models.CurrencyUnit, error) {
	rows, err := s.DB().QueryContext(ctx, `
		SELECT symbol, measurement, precision, is_negative_allowed FROM currency_units`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CurrencyUnit
	for rows.Next() {
		var u models.CurrencyUnit
		if err := rows.Scan(&u.Symbol, &u.Measurement, &u.Precision, &u.IsNegativeAllowed); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
