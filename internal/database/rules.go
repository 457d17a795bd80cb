package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// GetTransferRuleByName fetches a TransferRule by its unique name.
func (s *Store) GetTransferRuleByName(ctx context.Context, name string) (models.TransferRule, error) {
	row := s.DB().QueryRowContext(ctx, `
		SELECT id, name, unit_symbol, enabled, fee_percent, min_from_amount, created_at, updated_at
		FROM transfer_rules WHERE name = ?`, name)

	var r models.TransferRule
	var fee, minFrom string
	err := row.Scan(&r.Id, &r.Name, &r.Unit, &r.Enabled, &fee, &minFrom, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TransferRule{}, store.ErrNotFound
	}
	if err != nil {
		return models.TransferRule{}, err
	}
	if r.FeePercent, err = decimal.NewFromString(fee); err != nil {
		return models.TransferRule{}, err
	}
	r.MinFromAmount, err = decimal.NewFromString(minFrom)
	return r, err
}

// CreateTransferRule inserts a new TransferRule row.
func (s *Store) CreateTransferRule(ctx context.Context, r models.TransferRule) error {
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO transfer_rules (id, name, unit_symbol, enabled, fee_percent, min_from_amount)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Id, r.Name, r.Unit, r.Enabled, r.FeePercent.String(), r.MinFromAmount.String())
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}

// GetExchangeRuleByName fetches an ExchangeRule by its unique name.
func (s *Store) GetExchangeRuleByName(ctx context.Context, name string) (models.ExchangeRule, error) {
	row := s.DB().QueryRowContext(ctx, `
		SELECT id, name, first_unit_symbol, second_unit_symbol, forward_rate, reverse_rate,
		       min_first_amount, min_second_amount, enabled_forward, enabled_reverse,
		       created_at, updated_at
		FROM exchange_rules WHERE name = ?`, name)

	var r models.ExchangeRule
	var fwd, rev, minFirst, minSecond string
	err := row.Scan(&r.Id, &r.Name, &r.FirstUnit, &r.SecondUnit, &fwd, &rev,
		&minFirst, &minSecond, &r.EnabledForward, &r.EnabledReverse, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ExchangeRule{}, store.ErrNotFound
	}
	if err != nil {
		return models.ExchangeRule{}, err
	}
	if r.ForwardRate, err = decimal.NewFromString(fwd); err != nil {
		return models.ExchangeRule{}, err
	}
	if r.ReverseRate, err = decimal.NewFromString(rev); err != nil {
		return models.ExchangeRule{}, err
	}
	if r.MinFirstAmount, err = decimal.NewFromString(minFirst); err != nil {
		return models.ExchangeRule{}, err
	}
	r.MinSecondAmount, err = decimal.NewFromString(minSecond)
	return r, err
}

// CreateExchangeRule inserts a new ExchangeRule row.
func (s *Store) CreateExchangeRule(ctx context.Context, r models.ExchangeRule) error {
	_, err := s.DB().ExecContext(ctx, `
		INSERT INTO exchange_rules (id, name, first_unit_symbol, second_unit_symbol,
		                            forward_rate, reverse_rate, min_first_amount, min_second_amount,
		                            enabled_forward, enabled_reverse)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Id, r.Name, r.FirstUnit, r.SecondUnit, r.ForwardRate.String(), r.ReverseRate.String(),
		r.MinFirstAmount.String(), r.MinSecondAmount.String(), r.EnabledForward, r.EnabledReverse)
	if err != nil {
		return ledgererr.Conflict(err)
	}
	return nil
}
