// Package models holds the domain entities shared by every package: the
// data model of spec.md §3, laid out the way the teacher lays out
// internal/models — plain structs with `db` tags for scanning, decimals via
// shopspring/decimal, never float64 for money.
package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the three-state machine every transaction variant
// shares: PENDING -> CONFIRMED | REJECTED (spec.md §3).
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusConfirmed TransactionStatus = "CONFIRMED"
	StatusRejected  TransactionStatus = "REJECTED"
)

// CurrencyService is a registered external caller. It owns at most one
// ServiceAuth child.
type CurrencyService struct {
	Id          string          `db:"id"`
	Name        string          `db:"name"`
	Enabled     bool            `db:"enabled"`
	Permissions json.RawMessage `db:"permissions"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// ServiceAuth is the authentication material bound to a CurrencyService.
type ServiceAuth struct {
	Id              string `db:"id"`
	ServiceId       string `db:"service_id"`
	Key             string `db:"key"`
	IsBattlemetrics bool   `db:"is_battlemetrics"`
}

// HolderType is a named class of holder, e.g. "player".
type HolderType struct {
	Id   string `db:"id"`
	Slug string `db:"slug"`
}

// Holder is an external actor owning CheckingAccounts.
type Holder struct {
	Id         string          `db:"id"`
	HolderId   string          `db:"holder_id"`
	HolderType string          `db:"holder_type"`
	Enabled    bool            `db:"enabled"`
	Info       json.RawMessage `db:"info"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// CurrencyUnit is a currency denomination.
type CurrencyUnit struct {
	Symbol            string `db:"symbol"`
	Measurement       string `db:"measurement"`
	Precision         int32  `db:"precision"`
	IsNegativeAllowed bool   `db:"is_negative_allowed"`
}

// CheckingAccount is a balance of one unit held by one holder.
type CheckingAccount struct {
	Id        string          `db:"id"`
	HolderId  string          `db:"holder_id"`
	Unit      string          `db:"unit_symbol"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// TransferRule is policy for a same-unit transfer.
type TransferRule struct {
	Id            string          `db:"id"`
	Name          string          `db:"name"`
	Unit          string          `db:"unit_symbol"`
	Enabled       bool            `db:"enabled"`
	FeePercent    decimal.Decimal `db:"fee_percent"`
	MinFromAmount decimal.Decimal `db:"min_from_amount"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// ExchangeRule is policy for a cross-unit exchange between exactly two units.
type ExchangeRule struct {
	Id              string          `db:"id"`
	Name            string          `db:"name"`
	FirstUnit       string          `db:"first_unit_symbol"`
	SecondUnit      string          `db:"second_unit_symbol"`
	ForwardRate     decimal.Decimal `db:"forward_rate"`
	ReverseRate     decimal.Decimal `db:"reverse_rate"`
	MinFirstAmount  decimal.Decimal `db:"min_first_amount"`
	MinSecondAmount decimal.Decimal `db:"min_second_amount"`
	EnabledForward  bool            `db:"enabled_forward"`
	EnabledReverse  bool            `db:"enabled_reverse"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// TransactionBase is the shape shared by every transaction variant. It is
// not a polymorphic storage row (spec.md's Design Notes call for separate
// tables); it is embedded by value in each concrete variant below.
type TransactionBase struct {
	Uuid              string            `db:"uuid"`
	Service           string            `db:"service_name"`
	Description       string            `db:"description"`
	StatusDescription string            `db:"status_description"`
	Status            TransactionStatus `db:"status"`
	AutoRejectAfter   time.Time         `db:"auto_reject_after"`
	CreatedAt         time.Time         `db:"created_at"`
	ClosedAt          *time.Time        `db:"closed_at"`
}

// AdjustmentTransaction is a single-account credit or debit.
type AdjustmentTransaction struct {
	TransactionBase
	CheckingAccountId string          `db:"checking_account_id"`
	Amount            decimal.Decimal `db:"amount"`
}

// TransferTransaction is a same-unit movement between two accounts.
type TransferTransaction struct {
	TransactionBase
	TransferRule          *string         `db:"transfer_rule_id"`
	FromCheckingAccountId string          `db:"from_checking_account_id"`
	ToCheckingAccountId   string          `db:"to_checking_account_id"`
	FromAmount            decimal.Decimal `db:"from_amount"`
	ToAmount              decimal.Decimal `db:"to_amount"`
}

// ExchangeTransaction is a cross-unit movement between accounts of one
// holder under a rule.
type ExchangeTransaction struct {
	TransactionBase
	ExchangeRule          *string         `db:"exchange_rule_id"`
	FromCheckingAccountId string          `db:"from_checking_account_id"`
	ToCheckingAccountId   string          `db:"to_checking_account_id"`
	FromAmount            decimal.Decimal `db:"from_amount"`
	ToAmount              decimal.Decimal `db:"to_amount"`
}
