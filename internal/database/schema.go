package database

// schema is applied once at startup via db.Exec, mirroring the teacher's
// initSchema const-SQL-block idiom (internal/database/service.go). Amounts
// are stored as TEXT holding decimal.Decimal.String() and parsed back on
// read, exactly as the teacher stores balance/amount columns.
const schema = `
CREATE TABLE IF NOT EXISTS currency_services (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	enabled     BOOLEAN NOT NULL DEFAULT 1,
	permissions TEXT NOT NULL DEFAULT '{}',
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS service_auths (
	id               TEXT PRIMARY KEY,
	service_id       TEXT NOT NULL UNIQUE REFERENCES currency_services(id),
	key              TEXT NOT NULL,
	is_battlemetrics BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS holder_types (
	id   TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS holders (
	id              TEXT PRIMARY KEY,
	holder_id       TEXT NOT NULL UNIQUE,
	holder_type_id  TEXT NOT NULL REFERENCES holder_types(id),
	enabled         BOOLEAN NOT NULL DEFAULT 1,
	info            TEXT NOT NULL DEFAULT '{}',
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_holders_holder_type ON holders(holder_type_id);
CREATE INDEX IF NOT EXISTS idx_holders_enabled ON holders(enabled);

CREATE TABLE IF NOT EXISTS currency_units (
	symbol              TEXT PRIMARY KEY,
	measurement         TEXT NOT NULL,
	precision           INTEGER NOT NULL,
	is_negative_allowed BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS checking_accounts (
	id          TEXT PRIMARY KEY,
	holder_id   TEXT NOT NULL REFERENCES holders(id),
	unit_symbol TEXT NOT NULL REFERENCES currency_units(symbol),
	amount      TEXT NOT NULL DEFAULT '0',
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(holder_id, unit_symbol)
);
CREATE INDEX IF NOT EXISTS idx_checking_accounts_holder ON checking_accounts(holder_id);

CREATE TABLE IF NOT EXISTS transfer_rules (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	unit_symbol     TEXT NOT NULL REFERENCES currency_units(symbol),
	enabled         BOOLEAN NOT NULL DEFAULT 1,
	fee_percent     TEXT NOT NULL DEFAULT '0',
	min_from_amount TEXT NOT NULL DEFAULT '0',
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS exchange_rules (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL UNIQUE,
	first_unit_symbol  TEXT NOT NULL REFERENCES currency_units(symbol),
	second_unit_symbol TEXT NOT NULL REFERENCES currency_units(symbol),
	forward_rate       TEXT NOT NULL,
	reverse_rate       TEXT NOT NULL,
	min_first_amount   TEXT NOT NULL DEFAULT '0',
	min_second_amount  TEXT NOT NULL DEFAULT '0',
	enabled_forward    BOOLEAN NOT NULL DEFAULT 1,
	enabled_reverse    BOOLEAN NOT NULL DEFAULT 1,
	created_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS adjustment_transactions (
	uuid                TEXT PRIMARY KEY,
	service_name        TEXT NOT NULL,
	description         TEXT NOT NULL DEFAULT '',
	status_description  TEXT NOT NULL DEFAULT '',
	status              TEXT NOT NULL DEFAULT 'PENDING',
	auto_reject_after   TIMESTAMP NOT NULL,
	created_at          TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	closed_at           TIMESTAMP,
	checking_account_id TEXT NOT NULL REFERENCES checking_accounts(id),
	amount              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_adjustments_status_deadline ON adjustment_transactions(status, auto_reject_after);
CREATE INDEX IF NOT EXISTS idx_adjustments_account ON adjustment_transactions(checking_account_id);
CREATE INDEX IF NOT EXISTS idx_adjustments_service_created ON adjustment_transactions(service_name, created_at);

CREATE TABLE IF NOT EXISTS transfer_transactions (
	uuid                     TEXT PRIMARY KEY,
	service_name             TEXT NOT NULL,
	description              TEXT NOT NULL DEFAULT '',
	status_description       TEXT NOT NULL DEFAULT '',
	status                   TEXT NOT NULL DEFAULT 'PENDING',
	auto_reject_after        TIMESTAMP NOT NULL,
	created_at               TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	closed_at                TIMESTAMP,
	transfer_rule_id         TEXT REFERENCES transfer_rules(id) ON DELETE SET NULL,
	from_checking_account_id TEXT NOT NULL REFERENCES checking_accounts(id),
	to_checking_account_id   TEXT NOT NULL REFERENCES checking_accounts(id),
	from_amount              TEXT NOT NULL,
	to_amount                TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transfers_status_deadline ON transfer_transactions(status, auto_reject_after);
CREATE INDEX IF NOT EXISTS idx_transfers_from_account ON transfer_transactions(from_checking_account_id);
CREATE INDEX IF NOT EXISTS idx_transfers_to_account ON transfer_transactions(to_checking_account_id);
CREATE INDEX IF NOT EXISTS idx_transfers_service_created ON transfer_transactions(service_name, created_at);

CREATE TABLE IF NOT EXISTS exchange_transactions (
	uuid                     TEXT PRIMARY KEY,
	service_name             TEXT NOT NULL,
	description              TEXT NOT NULL DEFAULT '',
	status_description       TEXT NOT NULL DEFAULT '',
	status                   TEXT NOT NULL DEFAULT 'PENDING',
	auto_reject_after        TIMESTAMP NOT NULL,
	created_at               TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	closed_at                TIMESTAMP,
	exchange_rule_id         TEXT REFERENCES exchange_rules(id) ON DELETE SET NULL,
	from_checking_account_id TEXT NOT NULL REFERENCES checking_accounts(id),
	to_checking_account_id   TEXT NOT NULL REFERENCES checking_accounts(id),
	from_amount              TEXT NOT NULL,
	to_amount                TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_status_deadline ON exchange_transactions(status, auto_reject_after);
CREATE INDEX IF NOT EXISTS idx_exchanges_from_account ON exchange_transactions(from_checking_account_id);
CREATE INDEX IF NOT EXISTS idx_exchanges_to_account ON exchange_transactions(to_checking_account_id);
CREATE INDEX IF NOT EXISTS idx_exchanges_service_created ON exchange_transactions(service_name, created_at);
`
