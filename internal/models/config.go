package models

import "time"

// Config is the process-global configuration recognised by spec.md §6.4.
type Config struct {
	Database DatabaseConfig
	HMAC     HMACConfig
	Ledger   LedgerConfig
	Server   ServerConfig
}

// DatabaseConfig holds store connection settings.
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// HMACConfig holds the HMAC Auth layer's tunables (spec.md §4.8, §6.4).
type HMACConfig struct {
	Enabled             bool
	TimestampDeviation  time.Duration
	HashType            string
	ServiceHeader       string
	SignatureHeader     string
	TimestampHeader     string
	BattlemetricsHeader string
}

// LedgerConfig holds engine-wide defaults.
type LedgerConfig struct {
	DefaultAutoRejectTimedelta time.Duration
	DefaultHolderTypeSlug      string
}

// ServerConfig holds the HTTP API surface's listen settings.
type ServerConfig struct {
	Addr string
}
