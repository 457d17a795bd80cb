// Package config loads the process-global models.Config. Env vars always
// win; an optional config file (path via LEDGER_CONFIG_FILE, default
// ./ledger.yaml) supplies everything else, read with spf13/viper the way
// the LeJamon-goXRPLd and parsdao-pars example repos layer viper under
// cobra commands.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ar1ocker/currencyledger/internal/models"
)

func Load() (*models.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.path", "ledger.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", 30*time.Second)
	v.SetDefault("database.ping_timeout", 5*time.Second)

	v.SetDefault("hmac.enabled", true)
	v.SetDefault("hmac.timestamp_deviation", 5*time.Minute)
	v.SetDefault("hmac.hash_type", "sha256")
	v.SetDefault("hmac.service_header", "X-Service-Name")
	v.SetDefault("hmac.signature_header", "X-Signature")
	v.SetDefault("hmac.timestamp_header", "X-Timestamp")
	v.SetDefault("hmac.battlemetrics_signature_header", "X-Hub-Signature")

	v.SetDefault("ledger.default_auto_reject_timedelta", 24*time.Hour)
	v.SetDefault("ledger.default_holder_type_slug", "player")

	v.SetDefault("server.addr", ":8080")

	configFile := v.GetString("config_file")
	if configFile == "" {
		configFile = "ledger.yaml"
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("database.conn_max_idle_time"),
			PingTimeout:     v.GetDuration("database.ping_timeout"),
		},
		HMAC: models.HMACConfig{
			Enabled:             v.GetBool("hmac.enabled"),
			TimestampDeviation:  v.GetDuration("hmac.timestamp_deviation"),
			HashType:            v.GetString("hmac.hash_type"),
			ServiceHeader:       v.GetString("hmac.service_header"),
			SignatureHeader:     v.GetString("hmac.signature_header"),
			TimestampHeader:     v.GetString("hmac.timestamp_header"),
			BattlemetricsHeader: v.GetString("hmac.battlemetrics_signature_header"),
		},
		Ledger: models.LedgerConfig{
			DefaultAutoRejectTimedelta: v.GetDuration("ledger.default_auto_reject_timedelta"),
			DefaultHolderTypeSlug:      v.GetString("ledger.default_holder_type_slug"),
		},
		Server: models.ServerConfig{
			Addr: v.GetString("server.addr"),
		},
	}

	return cfg, nil
}
