// Package common holds process bootstrap helpers shared by every cmd/
// entrypoint: logger init, .env loading and store construction, grounded
// on the teacher's internal/common/setup.go init()/InitializeLogger shape.
package common

import (
	"context"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/models"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("note: no .env file found or unable to load it: %v", err)
	}
}

// InitializeLogger builds the process-global zap logger and returns a
// cleanup func to flush it on shutdown.
func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil && !isIgnorableSyncError(err) {
			log.Printf("failed to sync logger: %v", err)
		}
	}
	return logger, cleanup
}

// InitializeStore opens the ledger's SQLite-backed Store.
func InitializeStore(ctx context.Context, cfg *models.Config) (*database.Store, error) {
	zap.L().Info("opening ledger store", zap.String("path", cfg.Database.Path))
	return database.Open(ctx, cfg.Database)
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
