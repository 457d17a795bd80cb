package common

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/database"
)

// HolderSummary is the simplified shape the `ledgerd holders`
// subcommand prints, trimmed of the raw info JSON blob.
type HolderSummary struct {
	HolderId   string
	HolderType string
	Enabled    bool
}

// ListHolders retrieves holders, optionally filtered to a single
// holder_id, for command-line utilities.
func ListHolders(ctx context.Context, db *database.Store, holderIDFilter string, logger *zap.Logger) ([]HolderSummary, error) {
	holders, err := db.ListHolders(ctx, holderIDFilter)
	if err != nil {
		return nil, fmt.Errorf("list holders: %w", err)
	}

	out := make([]HolderSummary, 0, len(holders))
	for _, h := range holders {
		out = append(out, HolderSummary{
			HolderId:   h.HolderId,
			HolderType: h.HolderType,
			Enabled:    h.Enabled,
		})
	}

	logger.Info("retrieved holders", zap.Int("count", len(out)))
	return out, nil
}
