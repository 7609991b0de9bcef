package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kdo-portal/internal/config"
	"kdo-portal/internal/sheets"
)

// Store is a flat key-value namespace holding serialized collections.
// A missing key reports found=false, which is distinct from a stored empty value.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New opens the driver selected by STORE_DRIVER.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.StoreDriver {
	case "", "memory":
		return NewMemory(), nil
	case "badger":
		return OpenBadger(cfg.BadgerDir, logger)
	case "redis":
		return OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "sheets":
		client, err := sheets.New(ctx, cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
		if err != nil {
			return nil, err
		}
		return sheets.NewStore(client, cfg.SheetsTab), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
