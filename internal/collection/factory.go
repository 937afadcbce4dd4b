package collection

import (
	"context"
	"fmt"
	"strings"
)

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// NewStore builds the configured store. In auto mode a database URL selects
// postgres, a sqlite path selects sqlite, and otherwise the store is in-memory.
func NewStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "auto"
	}

	switch driver {
	case "auto":
		if strings.TrimSpace(cfg.DatabaseURL) != "" {
			return NewPostgresStore(ctx, cfg.DatabaseURL)
		}
		if strings.TrimSpace(cfg.SQLitePath) != "" {
			return NewSQLiteStore(cfg.SQLitePath)
		}
		return NewInMemoryStore(), nil
	case "memory":
		return NewInMemoryStore(), nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for postgres store")
		}
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case "sqlite":
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("SQLITE_PATH is required for sqlite store")
		}
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// StoreMode names the backend behind s for health output.
func StoreMode(s Store) string {
	switch s.(type) {
	case *PostgresStore:
		return "postgres"
	case *SQLiteStore:
		return "sqlite"
	case *InMemoryStore:
		return "in-memory"
	default:
		return "custom"
	}
}
