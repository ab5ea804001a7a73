package telemetry

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/canaswarm/microbot/internal/config"
	"github.com/canaswarm/microbot/internal/database"
	"github.com/canaswarm/microbot/internal/telemetry/gormstore"
	"github.com/canaswarm/microbot/internal/telemetry/memory"
)

// NewStore creates a telemetry store based on configuration
func NewStore(cfg config.StorageConfig, log zerolog.Logger) (Store, error) {
	switch cfg.Type {
	case "postgres":
		return gormstore.New(gormstore.Dependencies{
			DB:   database.NewManager(log),
			Mode: gormstore.ModePostgres,
		}), nil
	case "sqlite":
		return gormstore.New(gormstore.Dependencies{
			DB:         database.NewManager(log),
			Mode:       gormstore.ModeSqlite,
			SqlitePath: cfg.SQLite.Path,
		}), nil
	case "memory":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
