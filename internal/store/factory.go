package store

import (
	"log/slog"

	"github.com/pantryos/backend/internal/config"
)

// Open selects the archive backend from configuration. Backends that
// fail to connect fall back to the in-memory archive with a warning so
// a missing Redis never keeps the service from starting.
func Open(cfg config.Config) Archive {
	switch cfg.ArchiveBackend {
	case "redis":
		a, err := NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis archive unavailable, using in-memory", "error", err)
			return NewMemory()
		}
		return a
	case "postgres":
		a, err := NewPostgres(cfg.PostgresDSN)
		if err != nil {
			slog.Warn("postgres archive unavailable, using in-memory", "error", err)
			return NewMemory()
		}
		return a
	default:
		return NewMemory()
	}
}
