package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pantryos/backend/internal/core"
)

// Redis archives into per-household lists, trimmed to the retention
// caps on every write.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects and pings. The caller decides whether a failed
// connection falls back to the in-memory archive.
func NewRedis(addr, password string, db int) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed (%s): %w", addr, err)
	}

	slog.Info("archive store connected", "backend", "redis", "addr", addr, "db", db)
	return &Redis{rdb: rdb}, nil
}

func deadLetterKey(householdID string) string { return "pantry:deadletters:" + householdID }
func healthKey(householdID string) string     { return "pantry:health:" + householdID }

func (r *Redis) RecordDeadLetter(ctx context.Context, dl core.DeadLetter) error {
	raw, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	key := deadLetterKey(dl.HouseholdID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -MaxDeadLetters, -1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) DeadLetters(ctx context.Context, householdID string) ([]core.DeadLetter, error) {
	return readList[core.DeadLetter](ctx, r.rdb, deadLetterKey(householdID), 0)
}

func (r *Redis) AppendHealth(ctx context.Context, score core.PantryHealthScore) error {
	raw, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("marshal health score: %w", err)
	}
	key := healthKey(score.HouseholdID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, -MaxHealthEntries, -1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) HealthHistory(ctx context.Context, householdID string, limit int) ([]core.PantryHealthScore, error) {
	return readList[core.PantryHealthScore](ctx, r.rdb, healthKey(householdID), limit)
}

func readList[T any](ctx context.Context, rdb *redis.Client, key string, limit int) ([]T, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raws, err := rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			continue // skip unreadable rows rather than failing the read
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

var _ Archive = (*Redis)(nil)
