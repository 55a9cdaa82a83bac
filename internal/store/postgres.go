package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/pantryos/backend/internal/core"
)

// Postgres archives into two narrow JSONB tables. Rows beyond the
// retention caps are pruned after each insert.
type Postgres struct {
	db *sql.DB
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pantry_dead_letters (
	id           BIGSERIAL PRIMARY KEY,
	household_id TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_dead_letters_household ON pantry_dead_letters (household_id, id);

CREATE TABLE IF NOT EXISTS pantry_health_history (
	id           BIGSERIAL PRIMARY KEY,
	household_id TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_health_history_household ON pantry_health_history (household_id, id);
`

// NewPostgres connects, pings, and ensures the schema.
func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure archive schema: %w", err)
	}

	slog.Info("archive store connected", "backend", "postgres")
	return &Postgres{db: db}, nil
}

func (p *Postgres) RecordDeadLetter(ctx context.Context, dl core.DeadLetter) error {
	return p.insert(ctx, "pantry_dead_letters", dl.HouseholdID, dl, MaxDeadLetters)
}

func (p *Postgres) DeadLetters(ctx context.Context, householdID string) ([]core.DeadLetter, error) {
	return selectPayloads[core.DeadLetter](ctx, p.db, "pantry_dead_letters", householdID, 0)
}

func (p *Postgres) AppendHealth(ctx context.Context, score core.PantryHealthScore) error {
	return p.insert(ctx, "pantry_health_history", score.HouseholdID, score, MaxHealthEntries)
}

func (p *Postgres) HealthHistory(ctx context.Context, householdID string, limit int) ([]core.PantryHealthScore, error) {
	return selectPayloads[core.PantryHealthScore](ctx, p.db, "pantry_health_history", householdID, limit)
}

func (p *Postgres) insert(ctx context.Context, table, householdID string, payload any, cap int) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal archive payload: %w", err)
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (household_id, payload) VALUES ($1, $2)`, table),
		householdID, raw); err != nil {
		return err
	}
	// Prune rows past the retention cap, oldest first.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE household_id = $1 AND id NOT IN (
			SELECT id FROM %s WHERE household_id = $1 ORDER BY id DESC LIMIT $2
		)`, table, table), householdID, cap); err != nil {
		return err
	}
	return tx.Commit()
}

func selectPayloads[T any](ctx context.Context, db *sql.DB, table, householdID string, limit int) ([]T, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE household_id = $1 ORDER BY id`, table)
	args := []any{householdID}
	if limit > 0 {
		query = fmt.Sprintf(`SELECT payload FROM (
			SELECT id, payload FROM %s WHERE household_id = $1 ORDER BY id DESC LIMIT $2
		) latest ORDER BY id`, table)
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) Close() error { return p.db.Close() }

var _ Archive = (*Postgres)(nil)
