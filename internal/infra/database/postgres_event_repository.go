// internal/infra/database/postgres_event_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"iss_overhead_notifier/internal/domain/event"

	"github.com/lib/pq" // For pq.Error inspection
)

const schema = `CREATE TABLE IF NOT EXISTS tracker_events (
    id          BIGSERIAL PRIMARY KEY,
    kind        TEXT        NOT NULL,
    message     TEXT        NOT NULL,
    latitude    DOUBLE PRECISION,
    longitude   DOUBLE PRECISION,
    occurred_at TIMESTAMPTZ NOT NULL
)`

// PostgresEventRepository is an append-only event log. It implements
// event.Recorder.
type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// EnsureSchema creates the tracker_events table when it does not exist.
func (r *PostgresEventRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating tracker_events table: %w", describe(err))
	}
	return nil
}

func (r *PostgresEventRepository) Record(ctx context.Context, e *event.Event) error {
	query := `INSERT INTO tracker_events (kind, message, latitude, longitude, occurred_at)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query, e.Kind, e.Message, nullFloat(e.Latitude), nullFloat(e.Longitude), e.OccurredAt.UTC()).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("error recording tracker event: %w", describe(err))
	}
	return nil
}

// ListRecent returns the newest events first.
func (r *PostgresEventRepository) ListRecent(ctx context.Context, limit int) ([]*event.Event, error) {
	query := `SELECT id, kind, message, latitude, longitude, occurred_at
              FROM tracker_events ORDER BY occurred_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing tracker events: %w", describe(err))
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		e := &event.Event{}
		var lat, long sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Message, &lat, &long, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("error scanning tracker event: %w", err)
		}
		if lat.Valid {
			e.Latitude = &lat.Float64
		}
		if long.Valid {
			e.Longitude = &long.Float64
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracker events: %w", err)
	}
	return events, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// describe adds the Postgres error code to driver errors.
func describe(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		return fmt.Errorf("%s (code %s): %w", pqErr.Message, pqErr.Code, err)
	}
	return err
}
