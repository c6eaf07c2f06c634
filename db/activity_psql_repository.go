package db

import (
	"context"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"ticketsync/entity"
)

type ActivityPostgresRepository struct {
	db *sqlx.DB
}

func NewActivityPostgresRepository(db *sqlx.DB) ActivityPostgresRepository {
	if db == nil {
		panic("db is nil")
	}

	return ActivityPostgresRepository{db: db}
}

func (r ActivityPostgresRepository) Append(ctx context.Context, entry entity.ActivityEntry) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO activity (event_id, occurred_at, kind, passenger_id, ticket_id, trip_id, details)
		VALUES (:event_id, :occurred_at, :kind, :passenger_id, :ticket_id, :trip_id, :details)
		ON CONFLICT (event_id) DO NOTHING -- redelivered events
	`, entry)
	if err != nil {
		return fmt.Errorf("could not append activity %s: %w", entry.EventID, err)
	}

	return nil
}

func (r ActivityPostgresRepository) Recent(ctx context.Context, limit int) ([]entity.ActivityEntry, error) {
	if limit <= 0 {
		limit = math.MaxInt32
	}

	entries := make([]entity.ActivityEntry, 0)
	err := r.db.SelectContext(ctx, &entries, `
		SELECT event_id, occurred_at, kind, passenger_id, ticket_id, trip_id, details
		FROM activity
		ORDER BY occurred_at DESC, event_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("could not get recent activity: %w", err)
	}

	return entries, nil
}
