package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDatabaseSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS activity (
			event_id VARCHAR(255) PRIMARY KEY,
			occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
			kind VARCHAR(64) NOT NULL,
			passenger_id VARCHAR(255) NOT NULL,
			ticket_id VARCHAR(255) NOT NULL,
			trip_id VARCHAR(255) NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS activity_occurred_at_idx ON activity (occurred_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}

	return nil
}
