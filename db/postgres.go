package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel/attribute"
)

// Open connects to Postgres through an instrumented driver, so every query
// shows up as a span of the request that issued it.
func Open(url string) (*sqlx.DB, error) {
	sqlDB, err := otelsql.Open("postgres", url,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
	)
	if err != nil {
		return nil, fmt.Errorf("could not open postgres: %w", err)
	}

	return sqlx.NewDb(sqlDB, "postgres"), nil
}
