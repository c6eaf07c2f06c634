package db

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	testDB     *sqlx.DB
	testDBErr  error
	testDBOnce sync.Once
)

// GetDb returns a database with the activity schema, shared by all tests of
// the binary. It uses POSTGRES_URL, or a throwaway container when that is
// not set. Tests using it are skipped in short mode.
func GetDb(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres tests skipped in short mode")
	}

	testDBOnce.Do(func() {
		url := os.Getenv("POSTGRES_URL")
		if url == "" {
			url, testDBErr = startPostgres(context.Background())
			if testDBErr != nil {
				return
			}
		}

		testDB, testDBErr = Open(url)
		if testDBErr != nil {
			return
		}
		testDBErr = InitializeDatabaseSchema(testDB)
	})
	require.NoError(t, testDBErr)

	return testDB
}

// startPostgres runs a container that the testcontainers reaper removes
// once the test binary exits.
func startPostgres(ctx context.Context) (string, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("docker.io/postgres:15.2-alpine"),
		postgres.WithDatabase("ticketsync"),
		postgres.WithUsername("ticketsync"),
		postgres.WithPassword("ticketsync"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return "", fmt.Errorf("could not start postgres container: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable", "application_name=ticketsync-test")
	if err != nil {
		return "", fmt.Errorf("could not get postgres connection string: %w", err)
	}

	return url, nil
}
