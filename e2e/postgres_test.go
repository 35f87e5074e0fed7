package e2e_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce      sync.Once
	pgContainer *pgcontainer.PostgresContainer
	pgDSN       string
	pgErr       error
)

// postgresDSN starts one PostgreSQL container for the whole run and returns
// its connection string. TestMain terminates it via stopPostgres.
func postgresDSN(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		pgContainer, pgErr = pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("datashare"),
			pgcontainer.WithUsername("datashare"),
			pgcontainer.WithPassword("datashare"),
			pgcontainer.BasicWaitStrategies(),
		)
		if pgErr != nil {
			pgErr = fmt.Errorf("start postgres container: %w", pgErr)
			return
		}

		pgDSN, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if pgErr != nil {
			pgErr = fmt.Errorf("postgres connection string: %w", pgErr)
		}
	})

	if pgErr != nil {
		t.Fatal(pgErr)
	}
	return pgDSN
}

// stopPostgres terminates the container started by postgresDSN, if any.
func stopPostgres() {
	if pgContainer == nil {
		return
	}
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate postgres container: %v\n", err)
	}
}
