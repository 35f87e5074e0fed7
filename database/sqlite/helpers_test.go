package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/datashare"
	"github.com/sagarc03/datashare/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// randomTables returns unique table names for test isolation
func randomTables(t *testing.T) datashare.Tables {
	t.Helper()
	suffix := getRandomString(t)
	return datashare.Tables{
		Users:  "users_" + suffix,
		Files:  "files_" + suffix,
		Tokens: "tokens_" + suffix,
	}
}

// setupTestRepo creates a migrated in-memory database and returns its repo
func setupTestRepo(t *testing.T) datashare.Repo {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite.Connect(ctx, ":memory:", randomTables(t))
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetRepo()
}
