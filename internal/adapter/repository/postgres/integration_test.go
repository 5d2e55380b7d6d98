package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/corebanking/internal/adapter/repository/storetest"
	infraPostgres "github.com/iho/corebanking/internal/infrastructure/postgres"
)

// TestStoreSuite runs against a real database when TEST_DATABASE_URL is set.
func TestStoreSuite(t *testing.T) {
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrations, err := filepath.Abs("../../../infrastructure/postgres/migrations")
	require.NoError(t, err)
	require.NoError(t, infraPostgres.RunMigrations(databaseURL, migrations, zerolog.Nop()))

	ctx := context.Background()
	pool, err := infraPostgres.NewPoolWithConfig(ctx, infraPostgres.PoolConfig{
		DatabaseURL: databaseURL,
		MaxConns:    25,
		LockTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	storetest.Run(t, func(t *testing.T) storetest.Harness {
		return storetest.Harness{
			TxManager:    NewTxManager(pool),
			Customers:    NewCustomerRepository(pool),
			Accounts:     NewAccountRepository(pool),
			Transactions: NewTransactionRepository(pool),
			Ledger:       NewLedgerRepository(pool),
		}
	})
}
