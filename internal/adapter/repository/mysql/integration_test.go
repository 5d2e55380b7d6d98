package mysql

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/iho/corebanking/internal/adapter/repository/storetest"
	mysqlinfra "github.com/iho/corebanking/internal/infrastructure/mysql"
)

// TestStoreSuite runs against a real server when TEST_MYSQL_DSN is set.
func TestStoreSuite(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	db, err := mysqlinfra.Open(ctx, mysqlinfra.Config{
		DSN:             dsn,
		MaxOpenConns:    25,
		ConnectRetryMax: 30 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mysqlinfra.Close(db) })

	store := NewStore(db)
	require.NoError(t, store.Migrate(ctx))

	storetest.Run(t, func(t *testing.T) storetest.Harness {
		return storetest.Harness{
			TxManager:    store,
			Customers:    store.Customers(),
			Accounts:     store.Accounts(),
			Transactions: store.Transactions(),
			Ledger:       store.Ledger(),
		}
	})
}
