package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

func seedMetadata(t *testing.T, pool *Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		INSERT INTO asset_metadata (symbol, asset_type, name, currency) VALUES
			('^GDAXI', 'index', 'DAX Performance Index', 'EUR'),
			('^FCHI', 'index', 'CAC 40', 'EUR'),
			('^GSPC', 'index', 'S&P 500', 'USD'),
			('BTCUSD', 'crypto', 'Bitcoin', 'USD')
	`)
	require.NoError(t, err)
}

func TestMetadataStore_SymbolsByCurrency(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedMetadata(t, pool)
	store := NewMetadataStore(pool)

	grouped, err := store.SymbolsByCurrency(context.Background(), domain.ClassIndex)
	require.NoError(t, err)

	assert.Equal(t, []string{"^FCHI", "^GDAXI"}, grouped["EUR"])
	assert.Equal(t, []string{"^GSPC"}, grouped["USD"])
}

func TestMetadataStore_Name(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	seedMetadata(t, pool)
	store := NewMetadataStore(pool)

	name, err := store.Name(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", name)

	_, err = store.Name(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
