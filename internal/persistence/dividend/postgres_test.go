package dividendpersist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"divwatch-api/pkg/dividendcache"
)

func TestPostgresLoadQuery(t *testing.T) {
	store := &PostgresStore{table: defaultTable}
	query, args, err := store.loadQuery("KO")
	require.NoError(t, err)
	assert.Equal(t, "SELECT fetched_at, series::text AS series FROM public.dividend_cache WHERE ticker = $1 LIMIT 1", query)
	assert.Equal(t, []any{"KO"}, args)
}

func TestPostgresSaveQuery(t *testing.T) {
	store := &PostgresStore{table: defaultTable}
	fetchedAt := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	query, args, err := store.saveQuery(&dividendcache.Entry{Ticker: "KO", FetchedAt: fetchedAt}, []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO public.dividend_cache (ticker,fetched_at,series) VALUES ($1,$2,$3::jsonb) "+
			"ON CONFLICT (ticker) DO UPDATE SET fetched_at = EXCLUDED.fetched_at, series = EXCLUDED.series",
		query)
	require.Len(t, args, 3)
	assert.Equal(t, "KO", args[0])
	assert.Equal(t, fetchedAt, args[1])
	assert.Equal(t, "[]", args[2])
}
