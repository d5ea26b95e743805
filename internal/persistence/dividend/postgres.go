package dividendpersist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/dividendcache"
)

// Schema creates the table backing PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS public.dividend_cache (
    ticker     TEXT PRIMARY KEY,
    fetched_at TIMESTAMPTZ NOT NULL,
    series     JSONB NOT NULL DEFAULT '[]'::jsonb
);`

const defaultTable = "public.dividend_cache"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps one row per ticker in dividend_cache.
type PostgresStore struct {
	conn  sqlx.SqlConn
	table string
}

type dividendRow struct {
	FetchedAt time.Time `db:"fetched_at"`
	Series    string    `db:"series"`
}

// NewPostgresStore wraps a go-zero SqlConn. Returns nil when conn is nil.
func NewPostgresStore(conn sqlx.SqlConn) *PostgresStore {
	if conn == nil {
		return nil
	}
	return &PostgresStore{conn: conn, table: defaultTable}
}

// EnsureSchema applies Schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.conn.ExecCtx(ctx, Schema); err != nil {
		return fmt.Errorf("ensure dividend_cache schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadQuery(ticker string) (string, []any, error) {
	return psql.Select("fetched_at", "series::text AS series").
		From(s.table).
		Where(sq.Eq{"ticker": ticker}).
		Limit(1).
		ToSql()
}

func (s *PostgresStore) saveQuery(entry *dividendcache.Entry, series []byte) (string, []any, error) {
	return psql.Insert(s.table).
		Columns("ticker", "fetched_at", "series").
		Values(entry.Ticker, entry.FetchedAt.UTC(), sq.Expr("?::jsonb", string(series))).
		Suffix("ON CONFLICT (ticker) DO UPDATE SET fetched_at = EXCLUDED.fetched_at, series = EXCLUDED.series").
		ToSql()
}

func (s *PostgresStore) Load(ctx context.Context, ticker string) (*dividendcache.Entry, error) {
	ticker = dividend.NormalizeTicker(ticker)
	query, args, err := s.loadQuery(ticker)
	if err != nil {
		return nil, err
	}

	var row dividendRow
	if err := s.conn.QueryRowCtx(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sqlx.ErrNotFound) {
			return nil, dividendcache.ErrNotFound
		}
		return nil, fmt.Errorf("query dividend_cache %s: %w", ticker, err)
	}

	series := dividend.Series{}
	if err := json.Unmarshal([]byte(row.Series), &series); err != nil {
		return nil, fmt.Errorf("decode dividend_cache %s: %w", ticker, err)
	}
	return &dividendcache.Entry{
		Ticker:    ticker,
		FetchedAt: row.FetchedAt,
		Series:    series,
	}, nil
}

func (s *PostgresStore) Save(ctx context.Context, entry *dividendcache.Entry) error {
	series, err := json.Marshal(entry.Series.Clone())
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	query, args, err := s.saveQuery(entry, series)
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecCtx(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert dividend_cache %s: %w", entry.Ticker, err)
	}
	logx.WithContext(ctx).Debugf("dividendpersist: upserted %s", entry.Ticker)
	return nil
}
