package dividendpersist

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "divwatch-api/internal/cache"
	"divwatch-api/pkg/dividend"
	"divwatch-api/pkg/dividendcache"
)

// KV is the subset of go-zero's *redis.Redis used by RedisStore.
type KV interface {
	GetCtx(ctx context.Context, key string) (string, error)
	SetCtx(ctx context.Context, key, value string) error
}

// RedisStore keeps dividend records as msgpack blobs without expiry;
// freshness is decided by the cache from FetchedAt.
type RedisStore struct {
	kv KV
}

type redisRecord struct {
	Ticker    string          `msgpack:"ticker"`
	FetchedAt time.Time       `msgpack:"fetched_at"`
	Series    dividend.Series `msgpack:"series"`
}

// NewRedisStore wraps a go-zero redis client. Returns nil when kv is nil.
func NewRedisStore(kv KV) *RedisStore {
	if kv == nil {
		return nil
	}
	return &RedisStore{kv: kv}
}

func (s *RedisStore) Load(ctx context.Context, ticker string) (*dividendcache.Entry, error) {
	key := cachekeys.DividendSeriesKey(ticker)
	raw, err := s.kv.GetCtx(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	if raw == "" {
		return nil, dividendcache.ErrNotFound
	}

	var rec redisRecord
	if err := msgpack.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &dividendcache.Entry{
		Ticker:    dividend.NormalizeTicker(ticker),
		FetchedAt: rec.FetchedAt,
		Series:    rec.Series.Clone(),
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, entry *dividendcache.Entry) error {
	key := cachekeys.DividendSeriesKey(entry.Ticker)
	raw, err := msgpack.Marshal(redisRecord{
		Ticker:    entry.Ticker,
		FetchedAt: entry.FetchedAt.UTC(),
		Series:    entry.Series.Clone(),
	})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.SetCtx(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	logx.WithContext(ctx).Debugf("dividendpersist: stored %s in redis", key)
	return nil
}
