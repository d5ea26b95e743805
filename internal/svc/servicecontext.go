package svc

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
	"github.com/zeromicro/go-zero/rest"

	"divwatch-api/internal/config"
	"divwatch-api/internal/middleware"
	dividendpersist "divwatch-api/internal/persistence/dividend"
	"divwatch-api/pkg/dividendcache"
	providerpkg "divwatch-api/pkg/provider"
	_ "divwatch-api/pkg/provider/iexcloud"
	"divwatch-api/pkg/provider/yahoo"
)

const schemaTimeout = 10 * time.Second

type ServiceContext struct {
	Config config.Config

	ProviderConfig *providerpkg.Config
	Provider       providerpkg.Provider

	// Optional backends, set only when configured.
	DBConn sqlx.SqlConn
	Redis  *redis.Redis

	Store dividendcache.Store
	Cache *dividendcache.Cache

	RequestId rest.Middleware
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc, err := Build(c)
	if err != nil {
		log.Fatalf("failed to build service context: %v", err)
	}
	return svc
}

// Build wires the provider, the durable store and the single Cache shared
// by all handlers.
func Build(c config.Config) (*ServiceContext, error) {
	svc := &ServiceContext{
		Config:    c,
		RequestId: middleware.NewRequestIdMiddleware().Handle,
	}

	if c.Provider.Value != nil {
		p, err := c.Provider.Value.BuildDefault()
		if err != nil {
			return nil, fmt.Errorf("build dividend provider: %w", err)
		}
		svc.ProviderConfig = c.Provider.Value
		svc.Provider = p
	} else {
		svc.Provider = yahoo.NewProvider()
	}

	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		if db, err := conn.RawDB(); err == nil {
			db.SetMaxOpenConns(c.Postgres.MaxOpen)
			db.SetMaxIdleConns(c.Postgres.MaxIdle)
		}
		svc.DBConn = conn
	}
	if c.Redis.Host != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		svc.Redis = rds
	}

	store, err := svc.buildStore()
	if err != nil {
		return nil, err
	}
	svc.Store = store
	svc.Cache = dividendcache.New(svc.Provider, c.CacheDir(),
		dividendcache.WithStore(store),
		dividendcache.WithTTL(c.TTL()),
		dividendcache.WithLookback(c.Lookback()),
		dividendcache.WithSingleFlight(c.Cache.SingleFlight),
	)
	return svc, nil
}

func (s *ServiceContext) buildStore() (dividendcache.Store, error) {
	switch s.Config.Cache.Store {
	case config.StoreRedis:
		if s.Redis == nil {
			return nil, fmt.Errorf("cache store redis: redis not configured")
		}
		return dividendpersist.NewRedisStore(s.Redis), nil
	case config.StorePostgres:
		if s.DBConn == nil {
			return nil, fmt.Errorf("cache store postgres: postgres not configured")
		}
		store := dividendpersist.NewPostgresStore(s.DBConn)
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		dir := s.Config.CacheDir()
		logx.Infof("dividend cache directory: %s", dir)
		return dividendcache.NewFileStore(dir), nil
	}
}
