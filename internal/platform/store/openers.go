package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/store/pg"
	ptime "danmood/internal/platform/time"

	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// openPG opens pg, pings it with backoff, and wraps it with our adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "open postgres")
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 6
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}

	var lastErr error
	backoff := 150 * time.Millisecond
	for range attempts {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = p.Pool.Ping(toCtx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if err := ptime.SleepCtx(ctx, backoff); err != nil {
			p.Close()
			return nil, err
		}
		backoff = min(backoff*2, 2*time.Second)
	}

	p.Close()
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
}

var sqlOpen = sql.Open

// openLite opens the sqlite file (or :memory:) through the pure-Go driver
func openLite(ctx context.Context, cfg Config) (TxRunner, error) {
	dsn := cfg.Lite.Path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sqlOpen("sqlite", dsn)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "open sqlite")
	}
	// a single writer keeps :memory: databases on one connection and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "ping sqlite %s", dsn)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeDB, "configure sqlite")
	}
	return newSQLAdapter(db), nil
}

func openRedis(ctx context.Context, cfg Config) (KV, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		ClientName: cfg.AppName,
	})
	a := newRedisAdapter(rdb)
	if err := a.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	return a, nil
}
