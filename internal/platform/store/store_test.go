package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"danmood/internal/platform/config"
	perr "danmood/internal/platform/errors"
)

func TestOpen_NoBackends(t *testing.T) {
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.PG != nil || s.Lite != nil || s.Redis != nil {
		t.Fatalf("no seams expected: %+v", s)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_OptionError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Open(context.Background(), Config{}, func(*Store) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestGuard_Nil(t *testing.T) {
	var s *Store
	if err := s.Guard(context.Background()); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestLite_RoundTripAndTx(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(ctx, Config{Lite: LiteConfig{Enabled: true, Path: path}})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(ctx) })

	if err := s.Guard(ctx); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if _, err := s.Lite.Exec(ctx, `create table kv (k text primary key, v blob)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	err = s.Lite.Tx(ctx, func(q RowQuerier) error {
		tag, err := q.Exec(ctx, `insert into kv (k, v) values (?, ?)`, "a", []byte{1, 2})
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			t.Fatalf("rows affected = %d", tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	rollback := errors.New("rollback")
	err = s.Lite.Tx(ctx, func(q RowQuerier) error {
		_, _ = q.Exec(ctx, `insert into kv (k, v) values (?, ?)`, "b", []byte{3})
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("tx err = %v", err)
	}

	n, err := Scalar[int](ctx, s.Lite, `select count(*) from kv`)
	if err != nil || n != 1 {
		t.Fatalf("count = %d, %v", n, err)
	}

	rows, err := s.Lite.Query(ctx, `select k from kv`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			t.Fatalf("scan: %v", err)
		}
		keys = append(keys, k)
	}
	if rows.Err() != nil || len(keys) != 1 || keys[0] != "a" {
		t.Fatalf("keys = %v (%v)", keys, rows.Err())
	}
}

func TestOpen_PGBadURL(t *testing.T) {
	_, err := Open(context.Background(), Config{PG: PGConfig{Enabled: true, URL: "://bad"}})
	if !perr.IsCode(err, perr.ErrorCodeDB) {
		t.Fatalf("err = %v (%v)", err, perr.CodeOf(err))
	}
}

func TestFromConfig_SelectsBackend(t *testing.T) {
	t.Setenv("T_STORE_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("T_STORE_REDIS_DB", "3")
	conf := config.New().Prefix("T_STORE_")

	lite := FromConfig(conf, "sqlite")
	if !lite.Lite.Enabled || lite.PG.Enabled || lite.Redis.Enabled || lite.Lite.Path != "/tmp/x.db" {
		t.Fatalf("sqlite config = %+v", lite)
	}
	rds := FromConfig(conf, "redis")
	if !rds.Redis.Enabled || rds.Redis.DB != 3 {
		t.Fatalf("redis config = %+v", rds)
	}
	if none := FromConfig(conf, "memory"); none.PG.Enabled || none.Lite.Enabled || none.Redis.Enabled {
		t.Fatalf("memory should enable nothing: %+v", none)
	}
}
