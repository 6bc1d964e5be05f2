package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"danmood/internal/modkit/repokit"
	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
	"danmood/internal/platform/store"
	"danmood/internal/services/labelcache/domain"
)

// Dialect holds the statements of one SQL backend
type Dialect struct {
	Name   string
	Schema string
	Get    string
	Put    string
	Count  string
}

// SQLite is the dialect of the embedded sqlite file
var SQLite = Dialect{
	Name: "sqlite",
	Schema: `CREATE TABLE IF NOT EXISTS label_embeds (
		cache_key  TEXT PRIMARY KEY,
		vectors    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	Get: `SELECT vectors, created_at FROM label_embeds WHERE cache_key = ?`,
	Put: `INSERT INTO label_embeds (cache_key, vectors, created_at) VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET vectors = excluded.vectors, created_at = excluded.created_at`,
	Count: `SELECT count(*) FROM label_embeds`,
}

// Postgres is the dialect of a shared postgres cache
var Postgres = Dialect{
	Name: "postgres",
	Schema: `CREATE TABLE IF NOT EXISTS label_embeds (
		cache_key  TEXT PRIMARY KEY,
		vectors    TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	Get: `SELECT vectors, created_at FROM label_embeds WHERE cache_key = $1`,
	Put: `INSERT INTO label_embeds (cache_key, vectors, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (cache_key) DO UPDATE SET vectors = EXCLUDED.vectors, created_at = EXCLUDED.created_at`,
	Count: `SELECT count(*) FROM label_embeds`,
}

type (
	sqlRepo struct {
		q repokit.Queryer
		d Dialect
	}
	binder struct{ d Dialect }
)

// NewSQL constructs a repo binder for dialect d
func NewSQL(d Dialect) repokit.Binder[domain.Repo] { return binder{d: d} }

// Bind implements repokit.Binder
func (b binder) Bind(q repokit.Queryer) domain.Repo { return &sqlRepo{q: q, d: b.d} }

// Migrate creates the cache table when missing
func Migrate(ctx context.Context, tx repokit.TxRunner, d Dialect) error {
	var n int64
	err := repokit.WithTx(ctx, tx, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, d.Schema); err != nil {
			return err
		}
		var err error
		n, err = store.Scalar[int64](ctx, q, d.Count)
		return err
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "migrate %s label cache", d.Name)
	}
	logger.NamedC(ctx, "labelcache").Debug().Str("backend", d.Name).Int64("entries", n).Msg("label cache ready")
	return nil
}

// Get implements domain.Repo
func (r *sqlRepo) Get(ctx context.Context, key string) (domain.Entry, bool, error) {
	var raw string
	var created int64
	err := r.q.QueryRow(ctx, r.d.Get, key).Scan(&raw, &created)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return domain.Entry{}, false, nil
	}
	if err != nil {
		return domain.Entry{}, false, perr.Wrapf(err, perr.ErrorCodeDB, "%s label cache get", r.d.Name)
	}
	var vecs [][]float64
	if err := json.Unmarshal([]byte(raw), &vecs); err != nil {
		return domain.Entry{}, false, perr.Wrapf(err, perr.ErrorCodeMalformed, "%s label cache entry %s", r.d.Name, key)
	}
	return domain.Entry{Vectors: vecs, CreatedAt: time.Unix(created, 0)}, true, nil
}

// Put implements domain.Repo
func (r *sqlRepo) Put(ctx context.Context, key string, e domain.Entry) error {
	raw, err := json.Marshal(e.Vectors)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeInvalidArgument, "encode label vectors")
	}
	if _, err := r.q.Exec(ctx, r.d.Put, key, string(raw), e.CreatedAt.Unix()); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "%s label cache put", r.d.Name)
	}
	return nil
}
