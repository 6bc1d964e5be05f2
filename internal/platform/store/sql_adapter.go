package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"danmood/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
)

// pgAdapter wraps pg.PG and implements TxRunner
// every statement is reported to the tracer configured on pg.PG
type pgAdapter struct {
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter { return &pgAdapter{p: p} }

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := a.p.Pool.Exec(ctx, q, args...)
	a.p.Emit(ctx, q, args, start, err)
	return ct, err
}

func (a *pgAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := a.p.Pool.Query(ctx, q, args...)
	a.p.Emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgRows{rs}, nil
}

func (a *pgAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := a.p.Pool.QueryRow(ctx, q, args...)
	return tracedRow{r: r, after: func(err error) { a.p.Emit(ctx, q, args, start, err) }}
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(pgTx{tx: tx, p: a.p}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
	p  *pg.PG
}

func (t pgTx) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.tx.Exec(ctx, q, args...)
	t.p.Emit(ctx, q, args, start, err)
	return ct, err
}

func (t pgTx) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.tx.Query(ctx, q, args...)
	t.p.Emit(ctx, q, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgRows{rs}, nil
}

func (t pgTx) QueryRow(ctx context.Context, q string, args ...any) Row {
	start := time.Now()
	r := t.tx.QueryRow(ctx, q, args...)
	return tracedRow{r: r, after: func(err error) { t.p.Emit(ctx, q, args, start, err) }}
}

type tracedRow struct {
	r     Row
	after func(error)
}

func (x tracedRow) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type pgRows struct{ r pgx.Rows }

func (x pgRows) Next() bool            { return x.r.Next() }
func (x pgRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x pgRows) Err() error            { return x.r.Err() }
func (x pgRows) Close()                { x.r.Close() }

// sqlAdapter exposes a database/sql handle (sqlite) through the same seams
type sqlAdapter struct{ db *sql.DB }

func newSQLAdapter(db *sql.DB) *sqlAdapter { return &sqlAdapter{db: db} }

func (a *sqlAdapter) Ping(ctx context.Context) error { return a.db.PingContext(ctx) }

func (a *sqlAdapter) Close() error { return a.db.Close() }

func (a *sqlAdapter) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, a.db, q, args...)
}

func (a *sqlAdapter) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, a.db, q, args...)
}

func (a *sqlAdapter) QueryRow(ctx context.Context, q string, args ...any) Row {
	return a.db.QueryRowContext(ctx, q, args...)
}

func (a *sqlAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(sqlTx{tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type sqlConn interface {
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
}

func sqlExec(ctx context.Context, c sqlConn, q string, args ...any) (CommandTag, error) {
	res, err := c.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, _ := res.RowsAffected()
	return affected(n), nil
}

func sqlQuery(ctx context.Context, c sqlConn, q string, args ...any) (Rows, error) {
	rs, err := c.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rs}, nil
}

type sqlTx struct{ tx *sql.Tx }

func (t sqlTx) Exec(ctx context.Context, q string, args ...any) (CommandTag, error) {
	return sqlExec(ctx, t.tx, q, args...)
}

func (t sqlTx) Query(ctx context.Context, q string, args ...any) (Rows, error) {
	return sqlQuery(ctx, t.tx, q, args...)
}

func (t sqlTx) QueryRow(ctx context.Context, q string, args ...any) Row {
	return t.tx.QueryRowContext(ctx, q, args...)
}

type sqlRows struct{ r *sql.Rows }

func (x sqlRows) Next() bool            { return x.r.Next() }
func (x sqlRows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x sqlRows) Err() error            { return x.r.Err() }
func (x sqlRows) Close()                { _ = x.r.Close() }

type affected int64

func (a affected) RowsAffected() int64 { return int64(a) }
