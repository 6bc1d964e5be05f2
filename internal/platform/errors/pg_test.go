package errors

import (
	stderrs "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDBErrorCode(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"42P01", ErrorCodeNotFound},
		{"22001", ErrorCodeInvalidArgument},
		{"22P02", ErrorCodeInvalidArgument},
		{"25006", ErrorCodeUnavailable},
		{"57P03", ErrorCodeUnavailable},
		{"53300", ErrorCodeUnavailable},
		{"40001", ErrorCodeDB},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(&pgconn.PgError{Code: c.code})
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v,%v want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("non-pg error should not map")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil should stay nil")
	}
	err := FromPostgresf(&pgconn.PgError{Code: "42P01"}, "select %s", "cache")
	if !IsCode(err, ErrorCodeNotFound) || !IsUndefinedTable(err) {
		t.Fatalf("unexpected mapping: %v (%v)", err, CodeOf(err))
	}
	if !IsCode(FromPostgres(stderrs.New("boom"), "x"), ErrorCodeDB) {
		t.Fatalf("foreign errors should map to DB")
	}
}

func TestIsRetryable_Pg(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", Wrap(&pgconn.PgError{Code: "40P01"}, ErrorCodeDB, "tx"), true},
		{"unique", &pgconn.PgError{Code: "23505"}, false},
		{"commit text", stderrs.New("commit unexpectedly resulted in rollback"), true},
		{"plain", stderrs.New("nope"), false},
		{"nil", nil, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsRetryable(c.err); got != c.want {
				t.Fatalf("IsRetryable = %v, want %v", got, c.want)
			}
		})
	}
}
