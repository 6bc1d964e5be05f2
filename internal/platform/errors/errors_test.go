package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
	"testing"
)

func TestCodeForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusTooManyRequests, ErrorCodeTooManyRequests},
		{http.StatusPreconditionFailed, ErrorCodeTooManyRequests},
		{http.StatusForbidden, ErrorCodeForbidden},
		{http.StatusUnauthorized, ErrorCodeUnauthorized},
		{http.StatusNotFound, ErrorCodeNotFound},
		{http.StatusGatewayTimeout, ErrorCodeTimeout},
		{http.StatusBadGateway, ErrorCodeUnavailable},
		{http.StatusInternalServerError, ErrorCodeUnavailable},
		{http.StatusRequestEntityTooLarge, ErrorCodeInvalidArgument},
		{http.StatusBadRequest, ErrorCodeInvalidArgument},
		{http.StatusOK, ErrorCodeUnknown},
	}
	for _, c := range cases {
		if got := CodeForStatus(c.status); got != c.want {
			t.Fatalf("CodeForStatus(%d) = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q", e.Error())
	}

	src := stderrs.New("root")
	e1 := Wrapf(src, ErrorCodeForbidden, "nope %s", "here")
	if want := "nope here: root"; e1.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", e1.Error(), want)
	}
	if got, ok := As(e1); !ok || got.Code() != ErrorCodeForbidden {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	e2 := WithField(e1, "dimensions")
	e3 := WithOp(e2, "embed")
	if fe, _ := As(e3); fe.Field() != "dimensions" || fe.Op() != "embed" {
		t.Fatalf("WithField/WithOp failed: %+v", fe)
	}
	if fe0, _ := As(e1); fe0.Field() != "" || fe0.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}
	if WithField(src, "x") != src {
		t.Fatalf("foreign errors pass through WithField")
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if got := Root(deep); got != src {
		t.Fatalf("Root() = %v", got)
	}
	if Classify(nil, "x") != nil {
		t.Fatalf("nil helpers should return nil")
	}
	if ErrorCodeTooManyRequests.String() != "too_many_requests" || ErrorCode(999).String() != "code(999)" {
		t.Fatalf("String() mismatch")
	}
}

func TestStatusCarriedThroughWrap(t *testing.T) {
	base := FromHTTPStatus(http.StatusServiceUnavailable, "upstream")
	wrapped := Wrap(base, ErrorCodeUnavailable, "embed batch")
	if StatusOf(wrapped) != http.StatusServiceUnavailable {
		t.Fatalf("StatusOf = %d", StatusOf(wrapped))
	}
	if StatusOf(stderrs.New("x")) != 0 {
		t.Fatalf("foreign error should have no status")
	}
	tr := WrapStatus(stderrs.New("dial"), ErrorCodeUnavailable, -1, "transport")
	if StatusOf(tr) != -1 || !IsCode(tr, ErrorCodeUnavailable) {
		t.Fatalf("WrapStatus = %d %v", StatusOf(tr), CodeOf(tr))
	}
}

type fakeNetErr struct{ timeout bool }

func (f fakeNetErr) Error() string   { return "net" }
func (f fakeNetErr) Timeout() bool   { return f.timeout }
func (f fakeNetErr) Temporary() bool { return false }

var _ net.Error = fakeNetErr{}

func TestCodeOfForeign(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ErrorCodeUnknown},
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), ErrorCodeTimeout},
		{"canceled", context.Canceled, ErrorCodeCanceled},
		{"net timeout", fakeNetErr{timeout: true}, ErrorCodeTimeout},
		{"net reset", fakeNetErr{}, ErrorCodeUnavailable},
		{"plain", stderrs.New("x"), ErrorCodeUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CodeOf(c.err); got != c.want {
				t.Fatalf("CodeOf = %v, want %v", got, c.want)
			}
		})
	}
}

func TestRetryableAndFatal(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		fatal     bool
	}{
		{"5xx", FromHTTPStatus(502, "bad gateway"), true, false},
		{"timeout", context.DeadlineExceeded, true, false},
		{"4xx", FromHTTPStatus(400, "bad"), false, false},
		{"413", FromHTTPStatus(413, "too large"), false, false},
		{"canceled", context.Canceled, false, true},
		{"precondition", Preconditionf("no key"), false, true},
		{"nil", nil, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Retryable(c.err); got != c.retryable {
				t.Fatalf("Retryable = %v, want %v", got, c.retryable)
			}
			if got := Fatal(c.err); got != c.fatal {
				t.Fatalf("Fatal = %v, want %v", got, c.fatal)
			}
		})
	}
}
