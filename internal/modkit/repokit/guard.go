package repokit

import (
	"context"
	"time"

	perr "danmood/internal/platform/errors"
)

type guarder interface {
	Guard(context.Context) error
}

// DefaultGuardTimeout bounds Guard when ctx carries no deadline
const DefaultGuardTimeout = 5 * time.Second

// Guard pings every configured backend of st and reports a DB error when any
// of them does not answer
func Guard(ctx context.Context, st guarder) error {
	if st == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultGuardTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeDB, "cache backend guard failed")
	}
	return nil
}
