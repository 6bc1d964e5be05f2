// Command danmood analyzes the live comments of one video
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	perr "danmood/internal/platform/errors"
	"danmood/internal/platform/logger"
)

// exit codes: 1 for failures during a run, 2 when the run could not start
const (
	exitFailed = 1
	exitFatal  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		logger.Get().Error().Err(err).Str("code", perr.CodeOf(err).String()).Msg("danmood failed")
		if perr.Fatal(err) {
			os.Exit(exitFatal)
		}
		os.Exit(exitFailed)
	}
}
