// logmerge merges the per-worker log files of a distributed job into one
// time-ordered log per name.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ccollicutt/logmerge/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
