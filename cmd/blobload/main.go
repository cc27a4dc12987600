// Command blobload fetches assets into an in-process object registry and
// prints a blob reference for each. With --serve it keeps the references
// alive and serves them, plus Prometheus metrics, over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(afero.NewOsFs()).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
