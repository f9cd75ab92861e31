// Command kravl runs crawl and transform pipelines: Lua crawl tasks, file
// copies with format conversion, image thumbnails and HTTP fetches, all
// written to a local directory or an S3 bucket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "kravl:", err)
		os.Exit(1)
	}
}
