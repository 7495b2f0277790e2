// Command client is a terminal front end for the notes: every edit lands in
// a local SQLite file first and is synced with the API server when it is
// reachable.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root, cleanup := newRootCmd()
	err := root.ExecuteContext(ctx)
	if cerr := cleanup(); cerr != nil && err == nil {
		err = cerr
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
