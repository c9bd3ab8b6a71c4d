// Command formulactl manages formulas through the formulas REST resource.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"formulaplace/internal/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(dialService).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "formulactl: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func dialService(opts *options) (formulaService, error) {
	return client.NewClient(client.Config{
		BaseURL: opts.apiURL,
		Timeout: opts.timeout,
	})
}
