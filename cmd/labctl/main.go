// labctl is the operator command line for the lab booking database. It reads
// the same LAB_* environment as the API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/lab-booking/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &environment{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: func() (config.Config, error) { return config.Load() },
		now:        time.Now,
	}
	if err := env.execute(ctx, os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
