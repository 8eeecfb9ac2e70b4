package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"carnet/internal/record"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		os.Exit(1)
	}
}

// describe turns a command error into the line shown to the user.
func describe(err error) string {
	if errors.Is(err, record.ErrPersist) {
		return "could not save; try again or run `carnet reset` to clear data"
	}
	return fmt.Sprintf("Error: %v", err)
}
