package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/bowers/nest-simulator"
)

func main() {
	exp, err := nestsimulator.Setup("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := exp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("simulation exited: %v", err)
	}
}
