package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bowers/nest-simulator"
)

func main() {
	exp, err := nestsimulator.Setup("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exporter, datasets, closeDatasets := nestsimulator.NewChannelExporter("fanout", 4)
	defer closeDatasets()

	go fanoutWorker("analysis", datasets)

	if err := exp.Run(ctx, nestsimulator.CollectExporter(exporter)); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, datasets <-chan *nestsimulator.Dataset) {
	for ds := range datasets {
		fmt.Printf("[%s] dataset from %s with %d variables at %s\n",
			name, ds.DeviceID, len(ds.Variables), time.Now().Format(time.RFC3339))
	}
}
