package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bowers/nest-simulator/pkg/nestsim"
)

func main() {
	exp, err := nestsim.Setup("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	callback := func(ds *nestsim.Dataset) error {
		fmt.Printf("device=%s interval=%.2fms samples=%d\n",
			ds.DeviceID, ds.Interval.Ms(), len(ds.Series[ds.Variables[0]]))
		for _, name := range ds.Variables {
			series := ds.Series[name]
			fmt.Printf("  %s: first=%.3f last=%.3f\n", name, series[0], series[len(series)-1])
		}
		return nil
	}

	if err := exp.Run(ctx, nestsim.CollectCallback("stdout", callback)); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("runtime error: %v", err)
	}
}
