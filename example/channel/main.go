package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32"
)

func main() {
	flow, err := vitalmon.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, batches, closeBatches := vitalmon.NewChannelSink("fanout", 32)
	defer closeBatches()

	go fanoutWorker("archive", batches)

	if err := flow.Run(ctx, vitalmon.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, batches <-chan []vitalmon.CaptureEntry) {
	for batch := range batches {
		if len(batch) == 0 {
			continue
		}
		fmt.Printf("[%s] forwarding %d entries (%s .. %s) at %s\n",
			name, len(batch), batch[0].Timestamp, batch[len(batch)-1].Timestamp, time.Now().Format(time.RFC3339))
	}
}
