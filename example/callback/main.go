package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/Jairo-Alejandro/vital-signs-monitoring-stm32/pkg/vitalmon"
)

func main() {
	flow, err := vitalmon.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(batch []vitalmon.CaptureEntry) error {
		for _, e := range batch {
			fmt.Printf("%s hr=%s spo2=%s temp=%s ecg=%s\n",
				e.Timestamp,
				format(e.Sample.HeartRate),
				format(e.Sample.SpO2),
				format(e.Sample.Temperature),
				format(e.Sample.ECG),
			)
		}
		return nil
	}

	if err := flow.Run(ctx, vitalmon.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func format(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}
