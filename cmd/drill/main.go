package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/drill"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumEvents     = 1000
	defaultDuplicateRate = 0.3
	defaultTimeout       = 10 * time.Second
	defaultDrillTimeout  = 5 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numEvents     = flag.Int("events", defaultNumEvents, "Number of events to generate and submit")
		duplicateRate = flag.Float64("dup-rate", defaultDuplicateRate, "Fraction of events delivered twice")
		workers       = flag.Int("workers", runtime.NumCPU()*2, "Number of concurrent senders")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDrillTimeout)
	defer cancel()

	report, err := drill.Run(ctx, &drill.Config{
		BaseURL:       *baseURL,
		NumEvents:     *numEvents,
		DuplicateRate: *duplicateRate,
		Workers:       *workers,
		Timeout:       *timeout,
		Verbose:       *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("drill failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("sent=%d accepted=%d duplicates=%d replays=%d mismatches=%d errors=%d elapsed=%s\n",
		report.Sent, report.Accepted, report.Duplicates, report.Replays,
		report.Mismatches, report.Errors, report.Elapsed)
	if report.Mismatches > 0 {
		os.Exit(1)
	}
}
