// Package drill generates synthetic webhook traffic against a running
// service, deliberately re-delivering a share of events to verify that
// duplicates are absorbed and completed results replay verbatim.
package drill

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/frontdesk-labs/frontdesk/pkg/logger"
)

// Config controls one drill run.
type Config struct {
	BaseURL       string
	NumEvents     int
	DuplicateRate float64 // fraction of events delivered twice
	Workers       int
	Timeout       time.Duration
	Verbose       bool
}

// Report summarizes a drill run.
type Report struct {
	Sent       int64
	Accepted   int64
	Duplicates int64
	Replays    int64
	Mismatches int64
	Errors     int64
	Elapsed    time.Duration
}

// sample booking and question texts cycled through the generated events.
var sampleTexts = []string{
	"Can you book me an appointment on 2026-09-15 at 10:00?",
	"what are your hours?",
	"where are you located?",
	"My name is Jordan Reyes, my email is jordan@example.com",
	"I need to cancel my appointment",
	"how much does a visit cost?",
}

type ack struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
	Reply   string `json:"reply,omitempty"`
}

// Run executes the drill and returns its report.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if cfg.NumEvents < 1 {
		return nil, fmt.Errorf("num events must be positive")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	log := logger.Get().Named("drill")
	client := &http.Client{Timeout: cfg.Timeout}
	report := &Report{}
	start := time.Now()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				runOne(ctx, client, cfg, report, log)
			}
		}()
	}

	for i := 0; i < cfg.NumEvents; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	report.Elapsed = time.Since(start)
	log.Info(ctx, "drill finished",
		logger.Int64("sent", report.Sent),
		logger.Int64("accepted", report.Accepted),
		logger.Int64("duplicates", report.Duplicates),
		logger.Int64("replays", report.Replays),
		logger.Int64("mismatches", report.Mismatches),
		logger.Int64("errors", report.Errors),
	)
	return report, nil
}

// runOne delivers one synthetic SMS event, and for a share of events
// re-delivers it to exercise the idempotency path.
func runOne(ctx context.Context, client *http.Client, cfg *Config, report *Report, log logger.Logger) {
	sid := "DRILL" + strings.ReplaceAll(uuid.New().String(), "-", "")
	form := url.Values{
		"MessageSid": {sid},
		"From":       {fmt.Sprintf("+1555%07d", rand.Intn(10_000_000))},
		"To":         {"+15557770000"},
		"Body":       {sampleTexts[rand.Intn(len(sampleTexts))]},
	}

	first, err := deliver(ctx, client, cfg.BaseURL, form)
	if err != nil {
		atomic.AddInt64(&report.Errors, 1)
		return
	}
	atomic.AddInt64(&report.Sent, 1)
	if first.Status == "accepted" {
		atomic.AddInt64(&report.Accepted, 1)
	}

	if rand.Float64() >= cfg.DuplicateRate {
		return
	}

	second, err := deliver(ctx, client, cfg.BaseURL, form)
	if err != nil {
		atomic.AddInt64(&report.Errors, 1)
		return
	}
	atomic.AddInt64(&report.Sent, 1)

	switch second.Status {
	case "duplicate":
		atomic.AddInt64(&report.Duplicates, 1)
	case "replayed":
		atomic.AddInt64(&report.Replays, 1)
		if second.Reply == "" {
			atomic.AddInt64(&report.Mismatches, 1)
			log.Warn(ctx, "replay carried no reply", logger.String("eventID", second.EventID))
		}
	default:
		// A second "accepted" here means the first delivery's record
		// vanished; that is exactly what the drill exists to catch.
		atomic.AddInt64(&report.Mismatches, 1)
		log.Warn(ctx, "duplicate delivery was re-admitted",
			logger.String("eventID", second.EventID),
			logger.String("status", second.Status),
		)
	}
}

func deliver(ctx context.Context, client *http.Client, baseURL string, form url.Values) (*ack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/webhooks/sms", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var a ack
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode ack: %w", err)
	}
	return &a, nil
}
