// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of dispatch workers.
	WorkerCount int `koanf:"worker_count"`

	// DatabaseURL selects the durable Postgres store when set. Empty keeps
	// records in memory.
	DatabaseURL string `koanf:"database_url"`

	// StaleAfterSeconds is how long a non-terminal record may sit untouched
	// before a retry of its event id takes it over.
	StaleAfterSeconds int `koanf:"stale_after_seconds"`

	// ClassifierURL points at the HTTP classification oracle. Empty selects
	// the built-in keyword rules classifier.
	ClassifierURL string `koanf:"classifier_url"`

	// ClassifierTimeoutMS bounds each oracle call.
	ClassifierTimeoutMS int `koanf:"classifier_timeout_ms"`

	// MinConfidence is the classification confidence floor; anything below
	// is handled as unknown.
	MinConfidence float64 `koanf:"min_confidence"`

	// FAQThreshold is the minimum knowledge base score for answering a
	// question instead of escalating it.
	FAQThreshold float64 `koanf:"faq_threshold"`

	// BookingDurationMinutes is the length of every created booking slot.
	BookingDurationMinutes int `koanf:"booking_duration_minutes"`

	// Timezone is the IANA zone assumed for slot times when the caller
	// does not name one.
	Timezone string `koanf:"timezone"`

	// DispatchDeadlineSeconds bounds how long one event may spend in
	// dispatch before its record is failed.
	DispatchDeadlineSeconds int `koanf:"dispatch_deadline_seconds"`

	// CalendarLatencyMinMS and CalendarLatencyMaxMS simulate external
	// calendar API latency bounds. Zero disables simulation.
	CalendarLatencyMinMS int `koanf:"calendar_latency_min_ms"`
	CalendarLatencyMaxMS int `koanf:"calendar_latency_max_ms"`

	// MaxRecordsLimit caps GET /records?limit.
	MaxRecordsLimit int `koanf:"max_records_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		EventQueueSize:          10_000,
		WorkerCount:             runtime.NumCPU() * 4,
		StaleAfterSeconds:       300,
		ClassifierTimeoutMS:     3_000,
		MinConfidence:           0.5,
		FAQThreshold:            0.4,
		BookingDurationMinutes:  60,
		Timezone:                "UTC",
		DispatchDeadlineSeconds: 15,
		MaxRecordsLimit:         100,
	}
}
