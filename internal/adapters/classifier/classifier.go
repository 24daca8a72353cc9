// Package classifier provides the intent classifier client. Classification
// failure always degrades to the unknown intent rather than propagating, so
// webhook acknowledgment latency stays bounded.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

const defaultTimeout = 3 * time.Second

// Meta carries channel context alongside the text being classified.
type Meta struct {
	Channel     model.Channel
	FromAddress string
}

// Classifier returns the typed classification for free text. Implementations
// never return an error: transport or oracle failure maps to the
// zero-confidence unknown intent.
type Classifier interface {
	Classify(ctx context.Context, text string, meta Meta) intent.Intent
}

// HTTPClassifier calls an external classification oracle over HTTP.
type HTTPClassifier struct {
	url     string
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// HTTPOption applies a configuration option to the HTTPClassifier.
type HTTPOption func(*HTTPClassifier)

// WithTimeout bounds each oracle call.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClassifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClassifier) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) HTTPOption {
	return func(c *HTTPClassifier) {
		if log != nil {
			c.log = log
		}
	}
}

// NewHTTPClassifier creates a classifier client for the oracle at url.
func NewHTTPClassifier(url string, opts ...HTTPOption) *HTTPClassifier {
	c := &HTTPClassifier{
		url:     url,
		client:  http.DefaultClient,
		timeout: defaultTimeout,
		log:     logger.Get().Named("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// oracleRequest mirrors the oracle's JSON request body.
type oracleRequest struct {
	Text    string `json:"text"`
	Channel string `json:"channel"`
	From    string `json:"from"`
}

// oracleResponse mirrors the oracle's JSON response body.
type oracleResponse struct {
	Intent     string            `json:"intent"`
	Confidence float64           `json:"confidence"`
	Fields     map[string]string `json:"fields"`
}

// Classify calls the oracle under a bounded timeout.
func (c *HTTPClassifier) Classify(ctx context.Context, text string, meta Meta) intent.Intent {
	start := time.Now()
	result, err := c.call(ctx, text, meta)
	metrics.RecordClassifierLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordClassifierError()
		c.log.Warn(ctx, "classifier oracle failed; degrading to unknown",
			logger.String("from", meta.FromAddress),
			logger.Error(err),
		)
		return intent.Unknown()
	}
	return result
}

func (c *HTTPClassifier) call(ctx context.Context, text string, meta Meta) (intent.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(oracleRequest{
		Text:    text,
		Channel: string(meta.Channel),
		From:    meta.FromAddress,
	})
	if err != nil {
		return intent.Intent{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return intent.Intent{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return intent.Intent{}, fmt.Errorf("call oracle: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return intent.Intent{}, fmt.Errorf("%w: status %d", ErrOracle, resp.StatusCode)
	}

	var decoded oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return intent.Intent{}, fmt.Errorf("decode response: %w", err)
	}

	fields := make(map[string]string, len(decoded.Fields))
	for k, v := range decoded.Fields {
		if v != "" {
			fields[k] = v
		}
	}
	return intent.Intent{
		Kind:       intent.ParseKind(decoded.Intent),
		Confidence: decoded.Confidence,
		Fields:     fields,
	}, nil
}
