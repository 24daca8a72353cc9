package collab

import (
	"context"
	"sync"

	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// Notifier delivers a response back over its originating channel. Delivery
// failure is reported to the caller but must never affect the stored record:
// an event whose side effects ran is completed even if the reply bounced.
type Notifier interface {
	Send(ctx context.Context, resp model.Response) error
}

// LogNotifier writes responses to the log. It stands in for provider
// callback APIs in deployments without outbound credentials.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a logging notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.Get().Named("notifier")}
}

// Send logs the response and counts it per channel.
func (n *LogNotifier) Send(ctx context.Context, resp model.Response) error {
	metrics.RecordResponseSent(string(resp.Channel))
	n.log.Info(ctx, "response sent",
		logger.String("channel", string(resp.Channel)),
		logger.String("to", resp.ToAddress),
		logger.String("text", resp.Text),
	)
	return nil
}

// RecordingNotifier captures every sent response, for tests and drills.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []model.Response
}

// NewRecordingNotifier creates an empty recording notifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

// Send records the response.
func (n *RecordingNotifier) Send(_ context.Context, resp model.Response) error {
	metrics.RecordResponseSent(string(resp.Channel))
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, resp)
	return nil
}

// Sent returns a copy of every response sent so far.
func (n *RecordingNotifier) Sent() []model.Response {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.Response, len(n.sent))
	copy(out, n.sent)
	return out
}
