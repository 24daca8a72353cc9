package dispatch

import (
	"context"
	"fmt"

	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// handleFAQ answers from the knowledge base when the best match clears the
// score threshold, and escalates to a human otherwise.
func (d *Dispatcher) handleFAQ(ctx context.Context, event model.InboundEvent, _ intent.Intent) (model.Result, error) {
	matches, err := d.knowledge.Search(ctx, event.RawText)
	if err != nil {
		return model.Result{}, fmt.Errorf("knowledge search: %w", err)
	}

	if len(matches) == 0 || matches[0].Score < d.faqThreshold {
		metrics.RecordFAQEscalated()
		return respond(event, ActionFAQEscalated, escalationText(), ""), nil
	}

	metrics.RecordFAQAnswered()
	return respond(event, ActionFAQAnswered, matches[0].Answer, ""), nil
}
