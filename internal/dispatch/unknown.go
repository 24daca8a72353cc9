package dispatch

import (
	"context"

	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// handleUnknown answers with the fixed fallback. It touches no collaborators,
// so low-confidence and failed classifications stay side-effect free.
func (d *Dispatcher) handleUnknown(_ context.Context, event model.InboundEvent, _ intent.Intent) (model.Result, error) {
	return respond(event, ActionFallback, fallbackText(), ""), nil
}
