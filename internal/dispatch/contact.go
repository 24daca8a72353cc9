package dispatch

import (
	"context"
	"fmt"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
)

// handleContact saves whatever contact details were extracted under the
// caller's channel address. With nothing extracted it asks for details
// instead.
func (d *Dispatcher) handleContact(ctx context.Context, event model.InboundEvent, in intent.Intent) (model.Result, error) {
	name, haveName := in.Field(intent.SlotName)
	email, haveEmail := in.Field(intent.SlotEmail)
	phone, havePhone := in.Field(intent.SlotPhone)
	if !haveName && !haveEmail && !havePhone {
		return respond(event, ActionClarify, clarifyContactText(), ""), nil
	}

	saved, err := d.directory.Upsert(ctx, collab.Contact{
		Address: event.FromAddress,
		Name:    name,
		Email:   email,
		Phone:   phone,
	})
	if err != nil {
		return model.Result{}, fmt.Errorf("save contact: %w", err)
	}
	return respond(event, ActionContactSaved, contactSavedText(saved), ""), nil
}
