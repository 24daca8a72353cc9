package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

const slotLayout = "2006-01-02 15:04"

// alternativeProbes bounds how far past a conflicting slot we look for
// openings to suggest.
const alternativeProbes = 8

// handleSchedule books the requested slot or answers with a clarification or
// alternative suggestions. Only the created-booking path carries a resource
// ref.
func (d *Dispatcher) handleSchedule(ctx context.Context, event model.InboundEvent, in intent.Intent) (model.Result, error) {
	start, err := d.requestedSlot(in)
	if errors.Is(err, ErrMissingSlots) {
		return respond(event, ActionClarify, clarifyScheduleText(in), ""), nil
	}
	if err != nil {
		return model.Result{}, err
	}
	end := start.Add(d.bookingDuration)

	free, err := d.calendar.CheckAvailability(ctx, start, end)
	if err != nil {
		return model.Result{}, fmt.Errorf("check availability: %w", err)
	}
	if !free {
		return d.conflict(ctx, event, start)
	}

	booking, err := d.calendar.CreateBooking(ctx, event.FromAddress, start, end)
	if errors.Is(err, collab.ErrSlotTaken) {
		// Lost the race between availability check and creation.
		return d.conflict(ctx, event, start)
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("create booking: %w", err)
	}

	metrics.RecordBookingCreated()
	d.auditor.Record(ctx, event.EventID, audit.StageBookingCreated, booking.ExternalRef)
	d.log.Info(ctx, "booking created",
		logger.String("eventID", event.EventID),
		logger.String("ref", booking.ExternalRef),
		logger.String("slot", start.Format(slotLayout)),
	)
	return respond(event, ActionBookingCreated, confirmBookingText(booking), booking.ExternalRef), nil
}

func (d *Dispatcher) conflict(ctx context.Context, event model.InboundEvent, start time.Time) (model.Result, error) {
	metrics.RecordBookingConflict()
	alts := d.findAlternatives(ctx, start)
	return respond(event, ActionScheduleConflict, conflictText(start, alts), ""), nil
}

// requestedSlot resolves the date/time/timezone slots into the booking start.
func (d *Dispatcher) requestedSlot(in intent.Intent) (time.Time, error) {
	date, haveDate := in.Field(intent.SlotDate)
	clock, haveTime := in.Field(intent.SlotTime)
	if !haveDate || !haveTime {
		return time.Time{}, ErrMissingSlots
	}

	loc := d.location
	if tz, ok := in.Field(intent.SlotTimezone); ok {
		if parsed, err := time.LoadLocation(tz); err == nil {
			loc = parsed
		}
	}

	start, err := time.ParseInLocation(slotLayout, date+" "+clock, loc)
	if err != nil {
		// Unparseable slot values read the same as absent ones.
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrMissingSlots, date, clock)
	}
	return start, nil
}

// findAlternatives probes consecutive slots after start and returns up to two
// openings. Probe failures just shorten the suggestion list.
func (d *Dispatcher) findAlternatives(ctx context.Context, start time.Time) []time.Time {
	var alts []time.Time
	for i := 1; i <= alternativeProbes && len(alts) < 2; i++ {
		candidate := start.Add(time.Duration(i) * d.bookingDuration)
		free, err := d.calendar.CheckAvailability(ctx, candidate, candidate.Add(d.bookingDuration))
		if err == nil && free {
			alts = append(alts, candidate)
		}
	}
	return alts
}
