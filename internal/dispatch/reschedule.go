package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// handleCancel cancels the caller's earliest upcoming booking.
func (d *Dispatcher) handleCancel(ctx context.Context, event model.InboundEvent, _ intent.Intent) (model.Result, error) {
	booking, err := d.upcomingBooking(ctx, event.FromAddress)
	if errors.Is(err, ErrNoExistingBooking) {
		return respond(event, ActionNoBooking, noBookingText(), ""), nil
	}
	if err != nil {
		return model.Result{}, err
	}

	if err := d.calendar.CancelBooking(ctx, booking.ExternalRef); err != nil {
		return model.Result{}, fmt.Errorf("cancel booking: %w", err)
	}
	metrics.RecordBookingCancelled()
	d.auditor.Record(ctx, event.EventID, audit.StageBookingCancelled, booking.ExternalRef)
	d.log.Info(ctx, "booking cancelled",
		logger.String("eventID", event.EventID),
		logger.String("ref", booking.ExternalRef),
	)
	return respond(event, ActionBookingCancelled, cancelText(booking), booking.ExternalRef), nil
}

// handleReschedule moves the caller's earliest upcoming booking to the
// requested slot. The old booking is only cancelled once the new slot is
// confirmed free, so a conflict leaves the original untouched.
func (d *Dispatcher) handleReschedule(ctx context.Context, event model.InboundEvent, in intent.Intent) (model.Result, error) {
	existing, err := d.upcomingBooking(ctx, event.FromAddress)
	if errors.Is(err, ErrNoExistingBooking) {
		return respond(event, ActionNoBooking, noBookingText(), ""), nil
	}
	if err != nil {
		return model.Result{}, err
	}

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

	if err := d.calendar.CancelBooking(ctx, existing.ExternalRef); err != nil {
		return model.Result{}, fmt.Errorf("cancel old booking: %w", err)
	}
	metrics.RecordBookingCancelled()
	d.auditor.Record(ctx, event.EventID, audit.StageBookingCancelled, existing.ExternalRef)

	updated, err := d.calendar.CreateBooking(ctx, event.FromAddress, start, end)
	if errors.Is(err, collab.ErrSlotTaken) {
		// Lost the race after cancelling; restore the original slot so the
		// caller keeps their appointment.
		if _, rerr := d.calendar.CreateBooking(ctx, event.FromAddress, existing.SlotStart, existing.SlotEnd); rerr != nil {
			d.log.Warn(ctx, "failed to restore booking after reschedule race",
				logger.String("eventID", event.EventID),
				logger.Error(rerr),
			)
		}
		return d.conflict(ctx, event, start)
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("create booking: %w", err)
	}
	metrics.RecordBookingCreated()
	d.auditor.Record(ctx, event.EventID, audit.StageBookingCreated, updated.ExternalRef)
	d.log.Info(ctx, "booking rescheduled",
		logger.String("eventID", event.EventID),
		logger.String("oldRef", existing.ExternalRef),
		logger.String("newRef", updated.ExternalRef),
	)
	return respond(event, ActionBookingRescheduled, rescheduleText(existing, updated), updated.ExternalRef), nil
}

func (d *Dispatcher) upcomingBooking(ctx context.Context, attendee string) (model.Booking, error) {
	booking, err := d.calendar.FindBookingByAttendee(ctx, attendee, d.now())
	if errors.Is(err, collab.ErrBookingNotFound) {
		return model.Booking{}, ErrNoExistingBooking
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("find booking: %w", err)
	}
	return booking, nil
}
