// Package dispatch routes an admitted event through classification to the
// action handler for its intent and produces the single result that the
// admission store will replay for duplicate deliveries.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/classifier"
	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// Action names recorded in results. Duplicate deliveries replay these
// verbatim, so renaming one changes what historical replays report.
const (
	ActionBookingCreated     = "booking_created"
	ActionBookingRescheduled = "booking_rescheduled"
	ActionBookingCancelled   = "booking_cancelled"
	ActionScheduleConflict   = "schedule_conflict"
	ActionClarify            = "clarify"
	ActionFAQAnswered        = "faq_answered"
	ActionFAQEscalated       = "faq_escalated"
	ActionContactSaved       = "contact_saved"
	ActionNoBooking          = "no_booking"
	ActionFallback           = "fallback"
)

const (
	defaultBookingDuration = time.Hour
	defaultMinConfidence   = 0.5
	defaultFAQThreshold    = 0.4
)

// Dispatcher owns the classify-route-execute pipeline for one event.
type Dispatcher struct {
	classifier classifier.Classifier
	calendar   collab.Calendar
	knowledge  collab.KnowledgeBase
	directory  collab.ContactDirectory
	auditor    *audit.Recorder
	log        logger.Logger

	minConfidence   float64
	faqThreshold    float64
	bookingDuration time.Duration
	location        *time.Location
	now             func() time.Time
}

// New creates a dispatcher over the given collaborators.
func New(cls classifier.Classifier, cal collab.Calendar, kb collab.KnowledgeBase, dir collab.ContactDirectory, auditor *audit.Recorder, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		classifier:      cls,
		calendar:        cal,
		knowledge:       kb,
		directory:       dir,
		auditor:         auditor,
		log:             logger.Get().Named("dispatch"),
		minConfidence:   defaultMinConfidence,
		faqThreshold:    defaultFAQThreshold,
		bookingDuration: defaultBookingDuration,
		location:        time.UTC,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch classifies the event, routes it to the handler for the intent,
// and returns the result to store and replay. An error means the event must
// be marked failed; clarification and conflict outcomes are successful
// results, not errors.
func (d *Dispatcher) Dispatch(ctx context.Context, event model.InboundEvent) (model.Result, error) {
	start := time.Now()
	result, err := d.dispatch(ctx, event)
	metrics.RecordDispatchLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordDispatchFailure()
	}
	return result, err
}

func (d *Dispatcher) dispatch(ctx context.Context, event model.InboundEvent) (model.Result, error) {
	classified := d.classifier.Classify(ctx, event.RawText, classifier.Meta{
		Channel:     event.Channel,
		FromAddress: event.FromAddress,
	})
	classified = intent.ApplyThreshold(classified, d.minConfidence)
	metrics.RecordClassification(string(classified.Kind))
	d.auditor.Record(ctx, event.EventID, audit.StageClassified,
		fmt.Sprintf("%s (%.2f)", classified.Kind, classified.Confidence))

	handler := d.route(classified.Kind)
	d.auditor.Record(ctx, event.EventID, audit.StageRouted, string(classified.Kind))

	result, err := handler(ctx, event, classified)
	if err != nil {
		return model.Result{}, fmt.Errorf("dispatch %s: %w", classified.Kind, err)
	}
	return result, nil
}

// handlerFunc executes one intent's side effects and builds the result.
type handlerFunc func(ctx context.Context, event model.InboundEvent, in intent.Intent) (model.Result, error)

func (d *Dispatcher) route(kind intent.Kind) handlerFunc {
	switch kind {
	case intent.KindSchedule:
		return d.handleSchedule
	case intent.KindFAQ:
		return d.handleFAQ
	case intent.KindContact:
		return d.handleContact
	case intent.KindCancel:
		return d.handleCancel
	case intent.KindReschedule:
		return d.handleReschedule
	}
	return d.handleUnknown
}

// respond builds a result whose response goes back over the event's channel.
func respond(event model.InboundEvent, action, text, resourceRef string) model.Result {
	return model.Result{
		Action:      action,
		ResourceRef: resourceRef,
		Response: model.Response{
			Text:      text,
			Channel:   event.Channel,
			ToAddress: event.FromAddress,
		},
	}
}
