// Package service provides the core business service that implements
// the dependencies required by the HTTP API: webhook ingestion through
// admission and enqueueing, plus the read-side accessors.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/classifier"
	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	eventqueue "github.com/frontdesk-labs/frontdesk/internal/adapters/mq/queue"
	workerpool "github.com/frontdesk-labs/frontdesk/internal/adapters/mq/worker"
	"github.com/frontdesk-labs/frontdesk/internal/adapters/repository"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/dispatch"
	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/internal/domain/normalize"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	"github.com/frontdesk-labs/frontdesk/pkg/metrics"
)

// IngestOutcome is what the webhook layer needs to acknowledge a delivery.
type IngestOutcome struct {
	EventID  string
	Decision admission.Decision
	Attempts int

	// Response is set only for AlreadyCompleted: the stored result's
	// response, replayed verbatim.
	Response *model.Response
}

// Service implements the API dependencies for the front desk system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      admission.Store
	auditor    *audit.Recorder
	eventQueue eventqueue.Queue
	dispatcher *dispatch.Dispatcher
	workerPool *workerpool.Pool
	notifier   collab.Notifier
	calendar   collab.Calendar
	knowledge  *collab.InMemoryKnowledgeBase
	directory  collab.ContactDirectory
	pgStore    *repository.PostgresStore

	// Configuration
	workerCount        int
	queueSize          int
	databaseURL        string
	staleAfter         time.Duration
	classifierURL      string
	classifierTimeout  time.Duration
	minConfidence      float64
	faqThreshold       float64
	bookingDuration    time.Duration
	timezone           string
	dispatchDeadline   time.Duration
	calendarMinLatency time.Duration
	calendarMaxLatency time.Duration

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU() * 4,
		queueSize:         10_000,
		staleAfter:        5 * time.Minute,
		classifierTimeout: 3 * time.Second,
		minConfidence:     0.5,
		faqThreshold:      0.4,
		bookingDuration:   time.Hour,
		timezone:          "UTC",
		dispatchDeadline:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting front desk service...")

	if err := s.initStore(ctx); err != nil {
		return err
	}

	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithBufferSize(s.queueSize),
	)

	var cls classifier.Classifier
	if s.classifierURL != "" {
		cls = classifier.NewHTTPClassifier(s.classifierURL,
			classifier.WithTimeout(s.classifierTimeout),
		)
		s.logger.Info(ctx, "using HTTP classifier", logger.String("url", s.classifierURL))
	} else {
		cls = classifier.NewRulesClassifier()
		s.logger.Info(ctx, "using keyword rules classifier")
	}

	if s.calendar == nil {
		var calOpts []collab.CalendarOption
		if s.calendarMaxLatency > 0 {
			calOpts = append(calOpts, collab.WithCalendarLatency(s.calendarMinLatency, s.calendarMaxLatency))
		}
		s.calendar = collab.NewInMemoryCalendar(calOpts...)
	}
	if s.knowledge == nil {
		s.knowledge = defaultKnowledgeBase()
	}
	if s.directory == nil {
		s.directory = collab.NewInMemoryDirectory()
	}
	if s.notifier == nil {
		s.notifier = collab.NewLogNotifier()
	}

	loc, err := time.LoadLocation(s.timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.timezone, err)
	}

	s.dispatcher = dispatch.New(cls, s.calendar, s.knowledge, s.directory, s.auditor,
		dispatch.WithMinConfidence(s.minConfidence),
		dispatch.WithFAQThreshold(s.faqThreshold),
		dispatch.WithBookingDuration(s.bookingDuration),
		dispatch.WithLocation(loc),
	)

	workerCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.dispatcher, s.store, s.notifier, s.auditor,
		workerpool.WithDispatchDeadline(s.dispatchDeadline),
	)
	s.workerPool.Start(workerCtx)

	s.started = true
	s.logger.Info(ctx, "front desk service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("durable", s.databaseURL != ""),
	)
	return nil
}

// initStore selects the Postgres store when a database URL is configured and
// the in-memory store otherwise. The audit sink shares the store's backend.
func (s *Service) initStore(ctx context.Context) error {
	if s.store != nil {
		if s.auditor == nil {
			s.auditor = audit.NewRecorder(audit.NewMemSink())
		}
		return nil
	}

	if s.databaseURL == "" {
		s.store = repository.NewMemStore(repository.WithStaleAfter(s.staleAfter))
		s.auditor = audit.NewRecorder(audit.NewMemSink())
		s.logger.Info(ctx, "using in-memory admission store")
		return nil
	}

	pg, err := repository.NewPostgresStore(ctx, s.databaseURL, s.staleAfter)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	s.pgStore = pg
	s.store = pg
	s.auditor = audit.NewRecorder(audit.NewPostgresSink(pg.Pool()))
	s.logger.Info(ctx, "using postgres admission store")
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping front desk service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx, s.eventQueue)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.pgStore != nil {
		s.pgStore.Close()
	}

	s.started = false
	s.logger.Info(ctx, "front desk service stopped")
}

// Ingest runs the synchronous half of the pipeline: normalize, audit, admit,
// enqueue. It returns quickly so webhook handlers can acknowledge inside the
// provider's timeout; classification and side effects happen on the workers.
func (s *Service) Ingest(ctx context.Context, payload any) (IngestOutcome, error) {
	event, err := normalize.Normalize(payload)
	if err != nil {
		reason := normalizationReason(err)
		metrics.RecordNormalizationFailure(reason)
		if stub, ok := failureStub(payload); ok {
			s.auditor.Record(ctx, stub.EventID, audit.StageNormalizationFailed, reason)
			s.recordTerminalFailure(ctx, stub, reason)
		}
		return IngestOutcome{}, err
	}

	metrics.RecordEventReceived(string(event.Channel))
	s.auditor.Record(ctx, event.EventID, audit.StageReceived, string(event.Channel))

	outcome, err := s.store.Admit(ctx, event)
	if err != nil {
		return IngestOutcome{}, fmt.Errorf("admit %s: %w", event.EventID, err)
	}

	out := IngestOutcome{
		EventID:  event.EventID,
		Decision: outcome.Decision,
		Attempts: outcome.Attempts,
	}

	switch outcome.Decision {
	case admission.AlreadyCompleted:
		metrics.RecordEventDuplicate()
		metrics.RecordResultReplay()
		s.auditor.Record(ctx, event.EventID, audit.StageReplayed, outcome.Result.Action)
		resp := outcome.Result.Response
		out.Response = &resp
		return out, nil

	case admission.AlreadyProcessing:
		metrics.RecordEventDuplicate()
		s.auditor.Record(ctx, event.EventID, audit.StageDuplicate, "")
		return out, nil
	}

	s.auditor.Record(ctx, event.EventID, audit.StageAdmitted, "")

	if !s.eventQueue.Enqueue(ctx, event) {
		// Undo the admission so the provider retry is admitted cleanly.
		if rerr := s.store.Release(ctx, event.EventID); rerr != nil {
			s.logger.Error(ctx, "failed to release admission after backpressure",
				logger.String("eventID", event.EventID),
				logger.Error(rerr),
			)
		}
		return IngestOutcome{}, fmt.Errorf("%w: %s", ErrBackpressure, event.EventID)
	}
	return out, nil
}

// Trail returns the audit trail for an event id.
func (s *Service) Trail(ctx context.Context, eventID string) ([]audit.Entry, error) {
	return s.auditor.Trail(ctx, eventID)
}

// Record returns one processing record.
func (s *Service) Record(ctx context.Context, eventID string) (model.Record, error) {
	return s.store.Get(ctx, eventID)
}

// Records lists processing records matching the filter.
func (s *Service) Records(ctx context.Context, filter admission.Filter) ([]model.Record, error) {
	return s.store.List(ctx, filter)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		totalRecords := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalRecords"] = totalRecords

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRecordsTotal(totalRecords)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

func normalizationReason(err error) string {
	switch {
	case errors.Is(err, normalize.ErrMissingTranscript):
		return "missing_transcript"
	case errors.Is(err, normalize.ErrMissingProviderID):
		return "missing_provider_id"
	case errors.Is(err, normalize.ErrUnsupportedChannel):
		return "unsupported_channel"
	}
	return "invalid_payload"
}

// apologyText is the generic reply sent when a delivery cannot be processed
// at all but the sender address is known.
const apologyText = "Sorry, we couldn't process your message. Please call us directly and we'll be happy to help."

// failureStub recovers the deterministic event id and addressing from a
// payload that failed normalization, so the failure still lands on the right
// trail and record.
func failureStub(payload any) (model.InboundEvent, bool) {
	stub := model.InboundEvent{ReceivedAt: time.Now().UTC()}
	switch p := payload.(type) {
	case normalize.VoicePayload:
		stub.EventID = p.CallSID
		stub.Channel = model.ChannelVoice
		stub.FromAddress = p.From
	case normalize.TextPayload:
		if p.MessageSID != "" {
			stub.EventID = "sms_" + p.MessageSID
		}
		stub.Channel = model.ChannelText
		stub.FromAddress = p.From
	case normalize.ChatPayload:
		if p.MessageID != "" {
			stub.EventID = "chat_" + p.MessageID
		}
		stub.Channel = model.ChannelChat
		stub.FromAddress = p.From
	}
	return stub, stub.EventID != ""
}

// recordTerminalFailure marks an unprocessable delivery as a Failed record so
// the query surface shows it, and sends a generic apology when the sender
// address is known. Retried deliveries of the same id short-circuit at Admit.
func (s *Service) recordTerminalFailure(ctx context.Context, stub model.InboundEvent, reason string) {
	outcome, err := s.store.Admit(ctx, stub)
	if err != nil || outcome.Decision != admission.Admitted {
		return
	}
	if err := s.store.Fail(ctx, stub.EventID, reason); err != nil {
		s.logger.Warn(ctx, "failed to finalize unprocessable event",
			logger.String("eventID", stub.EventID),
			logger.Error(err),
		)
		return
	}
	if stub.FromAddress == "" {
		return
	}
	resp := model.Response{
		Text:      apologyText,
		Channel:   stub.Channel,
		ToAddress: stub.FromAddress,
	}
	if err := s.notifier.Send(ctx, resp); err != nil {
		metrics.RecordNotifierError()
	}
}

// defaultKnowledgeBase seeds the practice FAQ entries served when no external
// knowledge source is wired in.
func defaultKnowledgeBase() *collab.InMemoryKnowledgeBase {
	kb := collab.NewInMemoryKnowledgeBase()
	kb.Add("We are open 9am-5pm Monday through Friday, and 10am-2pm on Saturdays.", "hours", "open")
	kb.Add("We are at 100 Main Street, second floor.", "where", "address", "located")
	kb.Add("A standard visit costs $80; follow-ups are $50.", "price", "cost", "charge")
	kb.Add("Street parking is free for two hours; there is also a garage next door.", "parking")
	kb.Add("We accept most major insurance plans. Bring your card to your first visit.", "insurance")
	return kb
}
