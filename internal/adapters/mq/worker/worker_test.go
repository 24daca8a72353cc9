package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	"github.com/frontdesk-labs/frontdesk/internal/adapters/mq/queue"
	"github.com/frontdesk-labs/frontdesk/internal/adapters/mq/worker"
	"github.com/frontdesk-labs/frontdesk/internal/adapters/repository"
	"github.com/frontdesk-labs/frontdesk/internal/audit"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDispatcher returns a fixed result or error.
type stubDispatcher struct {
	result model.Result
	err    error
}

func (s stubDispatcher) Dispatch(_ context.Context, event model.InboundEvent) (model.Result, error) {
	if s.err != nil {
		return model.Result{}, s.err
	}
	r := s.result
	r.Response.Channel = event.Channel
	r.Response.ToAddress = event.FromAddress
	return r, nil
}

func inbound(id string) model.InboundEvent {
	return model.InboundEvent{
		EventID:     id,
		Channel:     model.ChannelText,
		FromAddress: "+15550001111",
		RawText:     "book me",
		ReceivedAt:  time.Now().UTC(),
	}
}

func waitForStatus(ctx context.Context, store *repository.MemStore, eventID string, status model.Status) bool {
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
			rec, err := store.Get(ctx, eventID)
			if err == nil && rec.Status == status {
				return true
			}
		}
	}
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a worker over a queue, store and notifier", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		Reset(cancel)

		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		notifier := collab.NewRecordingNotifier()
		auditor := audit.NewRecorder(audit.NewMemSink())

		Convey("When dispatch succeeds", func() {
			d := stubDispatcher{result: model.Result{
				Action:   "booking_created",
				Response: model.Response{Text: "you're booked"},
			}}
			w := worker.NewInMemoryWorker(q, d, store, notifier, auditor)
			go w.Run(ctx)

			ev := inbound("sms_ok")
			_, err := store.Admit(ctx, ev)
			So(err, ShouldBeNil)
			So(q.Enqueue(ctx, ev), ShouldBeTrue)

			Convey("Then the record completes and the response goes out", func() {
				So(waitForStatus(ctx, store, "sms_ok", model.StatusCompleted), ShouldBeTrue)

				rec, err := store.Get(ctx, "sms_ok")
				So(err, ShouldBeNil)
				So(rec.Result, ShouldNotBeNil)
				So(rec.Result.Action, ShouldEqual, "booking_created")

				sent := notifier.Sent()
				So(len(sent), ShouldEqual, 1)
				So(sent[0].Text, ShouldEqual, "you're booked")
				So(sent[0].ToAddress, ShouldEqual, "+15550001111")
			})
		})

		Convey("When dispatch fails", func() {
			d := stubDispatcher{err: errors.New("calendar unavailable")}
			w := worker.NewInMemoryWorker(q, d, store, notifier, auditor)
			go w.Run(ctx)

			ev := inbound("sms_bad")
			_, err := store.Admit(ctx, ev)
			So(err, ShouldBeNil)
			So(q.Enqueue(ctx, ev), ShouldBeTrue)

			Convey("Then the record fails with the reason and nothing is sent", func() {
				So(waitForStatus(ctx, store, "sms_bad", model.StatusFailed), ShouldBeTrue)

				rec, err := store.Get(ctx, "sms_bad")
				So(err, ShouldBeNil)
				So(rec.Reason, ShouldContainSubstring, "calendar unavailable")
				So(len(notifier.Sent()), ShouldEqual, 0)
			})
		})

		Convey("When shutting down a worker", func() {
			d := stubDispatcher{result: model.Result{Action: "fallback"}}
			w := worker.NewInMemoryWorker(q, d, store, notifier, auditor)
			go w.Run(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			Convey("Then shutdown returns promptly", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx, cancel := context.WithCancel(context.Background())
		Reset(cancel)

		store := repository.NewMemStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		notifier := collab.NewRecordingNotifier()
		auditor := audit.NewRecorder(audit.NewMemSink())
		d := stubDispatcher{result: model.Result{Action: "faq_answered", Response: model.Response{Text: "9-5"}}}

		pool := worker.NewPool(4, q, d, store, notifier, auditor)
		pool.Start(ctx)

		Convey("When several admitted events are enqueued", func() {
			ids := []string{"a", "b", "c", "d", "e"}
			for _, id := range ids {
				ev := inbound(id)
				_, err := store.Admit(ctx, ev)
				So(err, ShouldBeNil)
				So(q.Enqueue(ctx, ev), ShouldBeTrue)
			}

			Convey("Then every record completes", func() {
				for _, id := range ids {
					So(waitForStatus(ctx, store, id, model.StatusCompleted), ShouldBeTrue)
				}
				So(len(notifier.Sent()), ShouldEqual, len(ids))
			})
		})

		Convey("When the pool is shut down with the queue", func() {
			So(pool.Shutdown(ctx, q), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
		})
	})
}
