package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/repository"
	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func voiceEvent(id string) model.InboundEvent {
	return model.InboundEvent{
		EventID:     id,
		Channel:     model.ChannelVoice,
		FromAddress: "+15551230001",
		ToAddress:   "+15551230002",
		RawText:     "book me tomorrow at 2pm",
		ReceivedAt:  time.Now().UTC(),
	}
}

func TestMemStoreAdmission(t *testing.T) {
	Convey("Given a fresh admission store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()

		Convey("When admitting a never-seen event", func() {
			out, err := store.Admit(ctx, voiceEvent("call_1"))

			Convey("Then it is admitted with a fresh record", func() {
				So(err, ShouldBeNil)
				So(out.Decision, ShouldEqual, admission.Admitted)
				So(out.Attempts, ShouldEqual, 1)

				rec, err := store.Get(ctx, "call_1")
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, model.StatusAccepted)
				So(rec.Channel, ShouldEqual, model.ChannelVoice)
			})
		})

		Convey("When the same event is delivered again mid-processing", func() {
			_, err := store.Admit(ctx, voiceEvent("call_1"))
			So(err, ShouldBeNil)
			So(store.Begin(ctx, "call_1"), ShouldBeNil)

			out, err := store.Admit(ctx, voiceEvent("call_1"))

			Convey("Then the retry observes already_processing", func() {
				So(err, ShouldBeNil)
				So(out.Decision, ShouldEqual, admission.AlreadyProcessing)
			})
		})

		Convey("When the event has completed", func() {
			_, err := store.Admit(ctx, voiceEvent("call_1"))
			So(err, ShouldBeNil)
			So(store.Begin(ctx, "call_1"), ShouldBeNil)
			result := model.Result{
				Action:      "schedule",
				Response:    model.Response{Text: "booked", Channel: model.ChannelVoice, ToAddress: "+15551230001"},
				ResourceRef: "booking-1",
			}
			So(store.Complete(ctx, "call_1", result), ShouldBeNil)

			out, err := store.Admit(ctx, voiceEvent("call_1"))

			Convey("Then the retry replays the stored result verbatim", func() {
				So(err, ShouldBeNil)
				So(out.Decision, ShouldEqual, admission.AlreadyCompleted)
				So(out.Result, ShouldNotBeNil)
				So(*out.Result, ShouldResemble, result)
			})

			Convey("And the completed record is immutable", func() {
				err := store.Complete(ctx, "call_1", model.Result{Action: "faq"})
				So(errors.Is(err, admission.ErrInvalidTransition), ShouldBeTrue)

				err = store.Fail(ctx, "call_1", "late failure")
				So(errors.Is(err, admission.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When the event previously failed", func() {
			_, err := store.Admit(ctx, voiceEvent("call_1"))
			So(err, ShouldBeNil)
			So(store.Begin(ctx, "call_1"), ShouldBeNil)
			So(store.Fail(ctx, "call_1", "calendar unreachable"), ShouldBeNil)

			out, err := store.Admit(ctx, voiceEvent("call_1"))

			Convey("Then resubmission re-admits with a bumped attempt count", func() {
				So(err, ShouldBeNil)
				So(out.Decision, ShouldEqual, admission.Admitted)
				So(out.Attempts, ShouldEqual, 2)
			})
		})
	})
}

func TestMemStoreStaleness(t *testing.T) {
	Convey("Given a store with a short staleness threshold and a fake clock", t, func() {
		ctx := context.Background()
		var offset atomic.Int64
		base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		store := repository.NewMemStore(
			repository.WithStaleAfter(time.Minute),
			repository.WithClock(func() time.Time {
				return base.Add(time.Duration(offset.Load()))
			}),
		)

		_, err := store.Admit(ctx, voiceEvent("call_9"))
		So(err, ShouldBeNil)
		So(store.Begin(ctx, "call_9"), ShouldBeNil)

		Convey("When a duplicate arrives within the threshold", func() {
			offset.Store(int64(30 * time.Second))
			out, err := store.Admit(ctx, voiceEvent("call_9"))

			So(err, ShouldBeNil)
			So(out.Decision, ShouldEqual, admission.AlreadyProcessing)
		})

		Convey("When a duplicate arrives after the threshold", func() {
			offset.Store(int64(2 * time.Minute))
			out, err := store.Admit(ctx, voiceEvent("call_9"))

			Convey("Then the stuck record is re-admitted", func() {
				So(err, ShouldBeNil)
				So(out.Decision, ShouldEqual, admission.Admitted)
				So(out.Attempts, ShouldEqual, 2)
			})
		})
	})
}

func TestMemStoreRelease(t *testing.T) {
	Convey("Given an admitted first-attempt event", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		_, err := store.Admit(ctx, voiceEvent("call_2"))
		So(err, ShouldBeNil)

		Convey("When the admission is released", func() {
			So(store.Release(ctx, "call_2"), ShouldBeNil)

			Convey("Then the record is gone and the next delivery is admitted", func() {
				_, err := store.Get(ctx, "call_2")
				So(errors.Is(err, admission.ErrNotFound), ShouldBeTrue)

				out, err := store.Admit(ctx, voiceEvent("call_2"))
				So(err, ShouldBeNil)
				So(out.Decision, ShouldEqual, admission.Admitted)
				So(out.Attempts, ShouldEqual, 1)
			})
		})

		Convey("When releasing an in-progress record", func() {
			So(store.Begin(ctx, "call_2"), ShouldBeNil)
			err := store.Release(ctx, "call_2")

			Convey("Then the transition is rejected", func() {
				So(errors.Is(err, admission.ErrInvalidTransition), ShouldBeTrue)
			})
		})
	})
}

func TestMemStoreConcurrentAdmission(t *testing.T) {
	Convey("Given many concurrent deliveries of one event id", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore()
		const deliveries = 64

		var admitted atomic.Int64
		var wg sync.WaitGroup
		wg.Add(deliveries)
		for i := 0; i < deliveries; i++ {
			go func() {
				defer wg.Done()
				out, err := store.Admit(ctx, voiceEvent("call_race"))
				if err == nil && out.Decision == admission.Admitted {
					admitted.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one delivery wins admission", func() {
			So(admitted.Load(), ShouldEqual, 1)
			So(store.Count(ctx), ShouldEqual, 1)
		})
	})
}

func TestMemStoreList(t *testing.T) {
	Convey("Given a store with a mix of records", t, func() {
		ctx := context.Background()
		now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		tick := 0
		store := repository.NewMemStore(repository.WithClock(func() time.Time {
			tick++
			return now.Add(time.Duration(tick) * time.Second)
		}))

		for i := 0; i < 5; i++ {
			id := fmt.Sprintf("call_%d", i)
			_, err := store.Admit(ctx, voiceEvent(id))
			So(err, ShouldBeNil)
			So(store.Begin(ctx, id), ShouldBeNil)
		}
		So(store.Complete(ctx, "call_0", model.Result{Action: "faq"}), ShouldBeNil)
		So(store.Complete(ctx, "call_1", model.Result{Action: "schedule"}), ShouldBeNil)
		So(store.Fail(ctx, "call_2", "boom"), ShouldBeNil)

		Convey("When listing completed records", func() {
			out, err := store.List(ctx, admission.Filter{Status: model.StatusCompleted})
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, 2)
		})

		Convey("When listing by intent", func() {
			out, err := store.List(ctx, admission.Filter{Intent: "schedule"})
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, 1)
			So(out[0].EventID, ShouldEqual, "call_1")
		})

		Convey("When listing with a limit", func() {
			out, err := store.List(ctx, admission.Filter{Limit: 3})
			So(err, ShouldBeNil)
			So(len(out), ShouldEqual, 3)
		})
	})
}
