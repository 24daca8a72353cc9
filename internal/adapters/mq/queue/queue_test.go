package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/mq/queue"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(id string) queue.Event {
	return model.InboundEvent{
		EventID:     id,
		Channel:     model.ChannelText,
		FromAddress: "+15550001111",
		RawText:     "hello",
		ReceivedAt:  time.Now().UTC(),
	}
}

func TestInMemoryQueue(t *testing.T) {
	Convey("Given an in-memory queue", t, func() {
		ctx := context.Background()

		Convey("When enqueuing within capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(4))

			So(q.Enqueue(ctx, event("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, event("b")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then dequeue yields events in order", func() {
				ch := q.Dequeue(ctx)
				first := <-ch
				second := <-ch
				So(first.EventID, ShouldEqual, "a")
				So(second.EventID, ShouldEqual, "b")
			})
		})

		Convey("When the queue is at capacity", func() {
			q := queue.NewInMemoryQueue(queue.WithCapacity(1))

			So(q.Enqueue(ctx, event("a")), ShouldBeTrue)

			Convey("Then further enqueues report backpressure", func() {
				So(q.Enqueue(ctx, event("b")), ShouldBeFalse)
			})
		})

		Convey("When the queue is closed", func() {
			q := queue.NewInMemoryQueue()
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected and close is idempotent", func() {
				So(q.Enqueue(ctx, event("a")), ShouldBeFalse)
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Close(), ShouldBeNil)
			})

			Convey("Then the dequeue channel drains and closes", func() {
				ch := q.Dequeue(ctx)
				_, open := <-ch
				So(open, ShouldBeFalse)
			})
		})
	})
}
