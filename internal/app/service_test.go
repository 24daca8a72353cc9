package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/collab"
	service "github.com/frontdesk-labs/frontdesk/internal/app"
	"github.com/frontdesk-labs/frontdesk/internal/domain/admission"
	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/internal/domain/normalize"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func startService(t *testing.T, opts ...service.Option) (*service.Service, *collab.RecordingNotifier) {
	t.Helper()
	notifier := collab.NewRecordingNotifier()
	opts = append(opts, service.WithNotifier(notifier), service.WithWorkerCount(2))
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, notifier
}

func waitForTerminal(ctx context.Context, svc *service.Service, eventID string) (model.Record, bool) {
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-deadline:
			return model.Record{}, false
		case <-time.After(10 * time.Millisecond):
			rec, err := svc.Record(ctx, eventID)
			if err == nil && rec.Status.Terminal() {
				return rec, true
			}
		}
	}
}

func TestIngestLifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		svc, notifier := startService(t)

		Convey("When an SMS booking request arrives", func() {
			out, err := svc.Ingest(ctx, normalize.TextPayload{
				MessageSID: "SM100",
				From:       "+15550001111",
				To:         "+15557770000",
				Body:       "Please book me an appointment on 2026-09-03 at 14:00",
			})
			So(err, ShouldBeNil)

			Convey("Then it is admitted and completes with a booking", func() {
				So(out.Decision, ShouldEqual, admission.Admitted)
				So(out.EventID, ShouldEqual, "sms_SM100")

				rec, done := waitForTerminal(ctx, svc, "sms_SM100")
				So(done, ShouldBeTrue)
				So(rec.Status, ShouldEqual, model.StatusCompleted)
				So(rec.Result, ShouldNotBeNil)
				So(rec.Result.Action, ShouldEqual, "booking_created")
				So(rec.Result.ResourceRef, ShouldNotBeEmpty)

				Convey("And the response went back over the SMS channel", func() {
					sent := notifier.Sent()
					So(len(sent), ShouldEqual, 1)
					So(sent[0].Channel, ShouldEqual, model.ChannelText)
					So(sent[0].ToAddress, ShouldEqual, "+15550001111")
				})

				Convey("And the audit trail covers the whole lifecycle", func() {
					trail, err := svc.Trail(ctx, "sms_SM100")
					So(err, ShouldBeNil)
					So(len(trail), ShouldBeGreaterThanOrEqualTo, 5)
					So(string(trail[0].Stage), ShouldEqual, "received")
					last := trail[len(trail)-1]
					So(string(last.Stage), ShouldBeIn, "completed", "response_sent")
				})

				Convey("And a retried delivery replays the stored response verbatim", func() {
					replay, err := svc.Ingest(ctx, normalize.TextPayload{
						MessageSID: "SM100",
						From:       "+15550001111",
						To:         "+15557770000",
						Body:       "Please book me an appointment on 2026-09-03 at 14:00",
					})
					So(err, ShouldBeNil)
					So(replay.Decision, ShouldEqual, admission.AlreadyCompleted)
					So(replay.Response, ShouldNotBeNil)
					So(replay.Response.Text, ShouldEqual, rec.Result.Response.Text)

					Convey("And no second booking was made", func() {
						records, err := svc.Records(ctx, admission.Filter{})
						So(err, ShouldBeNil)
						So(len(records), ShouldEqual, 1)
						So(len(notifier.Sent()), ShouldEqual, 1)
					})
				})
			})
		})

		Convey("When a voice call arrives with a transcription", func() {
			out, err := svc.Ingest(ctx, normalize.VoicePayload{
				CallSID:           "CA200",
				From:              "+15550002222",
				To:                "+15557770000",
				TranscriptionText: "what are your hours?",
			})
			So(err, ShouldBeNil)
			So(out.EventID, ShouldEqual, "CA200")

			rec, done := waitForTerminal(ctx, svc, "CA200")
			So(done, ShouldBeTrue)
			So(rec.Status, ShouldEqual, model.StatusCompleted)
			So(rec.Result.Action, ShouldEqual, "faq_answered")
			So(rec.Channel, ShouldEqual, model.ChannelVoice)
		})

		Convey("When a chat message matches nothing", func() {
			out, err := svc.Ingest(ctx, normalize.ChatPayload{
				MessageID: "wamid.1",
				From:      "+15550003333",
				To:        "+15557770000",
				Text:      "zzzz",
			})
			So(err, ShouldBeNil)
			So(out.EventID, ShouldEqual, "chat_wamid.1")

			rec, done := waitForTerminal(ctx, svc, "chat_wamid.1")
			So(done, ShouldBeTrue)
			So(rec.Result.Action, ShouldEqual, "fallback")
		})

		Convey("When a voice call has no transcription", func() {
			_, err := svc.Ingest(ctx, normalize.VoicePayload{
				CallSID: "CA300",
				From:    "+15550004444",
			})

			Convey("Then ingestion fails and the failure is audited under the call id", func() {
				So(err, ShouldNotBeNil)
				So(err, ShouldWrap, normalize.ErrMissingTranscript)

				trail, terr := svc.Trail(ctx, "CA300")
				So(terr, ShouldBeNil)
				So(len(trail), ShouldEqual, 1)
				So(string(trail[0].Stage), ShouldEqual, "normalization_failed")
			})

			Convey("And a failed record with an apology reply is left behind", func() {
				rec, rerr := svc.Record(ctx, "CA300")
				So(rerr, ShouldBeNil)
				So(rec.Status, ShouldEqual, model.StatusFailed)
				So(rec.Reason, ShouldEqual, "missing_transcript")

				sent := notifier.Sent()
				So(len(sent), ShouldEqual, 1)
				So(sent[0].ToAddress, ShouldEqual, "+15550004444")
				So(sent[0].Channel, ShouldEqual, model.ChannelVoice)
			})
		})
	})
}

func TestIngestDuplicateWhileProcessing(t *testing.T) {
	Convey("Given a service whose dispatch is slow", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		svc, _ := startService(t,
			service.WithCalendarLatencyRange(200*time.Millisecond, 400*time.Millisecond),
		)

		payload := normalize.TextPayload{
			MessageSID: "SM900",
			From:       "+15550001111",
			Body:       "book me on 2026-09-04 at 10:00",
		}

		Convey("When a duplicate arrives mid-processing", func() {
			first, err := svc.Ingest(ctx, payload)
			So(err, ShouldBeNil)
			So(first.Decision, ShouldEqual, admission.Admitted)

			second, err := svc.Ingest(ctx, payload)
			So(err, ShouldBeNil)

			Convey("Then it is acknowledged without a second admission", func() {
				So(second.Decision, ShouldEqual, admission.AlreadyProcessing)
				So(second.Response, ShouldBeNil)

				Convey("And processing still converges to one completed record", func() {
					rec, done := waitForTerminal(ctx, svc, "sms_SM900")
					So(done, ShouldBeTrue)
					So(rec.Status, ShouldEqual, model.StatusCompleted)
					So(rec.Attempts, ShouldEqual, 1)
				})
			})
		})
	})
}

func TestRecordsFilter(t *testing.T) {
	Convey("Given a service with a few processed events", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()
		svc, _ := startService(t)

		ids := map[string]normalize.TextPayload{
			"sms_F1": {MessageSID: "F1", From: "+1", Body: "what are your hours?"},
			"sms_F2": {MessageSID: "F2", From: "+2", Body: "book me on 2026-09-05 at 09:00"},
		}
		for _, p := range ids {
			_, err := svc.Ingest(ctx, p)
			So(err, ShouldBeNil)
		}
		for id := range ids {
			_, done := waitForTerminal(ctx, svc, id)
			So(done, ShouldBeTrue)
		}

		Convey("When listing completed text records", func() {
			records, err := svc.Records(ctx, admission.Filter{
				Status:  model.StatusCompleted,
				Channel: model.ChannelText,
			})
			So(err, ShouldBeNil)
			So(len(records), ShouldEqual, 2)
		})

		Convey("When stats are queried", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["totalRecords"], ShouldEqual, 2)
		})
	})
}
