package normalize_test

import (
	"errors"
	"testing"

	"github.com/frontdesk-labs/frontdesk/internal/domain/model"
	"github.com/frontdesk-labs/frontdesk/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizeVoice(t *testing.T) {
	Convey("Given a voice payload", t, func() {
		p := normalize.VoicePayload{
			CallSID:           "CA1234",
			From:              "+15551230001",
			To:                "+15551230002",
			TranscriptionText: "book me tomorrow at 2pm",
		}

		Convey("When normalizing", func() {
			ev, err := normalize.Normalize(p)

			Convey("Then the event id comes from the call SID", func() {
				So(err, ShouldBeNil)
				So(ev.EventID, ShouldEqual, "CA1234")
				So(ev.Channel, ShouldEqual, model.ChannelVoice)
				So(ev.FromAddress, ShouldEqual, "+15551230001")
				So(ev.RawText, ShouldEqual, "book me tomorrow at 2pm")
				So(ev.ReceivedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When normalizing the same payload twice", func() {
			a, err1 := normalize.Normalize(p)
			b, err2 := normalize.Normalize(p)

			Convey("Then both derive the same event id", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(a.EventID, ShouldEqual, b.EventID)
			})
		})

		Convey("When the transcription is empty", func() {
			p.TranscriptionText = "   "
			_, err := normalize.Normalize(p)

			Convey("Then it fails with the missing-transcript kind", func() {
				So(errors.Is(err, normalize.ErrMissingTranscript), ShouldBeTrue)
			})
		})

		Convey("When the call SID is absent", func() {
			p.CallSID = ""
			_, err := normalize.Normalize(p)
			So(errors.Is(err, normalize.ErrMissingProviderID), ShouldBeTrue)
		})
	})
}

func TestNormalizeText(t *testing.T) {
	Convey("Given an SMS payload", t, func() {
		p := normalize.TextPayload{
			MessageSID: "SM9876",
			From:       "+15551230003",
			To:         "+15551230002",
			Body:       "what are your hours",
		}

		Convey("When normalizing", func() {
			ev, err := normalize.Normalize(p)

			Convey("Then the event id is prefixed with sms_", func() {
				So(err, ShouldBeNil)
				So(ev.EventID, ShouldEqual, "sms_SM9876")
				So(ev.Channel, ShouldEqual, model.ChannelText)
			})
		})

		Convey("When the body is empty", func() {
			p.Body = ""
			_, err := normalize.Normalize(p)
			So(errors.Is(err, normalize.ErrMissingTranscript), ShouldBeTrue)
		})
	})
}

func TestNormalizeChat(t *testing.T) {
	Convey("Given a chat payload", t, func() {
		p := normalize.ChatPayload{
			MessageID: "wamid.123",
			From:      "user-1",
			To:        "business-1",
			Text:      "hi, I want to reschedule",
		}

		Convey("When normalizing", func() {
			ev, err := normalize.Normalize(p)

			So(err, ShouldBeNil)
			So(ev.EventID, ShouldEqual, "chat_wamid.123")
			So(ev.Channel, ShouldEqual, model.ChannelChat)
		})
	})
}

func TestNormalizeUnsupported(t *testing.T) {
	Convey("Given a payload of an unknown shape", t, func() {
		_, err := normalize.Normalize(struct{ X int }{X: 1})

		Convey("Then it fails with the unsupported-channel kind", func() {
			So(errors.Is(err, normalize.ErrUnsupportedChannel), ShouldBeTrue)
		})
	})
}
