package intent_test

import (
	"testing"

	"github.com/frontdesk-labs/frontdesk/internal/domain/intent"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseKind(t *testing.T) {
	Convey("Given classifier-provided kind strings", t, func() {
		Convey("Then known kinds should parse", func() {
			So(intent.ParseKind("schedule"), ShouldEqual, intent.KindSchedule)
			So(intent.ParseKind("faq"), ShouldEqual, intent.KindFAQ)
			So(intent.ParseKind("contact"), ShouldEqual, intent.KindContact)
			So(intent.ParseKind("cancel"), ShouldEqual, intent.KindCancel)
			So(intent.ParseKind("reschedule"), ShouldEqual, intent.KindReschedule)
		})

		Convey("And anything else should map to unknown", func() {
			So(intent.ParseKind("unknown"), ShouldEqual, intent.KindUnknown)
			So(intent.ParseKind("greeting"), ShouldEqual, intent.KindUnknown)
			So(intent.ParseKind(""), ShouldEqual, intent.KindUnknown)
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given an intent with extracted fields", t, func() {
		in := intent.Intent{
			Kind:       intent.KindSchedule,
			Confidence: 0.9,
			Fields: map[string]string{
				intent.SlotDate: "2025-06-02",
				intent.SlotTime: "",
			},
		}

		Convey("When reading a present field", func() {
			v, ok := in.Field(intent.SlotDate)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "2025-06-02")
		})

		Convey("When reading an empty field", func() {
			Convey("Then it should count as absent", func() {
				_, ok := in.Field(intent.SlotTime)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When reading a missing field", func() {
			_, ok := in.Field(intent.SlotEmail)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestApplyThreshold(t *testing.T) {
	Convey("Given a confidence threshold of 0.6", t, func() {
		Convey("When the intent clears the threshold", func() {
			in := intent.ApplyThreshold(intent.Intent{Kind: intent.KindSchedule, Confidence: 0.95}, 0.6)

			Convey("Then the kind is preserved", func() {
				So(in.Kind, ShouldEqual, intent.KindSchedule)
			})
		})

		Convey("When confidence falls below the threshold", func() {
			in := intent.ApplyThreshold(intent.Intent{
				Kind:       intent.KindSchedule,
				Confidence: 0.3,
				Fields:     map[string]string{intent.SlotDate: "2025-06-02"},
			}, 0.6)

			Convey("Then the kind is forced to unknown even with fields present", func() {
				So(in.Kind, ShouldEqual, intent.KindUnknown)
				So(in.Fields[intent.SlotDate], ShouldEqual, "2025-06-02")
			})
		})

		Convey("When confidence equals the threshold", func() {
			in := intent.ApplyThreshold(intent.Intent{Kind: intent.KindFAQ, Confidence: 0.6}, 0.6)
			So(in.Kind, ShouldEqual, intent.KindFAQ)
		})
	})
}
