package logger

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := Get()

			Convey("Then it should not be nil", func() {
				So(l, ShouldNotBeNil)
			})

			Convey("And logging at all levels should not panic", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug message", String("k", "v"))
					l.Info(ctx, "info message", Int("n", 1))
					l.Warn(ctx, "warn message", Float64("f", 1.5))
					l.Error(ctx, "error message", Error(nil))
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			l := Named("dispatch")

			Convey("Then it should be usable", func() {
				So(l, ShouldNotBeNil)
				So(func() { l.Info(context.Background(), "named") }, ShouldNotPanic)
			})
		})

		Convey("When setting levels from strings", func() {
			Convey("Then known levels should parse", func() {
				So(SetLevelString("debug"), ShouldBeNil)
				So(SetLevelString("info"), ShouldBeNil)
				So(SetLevelString("warning"), ShouldBeNil)
				So(SetLevelString("ERROR"), ShouldBeNil)
				So(SetLevelString(""), ShouldBeNil)
			})

			Convey("And unknown levels should error", func() {
				So(SetLevelString("verbose"), ShouldNotBeNil)
			})
		})
	})
}
