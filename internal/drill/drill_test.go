package drill_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/http/api"
	service "github.com/frontdesk-labs/frontdesk/internal/app"
	"github.com/frontdesk-labs/frontdesk/internal/drill"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDrillAgainstService(t *testing.T) {
	Convey("Given a running service", t, func() {
		So(logger.Init(), ShouldBeNil)
		svc := service.New(service.WithWorkerCount(4))
		So(svc.Start(context.Background()), ShouldBeNil)
		Reset(svc.Stop)

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		Reset(srv.Close)

		Convey("When the drill re-delivers every event", func() {
			report, err := drill.Run(context.Background(), &drill.Config{
				BaseURL:       srv.URL,
				NumEvents:     50,
				DuplicateRate: 1.0,
				Workers:       4,
				Timeout:       5 * time.Second,
			})
			So(err, ShouldBeNil)

			Convey("Then every duplicate is absorbed or replayed", func() {
				So(report.Sent, ShouldEqual, 100)
				So(report.Errors, ShouldEqual, 0)
				So(report.Mismatches, ShouldEqual, 0)
				So(report.Duplicates+report.Replays, ShouldEqual, 50)
			})
		})

		Convey("When the drill sends unique events only", func() {
			report, err := drill.Run(context.Background(), &drill.Config{
				BaseURL:       srv.URL,
				NumEvents:     20,
				DuplicateRate: 0,
				Workers:       2,
				Timeout:       5 * time.Second,
			})
			So(err, ShouldBeNil)
			So(report.Accepted, ShouldEqual, 20)
			So(report.Mismatches, ShouldEqual, 0)
		})
	})
}
