package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestRecordingHelpers(t *testing.T) {
	Convey("Given the package-level recording helpers", t, func() {
		Convey("When recording ingestion metrics", func() {
			So(func() {
				RecordEventReceived("voice")
				RecordEventReceived("sms")
				RecordEventDuplicate()
				RecordResultReplay()
				RecordNormalizationFailure("missing_transcript")
			}, ShouldNotPanic)
		})

		Convey("When recording classification metrics", func() {
			So(func() {
				RecordClassification("schedule")
				RecordClassification("unknown")
				RecordClassifierError()
				RecordClassifierLatency(42.0)
			}, ShouldNotPanic)
		})

		Convey("When recording dispatch and calendar metrics", func() {
			So(func() {
				RecordDispatchLatency(100.0)
				RecordDispatchFailure()
				RecordBookingCreated()
				RecordBookingConflict()
				RecordBookingCancelled()
				RecordFAQAnswered()
				RecordFAQEscalated()
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(12.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/webhooks/voice", "POST", "202")
				RecordHTTPRequestDuration("/webhooks/voice", "POST", "202", 5.0)
				RecordErrorByComponent("queue", "backpressure")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(20)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("When reading the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
