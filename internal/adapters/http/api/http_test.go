package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/frontdesk-labs/frontdesk/internal/adapters/http/api"
	service "github.com/frontdesk-labs/frontdesk/internal/app"
	"github.com/frontdesk-labs/frontdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithWorkerCount(2))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postForm(srv *httptest.Server, path string, form url.Values) (*http.Response, map[string]any) {
	resp, err := http.PostForm(srv.URL+path, form)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func getJSON(srv *httptest.Server, path string) (*http.Response, map[string]any) {
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func waitForCompleted(srv *httptest.Server, eventID string) bool {
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
			resp, body := getJSON(srv, "/records/"+eventID)
			if resp != nil && resp.StatusCode == http.StatusOK && body["status"] == "completed" {
				return true
			}
		}
	}
}

func TestWebhookEndpoints(t *testing.T) {
	Convey("Given a running API server", t, func() {
		So(logger.Init(), ShouldBeNil)
		srv := startServer(t)

		Convey("When an SMS webhook is delivered", func() {
			form := url.Values{
				"MessageSid": {"SMapi1"},
				"From":       {"+15550001111"},
				"To":         {"+15557770000"},
				"Body":       {"book me on 2026-09-10 at 15:00"},
			}
			resp, body := postForm(srv, "/webhooks/sms", form)

			Convey("Then it is acknowledged as accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["status"], ShouldEqual, "accepted")
				So(body["event_id"], ShouldEqual, "sms_SMapi1")
			})

			Convey("Then a retried delivery after completion replays the reply", func() {
				So(waitForCompleted(srv, "sms_SMapi1"), ShouldBeTrue)

				resp, body := postForm(srv, "/webhooks/sms", form)
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				So(body["status"], ShouldEqual, "replayed")
				So(body["reply"], ShouldNotBeEmpty)
			})
		})

		Convey("When a voice webhook arrives without a transcription", func() {
			resp, body := postForm(srv, "/webhooks/voice", url.Values{
				"CallSid": {"CAapi1"},
				"From":    {"+15550002222"},
			})

			Convey("Then it is rejected as invalid", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "invalid_payload")
			})
		})

		Convey("When a chat webhook is delivered as JSON", func() {
			payload := `{"message_id":"wamid.api1","from":"+15550003333","to":"+15557770000","text":"what are your hours?"}`
			resp, err := http.Post(srv.URL+"/webhooks/chat", "application/json", strings.NewReader(payload))
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var body map[string]any
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
			So(body["event_id"], ShouldEqual, "chat_wamid.api1")
		})

		Convey("When a chat webhook carries malformed JSON", func() {
			resp, err := http.Post(srv.URL+"/webhooks/chat", "application/json", strings.NewReader("{nope"))
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestReadEndpoints(t *testing.T) {
	Convey("Given a server with one processed event", t, func() {
		So(logger.Init(), ShouldBeNil)
		srv := startServer(t)

		_, ack := postForm(srv, "/webhooks/sms", url.Values{
			"MessageSid": {"SMread1"},
			"From":       {"+15550001111"},
			"Body":       {"cancel my appointment"},
		})
		So(ack["status"], ShouldEqual, "accepted")
		So(waitForCompleted(srv, "sms_SMread1"), ShouldBeTrue)

		Convey("When fetching the audit trail", func() {
			resp, body := getJSON(srv, "/audit/sms_SMread1")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			trail, ok := body["trail"].([]any)
			So(ok, ShouldBeTrue)
			So(len(trail), ShouldBeGreaterThanOrEqualTo, 4)
		})

		Convey("When fetching an unknown trail", func() {
			resp, _ := getJSON(srv, "/audit/nope")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When fetching the record", func() {
			resp, body := getJSON(srv, "/records/sms_SMread1")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["event_id"], ShouldEqual, "sms_SMread1")
			So(body["channel"], ShouldEqual, "text")
		})

		Convey("When fetching an unknown record", func() {
			resp, _ := getJSON(srv, "/records/nope")
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("When listing records with a status filter", func() {
			resp, body := getJSON(srv, "/records?status=completed")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["count"], ShouldEqual, 1.0)
		})

		Convey("When listing with an invalid limit", func() {
			resp, _ := getJSON(srv, "/records?limit=zero")
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When querying stats", func() {
			resp, body := getJSON(srv, "/stats")
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldBeTrue)
		})

		Convey("When scraping metrics", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})
	})
}
