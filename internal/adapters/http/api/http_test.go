package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/proctor/internal/adapters/http/api"
	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/internal/phase"
	"github.com/okian/proctor/pkg/logger"
)

func init() {
	logger.Init()
}

// fakeDeps is a scripted Dependencies implementation for handler tests.
type fakeDeps struct {
	sessions map[string]session.Session
	events   map[string][]event.Event
	tracked  []event.Type

	submitErr  error
	analyzeErr error
	insights   insights.Insights
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		sessions: make(map[string]session.Session),
		events:   make(map[string][]event.Event),
	}
}

func (f *fakeDeps) CreateSession(_ context.Context, candidateName, problemID string) (session.Session, error) {
	sess := session.New(fmt.Sprintf("sess-%d", len(f.sessions)+1), candidateName, problemID, time.Now())
	f.sessions[sess.SessionID] = sess
	return sess, nil
}

func (f *fakeDeps) GetSession(_ context.Context, sessionID string) (session.Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return session.Session{}, repository.ErrNotFound
	}
	return sess, nil
}

func (f *fakeDeps) TrackEvent(_ context.Context, sessionID string, t event.Type, md event.Metadata) error {
	if _, ok := f.sessions[sessionID]; !ok {
		return repository.ErrNotFound
	}
	if !event.Known(t) {
		return fmt.Errorf("%w: %q", repository.ErrUnknownType, t)
	}
	f.tracked = append(f.tracked, t)
	f.events[sessionID] = append(f.events[sessionID], event.New(sessionID, t, md, time.Now()))
	return nil
}

func (f *fakeDeps) ListEvents(_ context.Context, sessionID string) ([]event.Event, error) {
	if _, ok := f.sessions[sessionID]; !ok {
		return nil, repository.ErrNotFound
	}
	return f.events[sessionID], nil
}

func (f *fakeDeps) Submit(_ context.Context, sessionID string) (session.Session, error) {
	if f.submitErr != nil {
		return session.Session{}, f.submitErr
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return session.Session{}, repository.ErrNotFound
	}
	sess.Phase = session.Interview
	f.sessions[sessionID] = sess
	return sess, nil
}

func (f *fakeDeps) Complete(_ context.Context, sessionID string) (session.Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return session.Session{}, repository.ErrNotFound
	}
	sess.Phase = session.Completed
	sess.Status = session.StatusCompleted
	f.sessions[sessionID] = sess
	return sess, nil
}

func (f *fakeDeps) Analyze(_ context.Context, sessionID string) (insights.Insights, error) {
	if f.analyzeErr != nil {
		return insights.Insights{}, f.analyzeErr
	}
	if _, ok := f.sessions[sessionID]; !ok {
		return insights.Insights{}, repository.ErrNotFound
	}
	return f.insights, nil
}

func newTestServer(deps api.Dependencies) *httptest.Server {
	return httptest.NewServer(api.NewServer(deps).Router())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b)) //nolint:noctx // test helper
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAPI_Sessions(t *testing.T) {
	convey.Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		convey.Convey("When creating a session", func() {
			resp := postJSON(t, srv.URL+"/sessions", map[string]string{
				"candidate_name": "Ada",
				"problem_id":     "warehouse-joins",
			})

			convey.Convey("Then it returns 201 with the new session", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
				sess := decodeBody[session.Session](t, resp)
				convey.So(sess.SessionID, convey.ShouldNotBeEmpty)
				convey.So(sess.Phase, convey.ShouldEqual, session.Coding)
			})
		})

		convey.Convey("When creating a session without a problem id", func() {
			resp := postJSON(t, srv.URL+"/sessions", map[string]string{"candidate_name": "Ada"})
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it returns 400", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			})
		})

		convey.Convey("When fetching an unknown session", func() {
			resp, err := http.Get(srv.URL + "/sessions/nope") //nolint:noctx // test
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it returns 404", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAPI_Events(t *testing.T) {
	convey.Convey("Given a session", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		sess, err := deps.CreateSession(context.Background(), "Ada", "warehouse-joins")
		convey.So(err, convey.ShouldBeNil)
		base := srv.URL + "/sessions/" + sess.SessionID

		convey.Convey("When posting a valid event", func() {
			resp := postJSON(t, base+"/events", map[string]any{
				"type":     "SQL_RUN",
				"metadata": map[string]any{"query": "SELECT 1"},
			})
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it is accepted and tracked", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)
				convey.So(deps.tracked, convey.ShouldResemble, []event.Type{event.SQLRun})
			})
		})

		convey.Convey("When posting an unknown event type", func() {
			resp := postJSON(t, base+"/events", map[string]any{"type": "NOT_A_THING"})
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it returns 400", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			})
		})

		convey.Convey("When listing events for a fresh session", func() {
			resp, err := http.Get(base + "/events") //nolint:noctx // test
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it returns an empty list, not null", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				body := decodeBody[map[string]json.RawMessage](t, resp)
				convey.So(string(body["events"]), convey.ShouldEqual, "[]")
			})
		})

		convey.Convey("When posting to an unknown session", func() {
			resp := postJSON(t, srv.URL+"/sessions/nope/events", map[string]any{"type": "SQL_RUN"})
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it returns 404", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestAPI_Transitions(t *testing.T) {
	convey.Convey("Given a session", t, func() {
		deps := newFakeDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		sess, err := deps.CreateSession(context.Background(), "Ada", "warehouse-joins")
		convey.So(err, convey.ShouldBeNil)
		base := srv.URL + "/sessions/" + sess.SessionID

		convey.Convey("When submitting", func() {
			resp := postJSON(t, base+"/submit", nil)

			convey.Convey("Then it returns the interview-phase session", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				got := decodeBody[session.Session](t, resp)
				convey.So(got.Phase, convey.ShouldEqual, session.Interview)
			})
		})

		convey.Convey("When submitting out of order", func() {
			deps.submitErr = phase.ErrInvalidTransition
			resp := postJSON(t, base+"/submit", nil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it returns 409", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusConflict)
			})
		})

		convey.Convey("When completing", func() {
			resp := postJSON(t, base+"/complete", nil)

			convey.Convey("Then it returns the completed session", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				got := decodeBody[session.Session](t, resp)
				convey.So(got.Status, convey.ShouldEqual, session.StatusCompleted)
			})
		})
	})
}

func TestAPI_Analyze(t *testing.T) {
	convey.Convey("Given a session with insights available", t, func() {
		deps := newFakeDeps()
		deps.insights = insights.Insights{
			OverallScore:        0.72,
			HireRecommendation:  insights.Hire,
			DimensionScores:     map[string]float64{insights.DimQueryQuality: 0.8},
			KeyStrengths:        []string{"solid joins"},
			AreasForImprovement: []string{},
			RedFlags:            []string{},
			StandoutMoments:     []string{},
			DetailedNarrative:   "Competent throughout.",
		}
		srv := newTestServer(deps)
		defer srv.Close()

		sess, err := deps.CreateSession(context.Background(), "Ada", "warehouse-joins")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When requesting analysis", func() {
			resp := postJSON(t, srv.URL+"/sessions/"+sess.SessionID+"/analyze", nil)

			convey.Convey("Then it returns the insights", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				got := decodeBody[insights.Insights](t, resp)
				convey.So(got.OverallScore, convey.ShouldEqual, 0.72)
				convey.So(got.HireRecommendation, convey.ShouldEqual, insights.Hire)
			})
		})
	})
}

func TestAPI_Health(t *testing.T) {
	convey.Convey("Given the API server", t, func() {
		srv := newTestServer(newFakeDeps())
		defer srv.Close()

		convey.Convey("When probing /healthz", func() {
			resp, err := http.Get(srv.URL + "/healthz") //nolint:noctx // test
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it reports ok", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				body := decodeBody[map[string]string](t, resp)
				convey.So(body["status"], convey.ShouldEqual, "ok")
			})
		})

		convey.Convey("When scraping /metrics", func() {
			resp, err := http.Get(srv.URL + "/metrics") //nolint:noctx // test
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it serves the Prometheus registry", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}
