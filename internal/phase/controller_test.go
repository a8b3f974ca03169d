package phase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/internal/phase"
	"github.com/okian/proctor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// recordingTracker captures tracked events in order.
type recordingTracker struct {
	mu      sync.Mutex
	tracked []event.Type
	meta    []event.Metadata
}

func (r *recordingTracker) Track(_ string, t event.Type, md event.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked = append(r.tracked, t)
	r.meta = append(r.meta, md)
	return nil
}

func (r *recordingTracker) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.tracked))
	copy(out, r.tracked)
	return out
}

// stubQuestions returns a fixed question or an error.
type stubQuestions struct {
	question string
	err      error
}

func (s *stubQuestions) FirstQuestion(context.Context, phase.QuestionContext) (string, error) {
	return s.question, s.err
}

// hangingQuestions blocks until the passed context is cancelled.
type hangingQuestions struct{}

func (h *hangingQuestions) FirstQuestion(ctx context.Context, _ phase.QuestionContext) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newFixture(q phase.QuestionService) (*repository.MemoryStore, *recordingTracker, *phase.Controller) {
	store := repository.NewMemoryStore()
	tracker := &recordingTracker{}
	ctrl := phase.NewController(store, store, tracker, q)
	return store, tracker, ctrl
}

func TestSubmit(t *testing.T) {
	Convey("Given a coding-phase session", t, func() {
		ctx := context.Background()
		store, tracker, ctrl := newFixture(&stubQuestions{question: "Why a LEFT JOIN here?"})
		So(store.CreateSession(ctx, session.New("s1", "Ada", "p1", time.Now())), ShouldBeNil)

		Convey("When submitted", func() {
			sess, err := ctrl.Submit(ctx, "s1")

			Convey("Then the phase flips and submitted_at is set", func() {
				So(err, ShouldBeNil)
				So(sess.Phase, ShouldEqual, session.Interview)
				So(sess.SubmittedAt, ShouldNotBeNil)
			})

			Convey("And the transition events are emitted in fixed order", func() {
				So(tracker.types(), ShouldResemble, []event.Type{
					event.PhaseSubmitted, event.InterviewStarted, event.InterviewQuestion,
				})
				So(tracker.meta[2]["question"], ShouldEqual, "Why a LEFT JOIN here?")
			})

			Convey("And a second submit fails with no side effects", func() {
				before := tracker.types()
				_, err := ctrl.Submit(ctx, "s1")
				So(errors.Is(err, phase.ErrInvalidTransition), ShouldBeTrue)

				got, gerr := store.GetSession(ctx, "s1")
				So(gerr, ShouldBeNil)
				So(got.Phase, ShouldEqual, session.Interview)
				So(got.SubmittedAt.Equal(*sess.SubmittedAt), ShouldBeTrue)
				So(tracker.types(), ShouldResemble, before)
			})
		})

		Convey("When the question service hangs", func() {
			s3store := repository.NewMemoryStore()
			s3tracker := &recordingTracker{}
			s3ctrl := phase.NewController(s3store, s3store, s3tracker, &hangingQuestions{},
				phase.WithQuestionTimeout(20*time.Millisecond),
			)
			So(s3store.CreateSession(ctx, session.New("s3", "Ada", "p1", time.Now())), ShouldBeNil)

			start := time.Now()
			_, err := s3ctrl.Submit(ctx, "s3")

			Convey("Then submit returns promptly with the placeholder question", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
				So(s3tracker.types(), ShouldResemble, []event.Type{
					event.PhaseSubmitted, event.InterviewStarted, event.InterviewQuestion,
				})
				So(s3tracker.meta[2]["question"], ShouldEqual, "What was your approach to solving this problem?")
			})
		})

		Convey("When the question service fails", func() {
			s2store, s2tracker, s2ctrl := newFixture(&stubQuestions{err: errors.New("rate limited")})
			So(s2store.CreateSession(ctx, session.New("s2", "Ada", "p1", time.Now())), ShouldBeNil)
			_, err := s2ctrl.Submit(ctx, "s2")

			Convey("Then the transition still completes with a placeholder question", func() {
				So(err, ShouldBeNil)
				So(s2tracker.types(), ShouldResemble, []event.Type{
					event.PhaseSubmitted, event.InterviewStarted, event.InterviewQuestion,
				})
				q, ok := s2tracker.meta[2]["question"].(string)
				So(ok, ShouldBeTrue)
				So(q, ShouldNotBeEmpty)
			})
		})
	})
}

func TestComplete(t *testing.T) {
	Convey("Given sessions in various phases", t, func() {
		ctx := context.Background()

		Convey("When completing from interview", func() {
			store, tracker, ctrl := newFixture(nil)
			So(store.CreateSession(ctx, session.New("s1", "Ada", "p1", time.Now())), ShouldBeNil)
			_, err := ctrl.Submit(ctx, "s1")
			So(err, ShouldBeNil)

			sess, err := ctrl.Complete(ctx, "s1")

			Convey("Then the session is completed normally", func() {
				So(err, ShouldBeNil)
				So(sess.Phase, ShouldEqual, session.Completed)
				So(sess.Status, ShouldEqual, session.StatusCompleted)
				So(tracker.types()[len(tracker.types())-1], ShouldEqual, event.SessionCompleted)
			})

			Convey("And completing again fails", func() {
				_, err := ctrl.Complete(ctx, "s1")
				So(errors.Is(err, phase.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When force-completing straight from coding", func() {
			store, _, ctrl := newFixture(nil)
			So(store.CreateSession(ctx, session.New("s1", "Ada", "p1", time.Now())), ShouldBeNil)

			sess, err := ctrl.Complete(ctx, "s1")

			Convey("Then the session is marked abandoned", func() {
				So(err, ShouldBeNil)
				So(sess.Phase, ShouldEqual, session.Completed)
				So(sess.Status, ShouldEqual, session.StatusAbandoned)
				So(sess.SubmittedAt, ShouldBeNil)
			})
		})

		Convey("When completing an unknown session", func() {
			_, _, ctrl := newFixture(nil)
			_, err := ctrl.Complete(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}
