// Package phase enforces the forward-only session state machine:
// coding -> interview -> completed. Transitions never skip (outside the
// explicit force-complete shortcut) and never reverse.
package phase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/pkg/logger"
	"github.com/okian/proctor/pkg/metrics"
)

// fallbackFirstQuestion is logged when the question service is unavailable;
// the transition itself never blocks on the collaborator.
const fallbackFirstQuestion = "What was your approach to solving this problem?"

// defaultQuestionTimeout caps how long a submit waits on the question
// service. The session lock is held across the call, so a hung collaborator
// would otherwise stall every event for that session.
const defaultQuestionTimeout = 10 * time.Second

// Tracker pushes events for a session through the telemetry pipeline, which
// preserves their enqueue order end to end.
type Tracker interface {
	Track(sessionID string, t event.Type, md event.Metadata) error
}

// QuestionService produces the opening interview question. It may fail;
// callers fall back to a canned question.
type QuestionService interface {
	FirstQuestion(ctx context.Context, qc QuestionContext) (string, error)
}

// QuestionContext is the session material the question service may draw on.
type QuestionContext struct {
	SessionID     string
	CandidateName string
	ProblemID     string
	Queries       []string
}

// Controller serializes phase transitions per session. A submit cannot
// interleave with concurrent event logging for the same session, so every
// event lands unambiguously on one side of the submitted_at boundary.
type Controller struct {
	sessions        repository.SessionStore
	events          repository.EventStore
	tracker         Tracker
	question        QuestionService
	questionTimeout time.Duration
	clock           func() time.Time
	log             logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithClock overrides the transition-time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the controller.
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithQuestionTimeout bounds the question-service call made during submit.
func WithQuestionTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.questionTimeout = d
		}
	}
}

// NewController wires the controller to its collaborators. question may be
// nil; the canned first question is used instead.
func NewController(sessions repository.SessionStore, events repository.EventStore, tracker Tracker, question QuestionService, opts ...Option) *Controller {
	c := &Controller{
		sessions:        sessions,
		events:          events,
		tracker:         tracker,
		question:        question,
		questionTimeout: defaultQuestionTimeout,
		clock:           time.Now,
		log:             logger.Get().Named("phase"),
		locks:           make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionLock returns the per-session mutex, creating it on first use.
// Event logging for a session takes the same lock as its transitions.
func (c *Controller) SessionLock(sessionID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sessionID] = l
	}
	return l
}

// Submit moves a coding-phase session into the interview phase. Atomically:
// phase flips, submitted_at is set once, PHASE_SUBMITTED then
// INTERVIEW_STARTED are emitted, and the first interview question follows as
// INTERVIEW_QUESTION. Any other starting phase fails with
// ErrInvalidTransition and has no side effect.
func (c *Controller) Submit(ctx context.Context, sessionID string) (session.Session, error) {
	l := c.SessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Phase != session.Coding {
		return session.Session{}, fmt.Errorf("%w: submit from %q", ErrInvalidTransition, sess.Phase)
	}

	now := c.clock()
	sess.Phase = session.Interview
	sess.SubmittedAt = &now
	if err := c.sessions.UpdatePhase(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("persist submit: %w", err)
	}
	metrics.RecordPhaseTransition(string(session.Interview))

	// Emitted in this fixed relative order; the FIFO pipeline preserves it.
	c.track(sessionID, event.PhaseSubmitted, nil)
	c.track(sessionID, event.InterviewStarted, nil)

	question := c.firstQuestion(ctx, sess)
	c.track(sessionID, event.InterviewQuestion, event.Metadata{"question": question})

	return sess, nil
}

// Complete finishes a session: normally from interview, or directly from
// coding when the session is abandoned or force-ended. Completing a
// completed session fails with ErrInvalidTransition.
func (c *Controller) Complete(ctx context.Context, sessionID string) (session.Session, error) {
	l := c.SessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Phase == session.Completed {
		return session.Session{}, fmt.Errorf("%w: complete from %q", ErrInvalidTransition, sess.Phase)
	}

	now := c.clock()
	forced := sess.Phase == session.Coding
	sess.Phase = session.Completed
	sess.CompletedAt = &now
	if forced {
		sess.Status = session.StatusAbandoned
	} else {
		sess.Status = session.StatusCompleted
	}
	if err := c.sessions.UpdatePhase(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("persist complete: %w", err)
	}
	metrics.RecordPhaseTransition(string(session.Completed))

	c.track(sessionID, event.SessionCompleted, event.Metadata{"forced": forced})
	return sess, nil
}

// firstQuestion asks the collaborator for an opening question, degrading to
// the canned one on any failure so the transition never blocks.
func (c *Controller) firstQuestion(ctx context.Context, sess session.Session) string {
	if c.question == nil {
		return fallbackFirstQuestion
	}
	qc := QuestionContext{
		SessionID:     sess.SessionID,
		CandidateName: sess.CandidateName,
		ProblemID:     sess.ProblemID,
		Queries:       c.recentQueries(ctx, sess.SessionID),
	}
	qctx, cancel := context.WithTimeout(ctx, c.questionTimeout)
	defer cancel()
	q, err := c.question.FirstQuestion(qctx, qc)
	if err != nil || q == "" {
		c.log.Warn(ctx, "question service unavailable, using fallback",
			logger.String("session_id", sess.SessionID), logger.Error(err))
		return fallbackFirstQuestion
	}
	return q
}

// recentQueries pulls the candidate's executed queries to ground the first
// question. Read failures just mean a less specific question.
func (c *Controller) recentQueries(ctx context.Context, sessionID string) []string {
	log, err := c.events.ListEvents(ctx, sessionID)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range log {
		if e.Type != event.SQLRun {
			continue
		}
		if q, ok := e.Metadata["query"].(string); ok && q != "" {
			out = append(out, q)
		}
	}
	const maxQueries = 5
	if len(out) > maxQueries {
		out = out[len(out)-maxQueries:]
	}
	return out
}

func (c *Controller) track(sessionID string, t event.Type, md event.Metadata) {
	if err := c.tracker.Track(sessionID, t, md); err != nil {
		c.log.Error(context.Background(), "failed to track transition event",
			logger.String("session_id", sessionID),
			logger.String("type", string(t)),
			logger.Error(err))
	}
}
