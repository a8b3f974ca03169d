// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/proctor/internal/adapters/repository"
	"github.com/okian/proctor/internal/analyzer"
	"github.com/okian/proctor/internal/domain/classify"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/internal/phase"
	"github.com/okian/proctor/internal/telemetry"
	"github.com/okian/proctor/pkg/logger"
)

// Service wires the event pipeline, phase controller and analyzer behind a
// single facade. Each session gets its own telemetry client so delivery
// order is preserved per session without cross-session contention.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	controller *phase.Controller
	analyzer   *analyzer.Analyzer
	clients    map[string]*telemetry.Client

	// Collaborators, nil when no backend is configured
	question phase.QuestionService
	synth    analyzer.Synthesizer

	// Configuration
	idleThreshold    time.Duration
	retryBackoff     time.Duration
	excerptMaxLen    int
	snippetMaxCount  int
	synthesisTimeout time.Duration
	questionTimeout  time.Duration
	scorerOpts       []insights.Option
	clock            func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to the in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithQuestionService sets the interview question collaborator.
func WithQuestionService(q phase.QuestionService) Option {
	return func(s *Service) {
		s.question = q
	}
}

// WithSynthesizer sets the insight synthesis collaborator.
func WithSynthesizer(syn analyzer.Synthesizer) Option {
	return func(s *Service) {
		s.synth = syn
	}
}

// WithIdleThreshold sets the inactivity gap before an idle event fires.
func WithIdleThreshold(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleThreshold = d
		}
	}
}

// WithRetryBackoff sets the delay between failed delivery attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryBackoff = d
		}
	}
}

// WithExcerptMaxLen caps query excerpts in derived event metadata.
func WithExcerptMaxLen(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.excerptMaxLen = n
		}
	}
}

// WithSnippetMaxCount caps query snippets in the analysis context.
func WithSnippetMaxCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snippetMaxCount = n
		}
	}
}

// WithSynthesisTimeout bounds a single synthesis call.
func WithSynthesisTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.synthesisTimeout = d
		}
	}
}

// WithQuestionTimeout bounds the question-service call made during submit.
func WithQuestionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.questionTimeout = d
		}
	}
}

// WithScorerOptions forwards tuning options to the rule-based scorer.
func WithScorerOptions(opts ...insights.Option) Option {
	return func(s *Service) {
		s.scorerOpts = opts
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clients:          make(map[string]*telemetry.Client),
		idleThreshold:    5 * time.Second,
		retryBackoff:     500 * time.Millisecond,
		excerptMaxLen:    classify.DefaultExcerptLen,
		snippetMaxCount:  analyzer.DefaultMaxSnippets,
		synthesisTimeout: 20 * time.Second,
		questionTimeout:  10 * time.Second,
		clock:            time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory store")
	}

	analyzerOpts := []analyzer.Option{
		analyzer.WithFallbackScorer(insights.NewRuleScorer(s.scorerOpts...)),
		analyzer.WithSynthesisTimeout(s.synthesisTimeout),
		analyzer.WithMaxSnippets(s.snippetMaxCount),
		analyzer.WithLogger(s.logger.Named("analyzer")),
	}
	if s.synth != nil {
		analyzerOpts = append(analyzerOpts, analyzer.WithSynthesizer(s.synth))
	}
	s.analyzer = analyzer.New(analyzerOpts...)

	s.controller = phase.NewController(s.store, s.store, s, s.question,
		phase.WithClock(s.clock),
		phase.WithQuestionTimeout(s.questionTimeout),
		phase.WithLogger(s.logger.Named("phase")),
	)

	s.started = true
	s.logger.Info(ctx, "interview service started",
		logger.Int64("idleThresholdMS", s.idleThreshold.Milliseconds()),
		logger.Int("snippetMaxCount", s.snippetMaxCount),
	)

	return nil
}

// Stop shuts the service down, abandoning any undelivered events.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	for _, c := range s.clients {
		c.Cleanup()
	}
	s.clients = make(map[string]*telemetry.Client)

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "interview service stopped")
}

// CreateSession starts a new interview session in the coding phase and
// records its SESSION_STARTED event.
func (s *Service) CreateSession(ctx context.Context, candidateName, problemID string) (session.Session, error) {
	sess := session.New(uuid.NewString(), candidateName, problemID, s.clock())
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	if err := s.Track(sess.SessionID, event.SessionStarted, event.Metadata{
		"candidate_name": candidateName,
		"problem_id":     problemID,
	}); err != nil {
		return session.Session{}, err
	}

	s.logger.Info(ctx, "session created",
		logger.String("sessionID", sess.SessionID),
		logger.String("problemID", problemID),
	)
	return sess, nil
}

// GetSession returns a session by id.
func (s *Service) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	return s.store.GetSession(ctx, sessionID)
}

// TrackEvent records one candidate event. SQL runs additionally emit derived
// complexity events directly behind the run itself, under the same session
// lock, so nothing interleaves between them.
func (s *Service) TrackEvent(ctx context.Context, sessionID string, t event.Type, md event.Metadata) error {
	if !event.Known(t) {
		return fmt.Errorf("%w: %q", repository.ErrUnknownType, t)
	}
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return err
	}

	l := s.controller.SessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	if err := s.Track(sessionID, t, md); err != nil {
		return err
	}

	if t == event.SQLRun {
		query, _ := md["query"].(string)
		for _, d := range classify.Emit(query, s.excerptMaxLen) {
			if err := s.Track(sessionID, d.Type, d.Metadata); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListEvents returns a session's event log in sequence order.
func (s *Service) ListEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, sessionID)
}

// Submit moves a session from coding into the interview phase.
func (s *Service) Submit(ctx context.Context, sessionID string) (session.Session, error) {
	return s.controller.Submit(ctx, sessionID)
}

// Complete finishes a session.
func (s *Service) Complete(ctx context.Context, sessionID string) (session.Session, error) {
	return s.controller.Complete(ctx, sessionID)
}

// Analyze scores a session from its event log and persists the result. It
// always produces insights; when synthesis is unavailable or rejects, the
// rule-based fallback answers instead.
func (s *Service) Analyze(ctx context.Context, sessionID string) (insights.Insights, error) {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return insights.Insights{}, err
	}
	log, err := s.store.ListEvents(ctx, sessionID)
	if err != nil {
		return insights.Insights{}, err
	}

	ins := s.analyzer.Analyze(ctx, sess, log)
	if err := s.store.SetInsights(ctx, sessionID, ins); err != nil {
		return insights.Insights{}, fmt.Errorf("persist insights: %w", err)
	}
	return ins, nil
}

// Track routes an event through the session's telemetry client, creating and
// binding the client on first use. It implements phase.Tracker.
func (s *Service) Track(sessionID string, t event.Type, md event.Metadata) error {
	return s.client(sessionID).Track(t, md)
}

// PendingEvents reports how many events a session still has queued.
func (s *Service) PendingEvents(sessionID string) int {
	s.mu.RLock()
	c, ok := s.clients[sessionID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return c.Pending()
}

func (s *Service) client(sessionID string) *telemetry.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clients[sessionID]
	if !ok {
		c = telemetry.NewClient(s.store,
			telemetry.WithIdleThreshold(s.idleThreshold),
			telemetry.WithRetryBackoff(s.retryBackoff),
			telemetry.WithClock(s.clock),
			telemetry.WithLogger(s.logger.Named("telemetry")),
		)
		c.Initialize(sessionID)
		s.clients[sessionID] = c
	}
	return c
}
