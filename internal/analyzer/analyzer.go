// Package analyzer reduces a session's full ordered event log into a
// fixed-shape insights record. Synthesis through the model collaborator is
// attempted first under a bounded timeout; on unavailability, malformed
// output, or timeout the deterministic rule-based scorer takes over, so
// Analyze always returns a well-formed result.
package analyzer

import (
	"context"
	"time"

	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/pkg/logger"
	"github.com/okian/proctor/pkg/metrics"
)

// defaultSynthesisTimeout bounds the model call before falling back.
const defaultSynthesisTimeout = 20 * time.Second

// Synthesizer is the insight-synthesis collaborator. Treated as unreliable
// and rate-limited: one attempt per analysis, never retried inline.
type Synthesizer interface {
	Synthesize(ctx context.Context, c Context) (insights.Insights, error)
}

// Analyzer is a stateless, re-entrant batch reducer. Analyses of different
// sessions may run concurrently without interaction.
type Analyzer struct {
	synth       Synthesizer
	fallback    *insights.RuleScorer
	timeout     time.Duration
	maxSnippets int
	log         logger.Logger
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithSynthesizer injects the model collaborator. Without one, every
// analysis takes the deterministic path.
func WithSynthesizer(s Synthesizer) Option {
	return func(a *Analyzer) {
		a.synth = s
	}
}

// WithFallbackScorer overrides the rule-based scorer and its tuning.
func WithFallbackScorer(s *insights.RuleScorer) Option {
	return func(a *Analyzer) {
		if s != nil {
			a.fallback = s
		}
	}
}

// WithSynthesisTimeout bounds how long a synthesis attempt may run.
func WithSynthesisTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithMaxSnippets caps the representative queries in the analysis context.
func WithMaxSnippets(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxSnippets = n
		}
	}
}

// WithLogger sets a custom logger for the analyzer.
func WithLogger(log logger.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// New creates an analyzer. With no options it is the pure rule-based path.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		fallback:    insights.NewRuleScorer(),
		timeout:     defaultSynthesisTimeout,
		maxSnippets: DefaultMaxSnippets,
		log:         logger.Get().Named("analyzer"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reduces the event log to an Insights record. It is total: an empty
// log, a dead collaborator, or malformed model output all still produce a
// fully populated record.
func (a *Analyzer) Analyze(ctx context.Context, sess session.Session, log []event.Event) insights.Insights {
	start := time.Now()
	c := BuildContext(sess, log, a.maxSnippets)

	if a.synth != nil {
		sctx, cancel := context.WithTimeout(ctx, a.timeout)
		out, err := a.synth.Synthesize(sctx, c)
		cancel()
		switch {
		case err != nil:
			a.log.Warn(ctx, "insight synthesis unavailable, using fallback",
				logger.String("session_id", sess.SessionID), logger.Error(err))
		case out.Validate() != nil:
			// Malformed upstream output is treated identically to an
			// unavailable upstream.
			a.log.Warn(ctx, "synthesized insights failed validation, using fallback",
				logger.String("session_id", sess.SessionID), logger.Error(out.Validate()))
		default:
			metrics.RecordAnalysis("synthesized", time.Since(start))
			return out
		}
	}

	out := a.fallback.Score(c.Signals())
	metrics.RecordAnalysis("fallback", time.Since(start))
	return out
}
