package insights

import (
	"fmt"
	"time"
)

// Default tuning for the rule-based scorer. These are configuration, exposed
// through options and the config package, not a reverse-engineered formula.
const (
	defaultQueryTarget    = 10
	defaultActivityTarget = 50
	defaultPromptPenalty  = 0.05
	defaultAIFloor        = 0.2

	defaultStrongHireCut = 0.80
	defaultHireCut       = 0.65
	defaultMaybeCut      = 0.45
)

// Signals is the reduced, category-level evidence the rule scorer consumes.
// The analyzer produces it from the event log; the scorer never sees raw
// events.
type Signals struct {
	TotalEvents        int
	QueryCount         int
	ComplexityTagCount int
	PromptCount        int
	ResponseCount      int
	CodeCopiedCount    int
	CodeModifiedCount  int
	ExecutionCount     int
	ErrorCount         int
	QuestionCount      int
	AnswerCount        int
	IdleTotal          time.Duration
	Elapsed            time.Duration
	UsedWindowFuncs    bool
}

// Option applies a configuration option to the RuleScorer.
type Option func(*RuleScorer)

// WithDimensionWeights overrides the weights used for the overall mean.
// Unknown dimension names are ignored; missing ones keep their defaults.
func WithDimensionWeights(weights map[string]float64) Option {
	return func(s *RuleScorer) {
		for _, dim := range Dimensions() {
			if w, ok := weights[dim]; ok && w > 0 {
				s.weights[dim] = w
			}
		}
	}
}

// WithHireCutpoints overrides the recommendation thresholds. Values must be
// strictly descending in (0,1); anything else keeps the defaults.
func WithHireCutpoints(strongHire, hire, maybe float64) Option {
	return func(s *RuleScorer) {
		if strongHire > hire && hire > maybe && maybe > 0 && strongHire < 1 {
			s.strongHireCut = strongHire
			s.hireCut = hire
			s.maybeCut = maybe
		}
	}
}

// WithQueryTarget sets the query count treated as a full query-quality signal.
func WithQueryTarget(n int) Option {
	return func(s *RuleScorer) {
		if n > 0 {
			s.queryTarget = n
		}
	}
}

// WithActivityTarget sets the event count treated as full engagement.
func WithActivityTarget(n int) Option {
	return func(s *RuleScorer) {
		if n > 0 {
			s.activityTarget = n
		}
	}
}

// WithPromptPenalty sets the per-prompt deduction applied to the
// ai_collaboration dimension.
func WithPromptPenalty(p float64) Option {
	return func(s *RuleScorer) {
		if p > 0 && p < 1 {
			s.promptPenalty = p
		}
	}
}

// RuleScorer derives an Insights record from Signals without any external
// call. Score never fails and always populates every field.
type RuleScorer struct {
	weights        map[string]float64
	queryTarget    int
	activityTarget int
	promptPenalty  float64
	aiFloor        float64
	strongHireCut  float64
	hireCut        float64
	maybeCut       float64
}

// NewRuleScorer creates a scorer with default tuning.
func NewRuleScorer(opts ...Option) *RuleScorer {
	s := &RuleScorer{
		weights:        make(map[string]float64),
		queryTarget:    defaultQueryTarget,
		activityTarget: defaultActivityTarget,
		promptPenalty:  defaultPromptPenalty,
		aiFloor:        defaultAIFloor,
		strongHireCut:  defaultStrongHireCut,
		hireCut:        defaultHireCut,
		maybeCut:       defaultMaybeCut,
	}
	for _, dim := range Dimensions() {
		s.weights[dim] = 1
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score reduces the signals to a complete Insights record.
func (s *RuleScorer) Score(sig Signals) Insights {
	dims := map[string]float64{
		DimQueryQuality:    s.queryQuality(sig),
		DimProblemSolving:  clamp01(float64(sig.TotalEvents) / float64(s.activityTarget)),
		DimAICollaboration: s.aiCollaboration(sig),
		DimCodeQuality:     s.codeQuality(sig),
		DimTimeManagement:  s.timeManagement(sig),
		DimCommunication:   s.communication(sig),
	}

	var weighted, total float64
	for dim, score := range dims {
		w := s.weights[dim]
		weighted += score * w
		total += w
	}
	overall := 0.0
	if total > 0 {
		overall = clamp01(weighted / total)
	}

	out := Insights{
		OverallScore:        overall,
		HireRecommendation:  s.recommend(overall),
		DimensionScores:     dims,
		KeyStrengths:        []string{},
		AreasForImprovement: []string{},
		RedFlags:            []string{},
		StandoutMoments:     []string{},
		DetailedNarrative: "Rule-based analysis completed without model assistance. " +
			"Scores are derived from activity ratios; manual review recommended.",
	}

	if sig.QueryCount > 0 {
		out.KeyStrengths = append(out.KeyStrengths, fmt.Sprintf("Executed %d queries", sig.QueryCount))
	}
	if sig.TotalEvents > 0 {
		out.KeyStrengths = append(out.KeyStrengths, fmt.Sprintf("Generated %d session events", sig.TotalEvents))
	}
	out.AreasForImprovement = append(out.AreasForImprovement,
		"Model-generated insights unavailable; manual review recommended")

	if sig.CodeCopiedCount > 0 && sig.CodeModifiedCount == 0 {
		out.RedFlags = append(out.RedFlags, "AI-produced code copied without any modification")
	}
	if sig.UsedWindowFuncs {
		out.StandoutMoments = append(out.StandoutMoments, "Applied window functions unprompted")
	}

	return out
}

func (s *RuleScorer) queryQuality(sig Signals) float64 {
	if sig.QueryCount == 0 {
		return 0
	}
	volume := clamp01(float64(sig.QueryCount) / float64(s.queryTarget))
	density := clamp01(float64(sig.ComplexityTagCount) / float64(sig.QueryCount))
	return clamp01(0.6*volume + 0.4*density)
}

func (s *RuleScorer) aiCollaboration(sig Signals) float64 {
	score := 1 - float64(sig.PromptCount)*s.promptPenalty
	if score < s.aiFloor {
		return s.aiFloor
	}
	return clamp01(score)
}

func (s *RuleScorer) codeQuality(sig Signals) float64 {
	if sig.ExecutionCount == 0 {
		// Mid-scale default when there is no execution evidence either way.
		return 0.5
	}
	errRatio := clamp01(float64(sig.ErrorCount) / float64(sig.ExecutionCount))
	return clamp01(1 - 0.8*errRatio)
}

func (s *RuleScorer) timeManagement(sig Signals) float64 {
	if sig.Elapsed <= 0 {
		return 0.5
	}
	idleRatio := clamp01(float64(sig.IdleTotal) / float64(sig.Elapsed))
	return clamp01(1 - idleRatio)
}

func (s *RuleScorer) communication(sig Signals) float64 {
	if sig.QuestionCount == 0 {
		return 0.5
	}
	return clamp01(float64(sig.AnswerCount) / float64(sig.QuestionCount))
}

func (s *RuleScorer) recommend(overall float64) HireRecommendation {
	switch {
	case overall >= s.strongHireCut:
		return StrongHire
	case overall >= s.hireCut:
		return Hire
	case overall >= s.maybeCut:
		return Maybe
	default:
		return NoHire
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
