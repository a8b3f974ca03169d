// Package insights defines the analyzer's fixed-shape output record and the
// deterministic rule-based scorer used when model synthesis is unavailable.
package insights

import "fmt"

// HireRecommendation is the analyzer's hiring verdict.
type HireRecommendation string

// Hire recommendations, strongest first.
const (
	StrongHire HireRecommendation = "strong_hire"
	Hire       HireRecommendation = "hire"
	Maybe      HireRecommendation = "maybe"
	NoHire     HireRecommendation = "no_hire"
)

// Dimension names of the fixed scoring set. Every Insights record carries a
// score for each of these, whether synthesized or rule-derived.
const (
	DimQueryQuality    = "query_quality"
	DimProblemSolving  = "problem_solving"
	DimAICollaboration = "ai_collaboration"
	DimCodeQuality     = "code_quality"
	DimTimeManagement  = "time_management"
	DimCommunication   = "communication"
)

// Dimensions returns the fixed dimension set in presentation order.
func Dimensions() []string {
	return []string{
		DimQueryQuality,
		DimProblemSolving,
		DimAICollaboration,
		DimCodeQuality,
		DimTimeManagement,
		DimCommunication,
	}
}

// Insights is the scored summary of one session. All list fields are always
// present: empty means "nothing to report", nil means the record is malformed.
type Insights struct {
	OverallScore        float64            `json:"overall_score"`
	HireRecommendation  HireRecommendation `json:"hire_recommendation"`
	DimensionScores     map[string]float64 `json:"dimension_scores"`
	KeyStrengths        []string           `json:"key_strengths"`
	AreasForImprovement []string           `json:"areas_for_improvement"`
	RedFlags            []string           `json:"red_flags"`
	StandoutMoments     []string           `json:"standout_moments"`
	DetailedNarrative   string             `json:"detailed_narrative"`
}

// Validate checks the record against the required shape. A synthesized
// record failing validation is treated the same as an unavailable upstream.
func (i *Insights) Validate() error {
	if i.OverallScore < 0 || i.OverallScore > 1 {
		return fmt.Errorf("overall_score %v out of [0,1]", i.OverallScore)
	}
	switch i.HireRecommendation {
	case StrongHire, Hire, Maybe, NoHire:
	default:
		return fmt.Errorf("unknown hire_recommendation %q", i.HireRecommendation)
	}
	for _, dim := range Dimensions() {
		score, ok := i.DimensionScores[dim]
		if !ok {
			return fmt.Errorf("missing dimension %q", dim)
		}
		if score < 0 || score > 1 {
			return fmt.Errorf("dimension %q score %v out of [0,1]", dim, score)
		}
	}
	if i.KeyStrengths == nil || i.AreasForImprovement == nil || i.RedFlags == nil || i.StandoutMoments == nil {
		return fmt.Errorf("list fields must be present, not nil")
	}
	return nil
}
