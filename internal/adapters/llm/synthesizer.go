package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/proctor/internal/analyzer"
	"github.com/okian/proctor/internal/domain/insights"
)

const synthesisSystemPrompt = `You are an expert recruiter analyzing a data analyst interview session.
You receive structured data about the candidate's queries, problem solving, AI usage, and interview answers.
Score each dimension between 0 and 1. Respond with ONLY a JSON object of this exact shape:
{
  "overall_score": <0..1>,
  "hire_recommendation": "strong_hire" | "hire" | "maybe" | "no_hire",
  "dimension_scores": {
    "query_quality": <0..1>,
    "problem_solving": <0..1>,
    "ai_collaboration": <0..1>,
    "code_quality": <0..1>,
    "time_management": <0..1>,
    "communication": <0..1>
  },
  "key_strengths": [...],
  "areas_for_improvement": [...],
  "red_flags": [...],
  "standout_moments": [...],
  "detailed_narrative": "2-3 paragraphs"
}`

// Synthesize implements analyzer.Synthesizer over the chat endpoint. The
// returned record is normalized (nil lists become empty) but not validated;
// the analyzer owns shape validation and the fallback decision.
func (c *Client) Synthesize(ctx context.Context, ac analyzer.Context) (insights.Insights, error) {
	user, err := buildSynthesisMessage(ac)
	if err != nil {
		return insights.Insights{}, err
	}

	completion, err := c.complete(ctx, synthesisSystemPrompt, user)
	if err != nil {
		return insights.Insights{}, err
	}

	raw, err := extractJSON(completion)
	if err != nil {
		return insights.Insights{}, err
	}

	var out insights.Insights
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return insights.Insights{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	normalizeLists(&out)
	return out, nil
}

func buildSynthesisMessage(ac analyzer.Context) (string, error) {
	summary, err := json.MarshalIndent(ac, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal analysis context: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate: %s\nProblem: %s\nPhase: %s\n\n", ac.CandidateName, ac.ProblemID, ac.Phase)
	fmt.Fprintf(&b, "Session summary:\n%s\n", summary)
	if len(ac.Queries) > 0 {
		b.WriteString("\nRepresentative queries:\n")
		for i, q := range ac.Queries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
	}
	return b.String(), nil
}

// normalizeLists turns absent lists into present-but-empty ones so a model
// that omits an empty array does not flunk validation on a technicality.
func normalizeLists(i *insights.Insights) {
	if i.KeyStrengths == nil {
		i.KeyStrengths = []string{}
	}
	if i.AreasForImprovement == nil {
		i.AreasForImprovement = []string{}
	}
	if i.RedFlags == nil {
		i.RedFlags = []string{}
	}
	if i.StandoutMoments == nil {
		i.StandoutMoments = []string{}
	}
}
