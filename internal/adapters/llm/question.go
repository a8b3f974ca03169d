package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/proctor/internal/phase"
)

const interviewerSystemPrompt = `You are an AI interviewer conducting a post-coding interview for a data analyst role.
Ask ONE thoughtful question about the candidate's approach, insights, or decision-making,
grounded in the queries they actually wrote. Be professional, curious, and concise.
Respond with only the question text.`

// FirstQuestion implements phase.QuestionService over the chat endpoint.
func (c *Client) FirstQuestion(ctx context.Context, qc phase.QuestionContext) (string, error) {
	var b strings.Builder
	b.WriteString("The coding phase just ended. Generate the opening interview question.\n")
	if len(qc.Queries) > 0 {
		b.WriteString("\nCandidate's queries:\n")
		for i, q := range qc.Queries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q)
		}
	} else {
		b.WriteString("\nThe candidate submitted without running any queries.\n")
	}

	question, err := c.complete(ctx, interviewerSystemPrompt, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(question), nil
}
