package analyzer

import (
	"time"

	"github.com/okian/proctor/internal/domain/classify"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
)

// DefaultMaxSnippets caps the representative queries carried into synthesis
// so the analysis context stays bounded regardless of session size.
const DefaultMaxSnippets = 10

// complexity tags aggregated from the derived query-operation events the
// classifier emitted at capture time. Classification is never re-run here.
var complexityTypes = map[event.Type]bool{
	event.QueryJoinUsed:      true,
	event.QueryAggregateUsed: true,
	event.QuerySubqueryUsed:  true,
	event.QueryGroupByUsed:   true,
	event.QueryFilterUsed:    true,
	event.QueryWindowUsed:    true,
}

var errorTypes = map[event.Type]bool{
	event.ExecutionError:   true,
	event.ExecutionTimeout: true,
	event.SyntaxError:      true,
}

// AISummary aggregates the session's assistant usage.
type AISummary struct {
	Prompts      int `json:"prompts"`
	Responses    int `json:"responses"`
	CodeCopied   int `json:"code_copied"`
	CodeModified int `json:"code_modified"`
}

// Context is the bounded reduction of a session's event log handed to the
// synthesis collaborator and, via Signals, to the rule-based fallback.
type Context struct {
	SessionID        string                 `json:"session_id"`
	CandidateName    string                 `json:"candidate_name"`
	ProblemID        string                 `json:"problem_id"`
	Phase            session.Phase          `json:"phase"`
	TotalEvents      int                    `json:"total_events"`
	CategoryCounts   map[event.Category]int `json:"category_counts"`
	ComplexityTags   map[event.Type]int     `json:"complexity_tags"`
	Queries          []string               `json:"queries"`
	AI               AISummary              `json:"ai_summary"`
	ExecutionCount   int                    `json:"execution_count"`
	ErrorCount       int                    `json:"error_count"`
	QuestionCount    int                    `json:"question_count"`
	AnswerCount      int                    `json:"answer_count"`
	IdleTotal        time.Duration          `json:"idle_total_ns"`
	CodingElapsed    time.Duration          `json:"coding_elapsed_ns"`
	InterviewElapsed time.Duration          `json:"interview_elapsed_ns"`
}

// Elapsed is the total observed session span.
func (c Context) Elapsed() time.Duration {
	return c.CodingElapsed + c.InterviewElapsed
}

// Signals maps the context onto the rule scorer's input shape.
func (c Context) Signals() insights.Signals {
	tags := 0
	for _, n := range c.ComplexityTags {
		tags += n
	}
	return insights.Signals{
		TotalEvents:        c.TotalEvents,
		QueryCount:         len(c.Queries),
		ComplexityTagCount: tags,
		PromptCount:        c.AI.Prompts,
		ResponseCount:      c.AI.Responses,
		CodeCopiedCount:    c.AI.CodeCopied,
		CodeModifiedCount:  c.AI.CodeModified,
		ExecutionCount:     c.ExecutionCount,
		ErrorCount:         c.ErrorCount,
		QuestionCount:      c.QuestionCount,
		AnswerCount:        c.AnswerCount,
		IdleTotal:          c.IdleTotal,
		Elapsed:            c.Elapsed(),
		UsedWindowFuncs:    c.ComplexityTags[event.QueryWindowUsed] > 0,
	}
}

// BuildContext partitions the ordered event log by category and reduces it
// to the bounded analysis context. It is a pure function of its inputs.
func BuildContext(sess session.Session, log []event.Event, maxSnippets int) Context {
	if maxSnippets <= 0 {
		maxSnippets = DefaultMaxSnippets
	}

	c := Context{
		SessionID:      sess.SessionID,
		CandidateName:  sess.CandidateName,
		ProblemID:      sess.ProblemID,
		Phase:          sess.Phase,
		TotalEvents:    len(log),
		CategoryCounts: make(map[event.Category]int),
		ComplexityTags: make(map[event.Type]int),
		Queries:        []string{},
	}

	var lastTS time.Time
	for _, e := range log {
		c.CategoryCounts[event.CategoryOf(e.Type)]++
		if e.Timestamp.After(lastTS) {
			lastTS = e.Timestamp
		}

		switch {
		case complexityTypes[e.Type]:
			c.ComplexityTags[e.Type]++
		case errorTypes[e.Type]:
			c.ErrorCount++
		}

		switch e.Type {
		case event.SQLRun:
			if len(c.Queries) < maxSnippets {
				if q, ok := e.Metadata["query"].(string); ok && q != "" {
					c.Queries = append(c.Queries, classify.Excerpt(q, classify.DefaultExcerptLen))
				}
			}
		case event.AIPromptSent:
			c.AI.Prompts++
		case event.AIResponseReceived:
			c.AI.Responses++
		case event.AICodeCopied:
			c.AI.CodeCopied++
		case event.AICodeModified:
			c.AI.CodeModified++
		case event.InterviewQuestion, event.InterviewFollowup:
			c.QuestionCount++
		case event.InterviewAnswer:
			c.AnswerCount++
		case event.IdleGap:
			c.IdleTotal += gapOf(e.Metadata)
		}

		if event.CategoryOf(e.Type) == event.ExecutionResults {
			c.ExecutionCount++
		}
	}

	c.CodingElapsed, c.InterviewElapsed = phaseSpans(sess, lastTS)
	return c
}

// phaseSpans derives per-phase elapsed time from the session's set-once
// timestamps, falling back to the last observed event for open phases.
func phaseSpans(sess session.Session, lastTS time.Time) (coding, interview time.Duration) {
	end := lastTS
	if sess.CompletedAt != nil {
		end = *sess.CompletedAt
	}
	if sess.SubmittedAt != nil {
		coding = sess.SubmittedAt.Sub(sess.StartedAt)
		if end.After(*sess.SubmittedAt) {
			interview = end.Sub(*sess.SubmittedAt)
		}
	} else if end.After(sess.StartedAt) {
		coding = end.Sub(sess.StartedAt)
	}
	if coding < 0 {
		coding = 0
	}
	return coding, interview
}

// gapOf reads the idle gap out of event metadata, tolerating both the
// client's int64 and JSON's float64 after a store round trip.
func gapOf(md event.Metadata) time.Duration {
	switch v := md["gap_ms"].(type) {
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v) * time.Millisecond
	case int:
		return time.Duration(v) * time.Millisecond
	default:
		return 0
	}
}
