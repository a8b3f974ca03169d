package analyzer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/proctor/internal/analyzer"
	"github.com/okian/proctor/internal/domain/event"
	"github.com/okian/proctor/internal/domain/insights"
	"github.com/okian/proctor/internal/domain/session"
	"github.com/okian/proctor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubSynth returns a canned record, a malformed record, an error, or blocks
// until the context expires.
type stubSynth struct {
	result insights.Insights
	err    error
	block  bool
	calls  int
}

func (s *stubSynth) Synthesize(ctx context.Context, _ analyzer.Context) (insights.Insights, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return insights.Insights{}, ctx.Err()
	}
	return s.result, s.err
}

func sampleLog(sessionID string, base time.Time) []event.Event {
	mk := func(i int, t event.Type, md event.Metadata) event.Event {
		e := event.New(sessionID, t, md, base.Add(time.Duration(i)*time.Minute))
		e.Sequence = int64(i + 1)
		return e
	}
	return []event.Event{
		mk(0, event.SessionStarted, nil),
		mk(1, event.SQLRun, event.Metadata{"query": "SELECT * FROM orders"}),
		mk(2, event.SQLRun, event.Metadata{"query": "SELECT a, COUNT(*) FROM t JOIN u GROUP BY a"}),
		mk(3, event.QueryJoinUsed, event.Metadata{"excerpt": "SELECT a, COUNT(*)"}),
		mk(4, event.QueryAggregateUsed, event.Metadata{"excerpt": "SELECT a, COUNT(*)"}),
		mk(5, event.ExecutionSucceeded, nil),
		mk(6, event.ExecutionError, event.Metadata{"message": "no such table"}),
		mk(7, event.AIPromptSent, event.Metadata{"prompt": "why is this failing"}),
		mk(8, event.AIResponseReceived, nil),
		mk(9, event.IdleGap, event.Metadata{"gap_ms": int64(60000)}),
		mk(10, event.PhaseSubmitted, nil),
		mk(11, event.InterviewStarted, nil),
		mk(12, event.InterviewQuestion, event.Metadata{"question": "Walk me through it"}),
		mk(13, event.InterviewAnswer, event.Metadata{"answer": "I started with..."}),
	}
}

func TestBuildContext(t *testing.T) {
	Convey("Given a representative event log", t, func() {
		base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
		submitted := base.Add(10 * time.Minute)
		sess := session.New("s1", "Ada", "p1", base)
		sess.Phase = session.Interview
		sess.SubmittedAt = &submitted

		c := analyzer.BuildContext(sess, sampleLog("s1", base), 10)

		Convey("Then categories, tags and counters are aggregated", func() {
			So(c.TotalEvents, ShouldEqual, 14)
			So(c.CategoryCounts[event.QueryOperations], ShouldEqual, 4)
			So(c.ComplexityTags[event.QueryJoinUsed], ShouldEqual, 1)
			So(c.ComplexityTags[event.QueryAggregateUsed], ShouldEqual, 1)
			So(c.Queries, ShouldHaveLength, 2)
			So(c.AI.Prompts, ShouldEqual, 1)
			So(c.ErrorCount, ShouldEqual, 1)
			So(c.ExecutionCount, ShouldEqual, 2)
			So(c.QuestionCount, ShouldEqual, 1)
			So(c.AnswerCount, ShouldEqual, 1)
			So(c.IdleTotal, ShouldEqual, time.Minute)
		})

		Convey("Then phase spans straddle the submit boundary", func() {
			So(c.CodingElapsed, ShouldEqual, 10*time.Minute)
			So(c.InterviewElapsed, ShouldEqual, 3*time.Minute)
		})

		Convey("And snippets are capped", func() {
			capped := analyzer.BuildContext(sess, sampleLog("s1", base), 1)
			So(capped.Queries, ShouldHaveLength, 1)
		})
	})
}

func TestAnalyze(t *testing.T) {
	Convey("Given an analyzer", t, func() {
		ctx := context.Background()
		base := time.Now().Add(-time.Hour)
		sess := session.New("s1", "Ada", "p1", base)
		log := sampleLog("s1", base)

		valid := insights.NewRuleScorer().Score(insights.Signals{TotalEvents: 14})

		Convey("When synthesis succeeds with a valid record", func() {
			synth := &stubSynth{result: valid}
			a := analyzer.New(analyzer.WithSynthesizer(synth))

			out := a.Analyze(ctx, sess, log)

			Convey("Then the synthesized record is returned as-is", func() {
				So(out, ShouldResemble, valid)
				So(synth.calls, ShouldEqual, 1)
			})
		})

		Convey("When synthesis fails", func() {
			a := analyzer.New(analyzer.WithSynthesizer(&stubSynth{err: errors.New("rate limited")}))

			out := a.Analyze(ctx, sess, log)

			Convey("Then the deterministic fallback fills in", func() {
				So(out.Validate(), ShouldBeNil)
				So(out.DimensionScores, ShouldHaveLength, 6)
			})
		})

		Convey("When synthesis returns a malformed record", func() {
			broken := valid
			broken.OverallScore = 40 // out of range
			a := analyzer.New(analyzer.WithSynthesizer(&stubSynth{result: broken}))

			out := a.Analyze(ctx, sess, log)

			Convey("Then it is treated like an unavailable upstream", func() {
				So(out.Validate(), ShouldBeNil)
				So(out.OverallScore, ShouldBeBetweenOrEqual, 0, 1)
			})
		})

		Convey("When synthesis exceeds the timeout", func() {
			synth := &stubSynth{block: true}
			a := analyzer.New(
				analyzer.WithSynthesizer(synth),
				analyzer.WithSynthesisTimeout(20*time.Millisecond),
			)

			start := time.Now()
			out := a.Analyze(ctx, sess, log)

			Convey("Then the fallback answers promptly", func() {
				So(time.Since(start), ShouldBeLessThan, 2*time.Second)
				So(out.Validate(), ShouldBeNil)
				So(synth.calls, ShouldEqual, 1)
			})
		})

		Convey("When the event log is empty", func() {
			a := analyzer.New()

			out := a.Analyze(ctx, sess, nil)

			Convey("Then the record is still fully populated", func() {
				So(out.Validate(), ShouldBeNil)
				for _, dim := range insights.Dimensions() {
					_, ok := out.DimensionScores[dim]
					So(ok, ShouldBeTrue)
				}
				So(out.OverallScore, ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})
}
