package service

import (
	"testing"
	"time"

	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"A. Paris":       "paris",
		"b.Paris":        "b.paris",
		"  D.   Berlin ": "berlin",
		"a. b. paris":    "paris",
		"Paris":          "paris",
		"E. Paris":       "e. paris",
		"":               "",
		"3.5 metres":     "3.5 metres",
		"A.D. 1066":      "a.d. 1066",
		"B.C.":           "b.c.",
		"D.C.":           "d.c.",
		"C. B.C.":        "b.c.",
		"A. B.":          "",
	}
	for in, want := range cases {
		got := Normalize(in)
		require.Equal(t, want, got, "Normalize(%q)", in)
		require.Equal(t, got, Normalize(got), "Normalize is not idempotent for %q", in)
	}
}

func TestLabelOption(t *testing.T) {
	require.Equal(t, "A. Paris", LabelOption(0, "Paris"))
	require.Equal(t, "D. Rome", LabelOption(3, "Rome"))
	require.Equal(t, "Oslo", LabelOption(4, "Oslo"))
}

func TestFormatClock(t *testing.T) {
	require.Equal(t, "10:00", FormatClock(600))
	require.Equal(t, "04:59", FormatClock(299))
	require.Equal(t, "00:00", FormatClock(0))
	require.Equal(t, "00:00", FormatClock(-3))
}

func TestSessionTickAndAdvance(t *testing.T) {
	now := time.Now()
	s := NewQuizSession("a.pdf", "Easy", testQuestions(2), 2, now)
	require.NotEmpty(t, s.ID)
	require.Equal(t, PhaseAnswering, s.Phase())
	require.False(t, s.Terminal())

	require.False(t, s.Tick())
	require.True(t, s.Tick())
	require.False(t, s.Tick())
	require.Zero(t, s.TimeRemaining)
	require.True(t, s.Terminal())

	s = NewQuizSession("a.pdf", "Easy", testQuestions(2), 60, now)
	require.Equal(t, 3, s.Elapsed(now.Add(3500*time.Millisecond)))
	require.True(t, s.Advance(now))
	require.False(t, s.Advance(now))
	require.Equal(t, 2, s.CurrentIndex)
	require.False(t, s.Advance(now))
	require.Equal(t, 2, s.CurrentIndex)
	require.True(t, s.Terminal())
}

func TestFeedbackKeepsQuestionOrder(t *testing.T) {
	qs := testQuestions(3)
	qs[1].Explanation = "Rome is the capital of Italy."
	s := NewQuizSession("a.pdf", "Medium", qs, 60, time.Now())
	s.Record(AnswerResult{QuestionID: qs[0].ID, IsCorrect: true, UserAnswer: "Paris", CorrectAnswer: "Paris"})
	s.Record(AnswerResult{QuestionID: qs[1].ID, Skipped: true, CorrectAnswer: "Rome"})
	s.Record(AnswerResult{QuestionID: qs[2].ID, UserAnswer: "Paris", CorrectAnswer: "Rome"})

	fb := s.Feedback()
	require.Len(t, fb, 3)
	require.Equal(t, OutcomeCorrect, fb[0].Outcome)
	require.Equal(t, OutcomeSkipped, fb[1].Outcome)
	require.Equal(t, "Rome is the capital of Italy.", fb[1].Explanation)
	require.Equal(t, OutcomeIncorrect, fb[2].Outcome)
	require.Equal(t, 3, fb[2].Number)
	require.Equal(t, qs[2].Text, fb[2].Question)

	graded := s.GradedResults()
	require.Len(t, graded, 2)
	for _, r := range graded {
		require.False(t, r.Skipped)
	}
}

func TestNewSummaryDropsEmptyWeakAreas(t *testing.T) {
	s := NewQuizSession("a.pdf", "Medium", testQuestions(2), 60, time.Now())
	s.Record(AnswerResult{Skipped: true})
	sum := newSummary(s, s.Feedback(), &edumind.Summary{
		Score: 66.6, Correct: 2, Total: 3, TimeTaken: 90,
		WeakAreas: []edumind.WeakArea{{Topic: "Maps", Mistakes: 0}, {Topic: "Rivers", Mistakes: 2}},
	})
	require.Equal(t, 67, sum.ScorePercent())
	require.Equal(t, 1, sum.Skipped)
	require.Equal(t, []WeakArea{{Topic: "Rivers", Mistakes: 2}}, sum.WeakAreas)
	require.Equal(t, s.ID, sum.SessionID)
}

func TestPhaseString(t *testing.T) {
	require.Equal(t, "grading", PhaseGrading.String())
	require.Equal(t, "phase(9)", Phase(9).String())
}
