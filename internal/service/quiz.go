package service

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
	"github.com/google/uuid"
)

type (
	QuizQuestion = edumind.Question
	AnswerResult = edumind.AnswerResult
	WeakArea     = edumind.WeakArea
)

var optionLabels = [...]string{"A", "B", "C", "D"}

// MaxOptions is the number of positional labels (A-D) an option can get.
const MaxOptions = len(optionLabels)

var optionLabelRe = regexp.MustCompile(`(?i)^[A-D]\.(\s+|$)`)

// Normalize canonicalises an answer before grading: leading "A."-"D."
// labels are stripped, surrounding whitespace trimmed and the rest
// lowercased. A label only counts when whitespace or the end of the
// answer follows the dot, so "A.D. 1066" keeps its text. Labels are
// stripped until none is left so that Normalize(Normalize(x)) == Normalize(x).
func Normalize(answer string) string {
	answer = strings.TrimSpace(answer)
	for optionLabelRe.MatchString(answer) {
		answer = strings.TrimSpace(optionLabelRe.ReplaceAllString(answer, ""))
	}
	return strings.ToLower(answer)
}

// LabelOption renders an option the way it is shown to the user, e.g. "B. Paris".
func LabelOption(i int, text string) string {
	if i < 0 || i >= len(optionLabels) {
		return text
	}
	return optionLabels[i] + ". " + text
}

type Phase int

const (
	PhaseAnswering Phase = iota
	PhaseGrading
	PhaseFeedback
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseAnswering:
		return "answering"
	case PhaseGrading:
		return "grading"
	case PhaseFeedback:
		return "feedback"
	case PhaseFinished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// QuizSession is the state of one timed quiz. It holds no locks; the
// Controller owning it serialises access.
type QuizSession struct {
	ID            string
	Filename      string
	Difficulty    string
	Questions     []QuizQuestion
	CurrentIndex  int
	TimeRemaining int
	Results       []AnswerResult

	phase           Phase
	questionStarted time.Time
}

func NewQuizSession(filename, difficulty string, questions []QuizQuestion, timeLimit int, now time.Time) *QuizSession {
	return &QuizSession{
		ID:              uuid.New().String(),
		Filename:        filename,
		Difficulty:      difficulty,
		Questions:       questions,
		TimeRemaining:   timeLimit,
		Results:         make([]AnswerResult, 0, len(questions)),
		questionStarted: now,
	}
}

func (s *QuizSession) Phase() Phase {
	return s.phase
}

// Current returns the question on display.
func (s *QuizSession) Current() (int, QuizQuestion, bool) {
	if s.CurrentIndex >= len(s.Questions) {
		return -1, QuizQuestion{}, false
	}
	return s.CurrentIndex, s.Questions[s.CurrentIndex], true
}

// Terminal reports whether the session accepts no further answers.
func (s *QuizSession) Terminal() bool {
	return s.phase == PhaseFinished || s.CurrentIndex >= len(s.Questions) || s.TimeRemaining <= 0
}

// Tick consumes one second of the countdown and reports whether time ran
// out on this tick.
func (s *QuizSession) Tick() bool {
	if s.TimeRemaining <= 0 {
		return false
	}
	s.TimeRemaining--
	return s.TimeRemaining == 0
}

// Elapsed is the whole number of seconds the current question has been shown.
func (s *QuizSession) Elapsed(now time.Time) int {
	d := now.Sub(s.questionStarted)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

func (s *QuizSession) Record(r AnswerResult) {
	s.Results = append(s.Results, r)
}

// Advance moves to the next question and restarts its stopwatch. It returns
// false when no questions remain.
func (s *QuizSession) Advance(now time.Time) bool {
	if s.CurrentIndex < len(s.Questions) {
		s.CurrentIndex++
	}
	s.questionStarted = now
	if s.CurrentIndex >= len(s.Questions) {
		return false
	}
	s.phase = PhaseAnswering
	return true
}

// GradedResults are the results sent to the scorer; skipped questions are
// left out.
func (s *QuizSession) GradedResults() []AnswerResult {
	out := make([]AnswerResult, 0, len(s.Results))
	for _, r := range s.Results {
		if !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}

type Outcome int

const (
	OutcomeCorrect Outcome = iota
	OutcomeIncorrect
	OutcomeSkipped
)

func outcomeOf(r AnswerResult) Outcome {
	switch {
	case r.Skipped:
		return OutcomeSkipped
	case r.IsCorrect:
		return OutcomeCorrect
	}
	return OutcomeIncorrect
}

type QuestionFeedback struct {
	Number        int
	Question      string
	UserAnswer    string
	CorrectAnswer string
	Explanation   string
	Outcome       Outcome
}

// Feedback pairs each result with the question it answered, in order.
func (s *QuizSession) Feedback() []QuestionFeedback {
	n := min(len(s.Results), len(s.Questions))
	out := make([]QuestionFeedback, 0, n)
	for i := 0; i < n; i++ {
		r, q := s.Results[i], s.Questions[i]
		out = append(out, QuestionFeedback{
			Number:        i + 1,
			Question:      q.Text,
			UserAnswer:    r.UserAnswer,
			CorrectAnswer: r.CorrectAnswer,
			Explanation:   q.Explanation,
			Outcome:       outcomeOf(r),
		})
	}
	return out
}

// QuestionView is what the display layer needs to show one question.
type QuestionView struct {
	SessionID     string
	Index         int
	Total         int
	Text          string
	Options       []string
	Topic         string
	TimeRemaining int
}

func (s *QuizSession) view() (QuestionView, bool) {
	idx, q, ok := s.Current()
	if !ok {
		return QuestionView{}, false
	}
	return QuestionView{
		SessionID:     s.ID,
		Index:         idx,
		Total:         len(s.Questions),
		Text:          q.Text,
		Options:       append([]string(nil), q.Options...),
		Topic:         q.Topic,
		TimeRemaining: s.TimeRemaining,
	}, true
}

// QuizSummary is the scorer's verdict plus the locally assembled feedback.
type QuizSummary struct {
	SessionID string
	Score     float64
	Correct   int
	Total     int
	TimeTaken int
	Skipped   int
	WeakAreas []WeakArea
	Feedback  []QuestionFeedback
}

func (qs QuizSummary) ScorePercent() int {
	return int(math.Round(qs.Score))
}

func newSummary(s *QuizSession, feedback []QuestionFeedback, res *edumind.Summary) QuizSummary {
	weak := make([]WeakArea, 0, len(res.WeakAreas))
	for _, w := range res.WeakAreas {
		if w.Mistakes >= 1 {
			weak = append(weak, w)
		}
	}
	skipped := 0
	for _, r := range s.Results {
		if r.Skipped {
			skipped++
		}
	}
	return QuizSummary{
		SessionID: s.ID,
		Score:     res.Score,
		Correct:   res.Correct,
		Total:     res.Total,
		TimeTaken: res.TimeTaken,
		Skipped:   skipped,
		WeakAreas: weak,
		Feedback:  feedback,
	}
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
