package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
)

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrInvalidConfig   = errors.New("invalid quiz configuration")
	ErrNoSelection     = errors.New("no option selected")
	ErrNoSession       = errors.New("no quiz in progress")
	ErrSessionActive   = errors.New("a quiz is already in progress")
	ErrSessionTerminal = errors.New("quiz is over")
	ErrNotTerminal     = errors.New("quiz still has questions and time left")
	ErrBusy            = errors.New("previous answer is still being processed")
	ErrMalformedQuiz   = errors.New("service returned an unusable quiz")
)

const (
	DefaultFeedbackDelay = 1500 * time.Millisecond
	DefaultTickInterval  = time.Second
	DefaultFinishTimeout = 30 * time.Second
)

// Grader is the part of the EduMind service the quiz needs.
type Grader interface {
	StartQuiz(ctx context.Context, req edumind.StartQuizRequest) (*edumind.StartQuizResponse, error)
	SubmitAnswer(ctx context.Context, req edumind.SubmitAnswerRequest) (bool, error)
	FinishQuiz(ctx context.Context, results []edumind.AnswerResult) (*edumind.Summary, error)
}

// Renderer receives every visible state change of a quiz. Calls are never
// made while the controller holds its lock.
type Renderer interface {
	ShowQuestion(v QuestionView)
	ShowTimer(remaining int)
	ShowVerdict(index int, r AnswerResult)
	ShowSummary(s QuizSummary)
	ShowError(err error)
}

type ControllerOptions struct {
	FeedbackDelay time.Duration
	TickInterval  time.Duration
	FinishTimeout time.Duration
	Now           func() time.Time
}

func (o ControllerOptions) withDefaults() ControllerOptions {
	if o.FeedbackDelay <= 0 {
		o.FeedbackDelay = DefaultFeedbackDelay
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.FinishTimeout <= 0 {
		o.FinishTimeout = DefaultFinishTimeout
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type StartOptions struct {
	Filename         string
	NumQuestions     int
	Difficulty       string
	TimeLimitMinutes int
}

// Controller runs at most one quiz at a time for a single user.
type Controller struct {
	ctx    context.Context
	grader Grader
	render Renderer
	log    *slog.Logger
	opts   ControllerOptions

	mu        sync.Mutex
	session   *QuizSession
	gen       int
	starting  bool
	finishing bool
	stopTick  chan struct{}
	advanceT  *time.Timer

	cancelStart context.CancelFunc
}

// NewController returns a controller whose background work (countdown,
// delayed advance, finalisation) runs under ctx.
func NewController(ctx context.Context, grader Grader, render Renderer, log *slog.Logger, opts ControllerOptions) *Controller {
	return &Controller{
		ctx:    ctx,
		grader: grader,
		render: render,
		log:    log,
		opts:   opts.withDefaults(),
	}
}

// Session returns the live session, nil when none.
func (c *Controller) Session() *QuizSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// CurrentQuestion returns the question on display, if any.
func (c *Controller) CurrentQuestion() (QuestionView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.Terminal() {
		return QuestionView{}, false
	}
	return c.session.view()
}

// Active reports whether a quiz is being played.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starting || (c.session != nil && c.session.phase != PhaseFinished)
}

func (c *Controller) Start(ctx context.Context, so StartOptions) (*QuizSession, error) {
	if strings.TrimSpace(so.Filename) == "" {
		return nil, ErrNoFile
	}
	if so.NumQuestions <= 0 || so.TimeLimitMinutes <= 0 {
		return nil, fmt.Errorf("%w: questions and time limit must be positive", ErrInvalidConfig)
	}

	c.mu.Lock()
	if c.starting || (c.session != nil && c.session.phase != PhaseFinished) {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	c.starting = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancelStart = cancel
	c.mu.Unlock()
	defer cancel()

	timeLimit := so.TimeLimitMinutes * 60
	resp, err := c.grader.StartQuiz(ctx, edumind.StartQuizRequest{
		Filename:     so.Filename,
		NumQuestions: so.NumQuestions,
		Difficulty:   so.Difficulty,
		TimeLimit:    timeLimit,
	})
	if err == nil {
		err = validateQuiz(resp.Questions)
	}
	if err != nil {
		c.mu.Lock()
		c.starting = false
		c.cancelStart = nil
		c.mu.Unlock()
		return nil, fmt.Errorf("start quiz: %w", err)
	}
	if resp.TimeLimit > 0 {
		timeLimit = resp.TimeLimit
	}

	session := NewQuizSession(so.Filename, so.Difficulty, resp.Questions, timeLimit, c.opts.Now())
	log := c.log.With("session", session.ID)
	if len(resp.Questions) != so.NumQuestions {
		log.Warn("question count differs from request", "requested", so.NumQuestions, "got", len(resp.Questions))
	}

	c.mu.Lock()
	c.starting = false
	c.cancelStart = nil
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		log.Info("quiz discarded, stopped during generation")
		return nil, fmt.Errorf("start quiz: %w", err)
	}
	c.finishing = false
	c.session = session
	c.gen++
	gen := c.gen
	stop := make(chan struct{})
	c.stopTick = stop
	view, _ := session.view()
	c.mu.Unlock()

	go c.runCountdown(gen, stop)
	log.Info("quiz started", "file", so.Filename, "questions", len(session.Questions), "time_limit", timeLimit)

	c.render.ShowTimer(timeLimit)
	c.render.ShowQuestion(view)
	return session, nil
}

func validateQuiz(questions []QuizQuestion) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrMalformedQuiz)
	}
	for i, q := range questions {
		if len(q.Options) == 0 || len(q.Options) > MaxOptions {
			return fmt.Errorf("%w: question %d has %d options", ErrMalformedQuiz, i+1, len(q.Options))
		}
	}
	return nil
}

func (c *Controller) runCountdown(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			c.Stop()
			return
		case <-ticker.C:
			if !c.tick(gen) {
				return
			}
		}
	}
}

// Tick advances the countdown by one second. It is driven by the internal
// ticker and exported for callers that drive time themselves.
func (c *Controller) Tick() {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.tick(gen)
}

func (c *Controller) tick(gen int) bool {
	c.mu.Lock()
	s := c.session
	if gen != c.gen || s == nil || c.finishing {
		c.mu.Unlock()
		return false
	}
	expired := s.Tick()
	remaining := s.TimeRemaining
	c.mu.Unlock()

	c.render.ShowTimer(remaining)
	if expired {
		c.log.Info("quiz time is up", "session", s.ID)
		c.finishInBackground()
		return false
	}
	return true
}

// Submit grades the selected option of the current question. On success the
// verdict is recorded at once and the quiz moves on after the feedback delay.
// On failure nothing is recorded and the question stays answerable.
func (c *Controller) Submit(ctx context.Context, option int) (AnswerResult, error) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return AnswerResult{}, ErrNoSession
	}
	if s.Terminal() {
		c.mu.Unlock()
		return AnswerResult{}, ErrSessionTerminal
	}
	if s.phase != PhaseAnswering {
		c.mu.Unlock()
		return AnswerResult{}, ErrBusy
	}
	idx, q, _ := s.Current()
	if option < 0 || option >= len(q.Options) {
		c.mu.Unlock()
		return AnswerResult{}, ErrNoSelection
	}
	s.phase = PhaseGrading
	elapsed := s.Elapsed(c.opts.Now())
	gen := c.gen
	c.mu.Unlock()

	userAnswer := q.Options[option]
	correct, err := c.grader.SubmitAnswer(ctx, edumind.SubmitAnswerRequest{
		QuestionID:    q.ID,
		UserAnswer:    Normalize(userAnswer),
		CorrectAnswer: Normalize(q.CorrectAnswer),
		TimeTaken:     elapsed,
	})

	c.mu.Lock()
	if gen != c.gen || s.phase != PhaseGrading {
		c.mu.Unlock()
		c.log.Info("verdict arrived after the quiz ended", "session", s.ID, "question", idx+1)
		return AnswerResult{}, ErrSessionTerminal
	}
	if err != nil {
		s.phase = PhaseAnswering
		c.mu.Unlock()
		return AnswerResult{}, fmt.Errorf("submit answer: %w", err)
	}
	result := AnswerResult{
		QuestionID:    q.ID,
		Topic:         q.Topic,
		IsCorrect:     correct,
		TimeTaken:     elapsed,
		UserAnswer:    userAnswer,
		CorrectAnswer: q.CorrectAnswer,
	}
	s.Record(result)
	s.phase = PhaseFeedback
	c.mu.Unlock()

	c.render.ShowVerdict(idx, result)

	c.mu.Lock()
	if gen == c.gen && s.phase == PhaseFeedback {
		c.advanceT = time.AfterFunc(c.opts.FeedbackDelay, func() { c.advance(gen) })
	}
	c.mu.Unlock()
	return result, nil
}

func (c *Controller) advance(gen int) {
	c.mu.Lock()
	s := c.session
	if gen != c.gen || s == nil || s.phase != PhaseFeedback {
		c.mu.Unlock()
		return
	}
	c.advanceT = nil
	more := s.Advance(c.opts.Now())
	view, _ := s.view()
	c.mu.Unlock()

	if more {
		c.render.ShowQuestion(view)
		return
	}
	c.finishInBackground()
}

// Skip moves past the current question without grading it. The question is
// recorded as skipped: neither correct nor incorrect, and not scored.
func (c *Controller) Skip(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if s.Terminal() {
		c.mu.Unlock()
		return ErrSessionTerminal
	}
	if s.phase != PhaseAnswering {
		c.mu.Unlock()
		return ErrBusy
	}
	_, q, _ := s.Current()
	s.Record(AnswerResult{
		QuestionID:    q.ID,
		Topic:         q.Topic,
		TimeTaken:     s.Elapsed(c.opts.Now()),
		CorrectAnswer: q.CorrectAnswer,
		Skipped:       true,
	})
	more := s.Advance(c.opts.Now())
	view, _ := s.view()
	c.mu.Unlock()

	if more {
		c.render.ShowQuestion(view)
		return nil
	}
	_, err := c.Finish(ctx)
	return err
}

func (c *Controller) finishInBackground() {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.FinishTimeout)
	defer cancel()
	if _, err := c.Finish(ctx); err != nil && !errors.Is(err, ErrSessionTerminal) && !errors.Is(err, ErrNoSession) {
		c.log.Error("finish quiz", "err", err)
	}
}

// Finish sends the results to the scorer and shows the summary. Only the
// first call for a session does anything; later calls get
// ErrSessionTerminal. Scorer failures are shown through the renderer as well
// as returned.
func (c *Controller) Finish(ctx context.Context) (*QuizSummary, error) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	if c.finishing {
		c.mu.Unlock()
		return nil, ErrSessionTerminal
	}
	if s.CurrentIndex < len(s.Questions) && s.TimeRemaining > 0 {
		c.mu.Unlock()
		return nil, ErrNotTerminal
	}
	c.finishing = true
	s.phase = PhaseFinished
	c.stopTimersLocked()
	gen := c.gen
	results := s.GradedResults()
	feedback := s.Feedback()
	c.mu.Unlock()

	log := c.log.With("session", s.ID)
	res, err := c.grader.FinishQuiz(ctx, results)

	c.mu.Lock()
	if gen == c.gen {
		c.session = nil
	}
	c.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("finish quiz: %w", err)
		log.Error("scoring failed", "err", err)
		c.render.ShowError(err)
		return nil, err
	}
	summary := newSummary(s, feedback, res)
	log.Info("quiz finished", "score", summary.Score, "correct", summary.Correct, "total", summary.Total, "skipped", summary.Skipped)
	c.render.ShowSummary(summary)
	return &summary, nil
}

// Stop abandons the quiz without scoring it, or cancels one that is still
// being generated. No tick or delayed advance fires afterwards.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelStart != nil {
		c.cancelStart()
		c.cancelStart = nil
		c.log.Info("quiz generation cancelled")
	}
	if c.session == nil {
		return
	}
	c.stopTimersLocked()
	c.session.phase = PhaseFinished
	c.log.Info("quiz stopped", "session", c.session.ID)
	c.session = nil
	c.gen++
}

func (c *Controller) stopTimersLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	if c.advanceT != nil {
		c.advanceT.Stop()
		c.advanceT = nil
	}
}
