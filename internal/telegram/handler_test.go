package telegram

import (
	"context"
	"errors"
	"go/format"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PoluyanbIch/EduMindBot/internal/config"
	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
	"github.com/PoluyanbIch/EduMindBot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

const (
	testChatID  int64 = 42
	otherChatID int64 = 999
	testUserID  int64 = 7
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	fileURL  string
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("file not found")
	}
	return f.fileURL, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

// messages returns every plain message sent so far.
func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) callbacks() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeAPI) lastCallback(t *testing.T) tgbotapi.CallbackConfig {
	t.Helper()
	cbs := f.callbacks()
	require.NotEmpty(t, cbs)
	return cbs[len(cbs)-1]
}

func (f *fakeAPI) findMessage(substr string) (tgbotapi.MessageConfig, bool) {
	for _, m := range f.messages() {
		if strings.Contains(m.Text, substr) {
			return m, true
		}
	}
	return tgbotapi.MessageConfig{}, false
}

func (f *fakeAPI) requireMessage(t *testing.T, substr string) tgbotapi.MessageConfig {
	t.Helper()
	var found tgbotapi.MessageConfig
	require.Eventually(t, func() bool {
		m, ok := f.findMessage(substr)
		found = m
		return ok
	}, 2*time.Second, 10*time.Millisecond, "no message containing %q", substr)
	return found
}

type fakeTutor struct {
	mu        sync.Mutex
	startReq  edumind.StartQuizRequest
	finished  [][]edumind.AnswerResult
	uploaded  map[string]string
	queries   []string
	chatReply string
	chatErr   error
	worksheet *edumind.Worksheet

	// calls wait on these until closed or cancelled
	startBlock chan struct{}
	chatBlock  chan struct{}
}

func waitFor(ctx context.Context, block <-chan struct{}) error {
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ft *fakeTutor) StartQuiz(ctx context.Context, req edumind.StartQuizRequest) (*edumind.StartQuizResponse, error) {
	ft.mu.Lock()
	block := ft.startBlock
	ft.mu.Unlock()
	if err := waitFor(ctx, block); err != nil {
		return nil, err
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.startReq = req
	return &edumind.StartQuizResponse{
		Status:    "success",
		TimeLimit: req.TimeLimit,
		Questions: []edumind.Question{
			{ID: "1", Text: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin", "Madrid"}, CorrectAnswer: "A. Paris", Topic: "Geography"},
			{ID: "2", Text: "Largest ocean?", Options: []string{"Atlantic", "Pacific", "Indian", "Arctic"}, CorrectAnswer: "B. Pacific", Topic: "Oceans"},
		},
	}, nil
}

func (ft *fakeTutor) SubmitAnswer(_ context.Context, req edumind.SubmitAnswerRequest) (bool, error) {
	return req.UserAnswer == req.CorrectAnswer, nil
}

func (ft *fakeTutor) FinishQuiz(_ context.Context, results []edumind.AnswerResult) (*edumind.Summary, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.finished = append(ft.finished, results)
	correct := 0
	for _, r := range results {
		if r.IsCorrect {
			correct++
		}
	}
	score := 0.0
	if len(results) > 0 {
		score = float64(correct*100) / float64(len(results))
	}
	return &edumind.Summary{
		Score: score, Correct: correct, Total: len(results), TimeTaken: 75,
		WeakAreas: []edumind.WeakArea{{Topic: "Oceans", Mistakes: len(results) - correct}},
	}, nil
}

func (ft *fakeTutor) Upload(_ context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.uploaded == nil {
		ft.uploaded = make(map[string]string)
	}
	ft.uploaded[name] = string(data)
	return name, nil
}

func (ft *fakeTutor) Chat(ctx context.Context, query, _ string) (string, error) {
	ft.mu.Lock()
	ft.queries = append(ft.queries, query)
	block := ft.chatBlock
	ft.mu.Unlock()
	if err := waitFor(ctx, block); err != nil {
		return "", err
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.chatReply, ft.chatErr
}

func (ft *fakeTutor) chatQueries() []string {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]string(nil), ft.queries...)
}

func (ft *fakeTutor) GenerateWorksheet(context.Context, string, int) (*edumind.Worksheet, error) {
	return ft.worksheet, nil
}

func testQuizConfig() config.QuizConfig {
	return config.QuizConfig{
		FeedbackDelay:    10 * time.Millisecond,
		NumQuestions:     5,
		Difficulty:       "Medium",
		TimeLimitMinutes: 10,
		MCQCount:         10,
	}
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI, *fakeTutor, *service.MemoryLeaderboardService) {
	t.Helper()
	api := &fakeAPI{}
	tutor := &fakeTutor{}
	lb := service.NewMemoryLeaderboardService()
	b := newBot(api, tutor, lb, testQuizConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(b.stopAll)
	return b, api, tutor, lb
}

var testUser = &tgbotapi.User{ID: testUserID, UserName: "ann", FirstName: "Ann"}

func command(text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: testChatID},
		From:     testUser,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func textMessage(s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Text: s, Chat: &tgbotapi.Chat{ID: testChatID}, From: testUser}}
}

func callback(data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    testUser,
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: testChatID}},
	}}
}

// runBot polls api.updates until the test ends.
func runBot(t *testing.T, b *Bot, api *fakeAPI) {
	t.Helper()
	api.updates = make(chan tgbotapi.Update, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

// quizButton returns the callback data of a button on the chat's current question.
func quizButton(t *testing.T, b *Bot, action string, extra ...int) string {
	t.Helper()
	view, ok := b.controller(testChatID).CurrentQuestion()
	require.True(t, ok, "no active question")
	return quizData(action, view, extra...)
}

func withStudentFile(b *Bot, name string) {
	b.mu.Lock()
	b.state(testChatID).studentFile = name
	b.mu.Unlock()
}

func TestQuizNeedsFile(t *testing.T) {
	b, api, _, _ := newTestBot(t)

	b.handleUpdate(context.Background(), command("/quiz"))
	api.requireMessage(t, "Please upload a PDF first")
}

func TestDocumentUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "%PDF-1.7")
	}))
	defer srv.Close()

	b, api, tutor, _ := newTestBot(t)
	api.fileURL = srv.URL + "/file/bio.pdf"

	doc := tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: testChatID},
		From:     testUser,
		Document: &tgbotapi.Document{FileID: "f1", FileName: "bio.pdf", MimeType: "application/pdf"},
	}}
	b.handleUpdate(context.Background(), doc)
	api.requireMessage(t, "📄 Selected: bio.pdf")
	require.Equal(t, "%PDF-1.7", tutor.uploaded["bio.pdf"])

	b.handleUpdate(context.Background(), command("/teacher"))
	doc.Message.Document = &tgbotapi.Document{FileID: "f2", FileName: "CHEM.PDF"}
	b.handleUpdate(context.Background(), doc)

	b.mu.Lock()
	st := b.state(testChatID)
	require.Equal(t, "bio.pdf", st.studentFile)
	require.Equal(t, "CHEM.PDF", st.teacherFile)
	b.mu.Unlock()

	doc.Message.Document = &tgbotapi.Document{FileID: "f3", FileName: "notes.txt", MimeType: "text/plain"}
	b.handleUpdate(context.Background(), doc)
	api.requireMessage(t, "Please send a PDF file.")
}

func TestQuizFlow(t *testing.T) {
	b, api, tutor, lb := newTestBot(t)
	withStudentFile(b, "geo.pdf")
	ctx := context.Background()

	b.handleUpdate(ctx, command("/quiz 2 easy 3"))
	require.Equal(t, edumind.StartQuizRequest{Filename: "geo.pdf", NumQuestions: 2, Difficulty: "Easy", TimeLimit: 180}, tutor.startReq)
	api.requireMessage(t, "⏱ Time limit: 03:00")
	first := api.requireMessage(t, "Question 1/2")
	kb, ok := first.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 6)
	firstOpt := quizButton(t, b, "opt", 0)
	firstSubmit := quizButton(t, b, "submit")
	require.Equal(t, firstOpt, *kb.InlineKeyboard[0][0].CallbackData)
	require.Equal(t, firstSubmit, *kb.InlineKeyboard[4][0].CallbackData)
	require.True(t, strings.HasPrefix(firstOpt, "opt_"))
	require.LessOrEqual(t, len(firstOpt), 64)

	b.handleUpdate(ctx, callback(firstSubmit))
	cb := api.lastCallback(t)
	require.True(t, cb.ShowAlert)
	require.Equal(t, "Please select an answer", cb.Text)

	b.handleUpdate(ctx, command("/quiz"))
	api.requireMessage(t, "A quiz is already running")

	b.handleUpdate(ctx, callback(firstOpt))
	require.Equal(t, "Selected A. Paris", api.lastCallback(t).Text)
	b.handleUpdate(ctx, callback(firstSubmit))
	api.requireMessage(t, "Correct!")

	api.requireMessage(t, "Question 2/2")
	b.handleUpdate(ctx, callback(firstSubmit))
	require.Equal(t, "That question is no longer active.", api.lastCallback(t).Text)

	b.handleUpdate(ctx, callback(quizButton(t, b, "opt", 2)))
	b.handleUpdate(ctx, callback(quizButton(t, b, "submit")))
	api.requireMessage(t, "Correct answer: B. Pacific")

	api.requireMessage(t, "📈 <b>50%</b>")
	api.requireMessage(t, "You got 1 out of 2 questions correct")
	api.requireMessage(t, "Oceans (1 mistake)")
	api.requireMessage(t, "New personal best!")

	pos, e, err := lb.GetUserPosition(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, pos)
	require.Equal(t, 50, e.Percentage)

	tutor.mu.Lock()
	require.Len(t, tutor.finished, 1)
	require.Len(t, tutor.finished[0], 2)
	tutor.mu.Unlock()
}

func TestSkipQuestion(t *testing.T) {
	b, api, tutor, _ := newTestBot(t)
	withStudentFile(b, "geo.pdf")
	ctx := context.Background()

	b.handleUpdate(ctx, command("/quiz 2"))
	b.handleUpdate(ctx, callback(quizButton(t, b, "skip")))
	api.requireMessage(t, "Question 2/2")
	b.handleUpdate(ctx, callback(quizButton(t, b, "skip")))

	api.requireMessage(t, "Skipped: 2")
	api.requireMessage(t, "Question 1: ⤼ Skipped")
	tutor.mu.Lock()
	require.Len(t, tutor.finished, 1)
	require.Empty(t, tutor.finished[0])
	tutor.mu.Unlock()
}

func TestExitQuiz(t *testing.T) {
	b, api, _, lb := newTestBot(t)
	withStudentFile(b, "geo.pdf")
	ctx := context.Background()

	b.handleUpdate(ctx, command("/stop"))
	api.requireMessage(t, "There is no quiz in progress")

	b.handleUpdate(ctx, command("/quiz"))
	submit := quizButton(t, b, "submit")
	b.handleUpdate(ctx, callback("exit_quiz"))
	api.requireMessage(t, "Quiz stopped")
	require.False(t, b.controller(testChatID).Active())

	b.handleUpdate(ctx, callback(submit))
	require.True(t, api.lastCallback(t).ShowAlert)

	top, err := lb.GetTop(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, top)
}

func TestButtonsFromPreviousQuizAreStale(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	withStudentFile(b, "geo.pdf")
	ctx := context.Background()

	b.handleUpdate(ctx, command("/quiz 2"))
	oldOpt := quizButton(t, b, "opt", 1)
	oldSubmit := quizButton(t, b, "submit")
	oldSkip := quizButton(t, b, "skip")
	b.handleUpdate(ctx, command("/stop"))
	b.handleUpdate(ctx, command("/quiz 2"))
	require.NotEqual(t, oldSubmit, quizButton(t, b, "submit"))

	for _, data := range []string{oldOpt, oldSubmit, oldSkip, "submit_0", "opt_x_0_0"} {
		b.handleUpdate(ctx, callback(data))
		cb := api.lastCallback(t)
		require.True(t, cb.ShowAlert, data)
		require.Equal(t, "That question is no longer active.", cb.Text, data)
	}
	view, ok := b.controller(testChatID).CurrentQuestion()
	require.True(t, ok)
	require.Zero(t, view.Index)

	b.handleUpdate(ctx, callback(quizButton(t, b, "opt", 0)))
	require.Equal(t, "Selected A. Paris", api.lastCallback(t).Text)
}

func TestSlowChatDoesNotBlockOtherChats(t *testing.T) {
	b, api, tutor, _ := newTestBot(t)
	tutor.chatReply = "Answer: Sunlight is scattered by air."
	tutor.chatBlock = make(chan struct{})
	runBot(t, b, api)

	api.updates <- textMessage("Why is the sky blue?")
	require.Eventually(t, func() bool { return len(tutor.chatQueries()) == 1 }, 2*time.Second, 5*time.Millisecond)
	api.updates <- textMessage("And at sunset?")
	menu := command("/start")
	menu.Message.Chat = &tgbotapi.Chat{ID: otherChatID}
	api.updates <- menu

	got := api.requireMessage(t, "EduMind")
	require.Equal(t, otherChatID, got.ChatID)
	require.Equal(t, []string{"Why is the sky blue?"}, tutor.chatQueries())

	close(tutor.chatBlock)
	require.Eventually(t, func() bool { return len(tutor.chatQueries()) == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"Why is the sky blue?", "And at sunset?"}, tutor.chatQueries())
	reply := api.requireMessage(t, "Sunlight is scattered by air.")
	require.Equal(t, testChatID, reply.ChatID)
}

func TestStopWhileQuizIsGenerating(t *testing.T) {
	b, api, tutor, _ := newTestBot(t)
	withStudentFile(b, "geo.pdf")
	tutor.startBlock = make(chan struct{})
	runBot(t, b, api)

	api.updates <- command("/quiz 2")
	api.requireMessage(t, "Generating a medium quiz")
	require.Eventually(t, b.controller(testChatID).Active, 2*time.Second, 5*time.Millisecond)

	api.updates <- command("/stop")
	api.requireMessage(t, "Quiz stopped")
	require.Eventually(t, func() bool { return !b.controller(testChatID).Active() }, 2*time.Second, 5*time.Millisecond)

	api.updates <- command("/leaderboard")
	api.requireMessage(t, "No results yet")
	_, shown := api.findMessage("Question 1/2")
	require.False(t, shown)
}

func TestAskTutorWithFollowUps(t *testing.T) {
	b, api, tutor, _ := newTestBot(t)
	tutor.chatReply = "Answer: Water moves across a membrane.\nFollow-up Questions:\n1. What is a membrane?\n2. What is diffusion?"
	ctx := context.Background()

	b.handleUpdate(ctx, textMessage("What is osmosis?"))
	reply := api.requireMessage(t, "Water moves across a membrane.")
	require.NotContains(t, reply.Text, "Answer:")
	kb, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	require.Equal(t, "fu_1_1", *kb.InlineKeyboard[1][0].CallbackData)

	b.handleUpdate(ctx, callback("fu_1_1"))
	tutor.mu.Lock()
	require.Equal(t, []string{"What is osmosis?", "What is diffusion?"}, tutor.queries)
	tutor.mu.Unlock()

	b.handleUpdate(ctx, callback("fu_9_0"))
	cb := api.lastCallback(t)
	require.True(t, cb.ShowAlert)
	require.Equal(t, "That suggestion has expired. Ask again.", cb.Text)
}

func TestAskTutorFailure(t *testing.T) {
	b, api, tutor, _ := newTestBot(t)
	tutor.chatErr = &edumind.HTTPError{StatusCode: http.StatusServiceUnavailable}

	b.handleUpdate(context.Background(), command("/ask why is the sky blue?"))
	api.requireMessage(t, "⚠️ Error connecting to tutor.")
}

func TestWorksheet(t *testing.T) {
	b, api, tutor, _ := newTestBot(t)
	tutor.worksheet = &edumind.Worksheet{
		Status:       "success",
		PDFURL:       "http://127.0.0.1:8000/static/ws.pdf",
		WorksheetURL: "http://127.0.0.1:8000/static/ws.md",
	}
	ctx := context.Background()

	b.handleUpdate(ctx, command("/worksheet"))
	api.requireMessage(t, "switch to /teacher and send a PDF first")

	b.mu.Lock()
	b.state(testChatID).teacherFile = "chem.pdf"
	b.mu.Unlock()

	b.handleUpdate(ctx, command("/worksheet ten"))
	api.requireMessage(t, "Invalid settings")

	b.handleUpdate(ctx, command("/worksheet 15"))
	msg := api.requireMessage(t, "Worksheet ready!")
	require.Contains(t, msg.Text, "static/ws.pdf")
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard[0], 2)
}

func TestLeaderboardCommand(t *testing.T) {
	b, api, _, lb := newTestBot(t)
	ctx := context.Background()

	b.handleUpdate(ctx, command("/leaderboard"))
	api.requireMessage(t, "No results yet")

	_, err := lb.AddEntry(ctx, service.LeaderboardEntry{UserID: 1, Username: "bo<b>", Score: 4, Total: 5, Percentage: 80, Date: "01.03.2024 10:00"})
	require.NoError(t, err)
	b.handleUpdate(ctx, callback("leaderboard"))
	msg := api.requireMessage(t, "Top 10")
	require.Contains(t, msg.Text, "🥇 1. @bo&lt;b&gt; - 80% (4/5)")
}

func TestStartStopsOnCancel(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	api.updates = make(chan tgbotapi.Update, 1)
	api.updates <- command("/start")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(done)
	}()

	api.requireMessage(t, "EduMind")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestParseQuizArgs(t *testing.T) {
	def := testQuizConfig()
	tests := []struct {
		args    string
		want    service.StartOptions
		wantErr bool
	}{
		{args: "", want: service.StartOptions{NumQuestions: 5, Difficulty: "Medium", TimeLimitMinutes: 10}},
		{args: "8", want: service.StartOptions{NumQuestions: 8, Difficulty: "Medium", TimeLimitMinutes: 10}},
		{args: "hard 3 2", want: service.StartOptions{NumQuestions: 3, Difficulty: "Hard", TimeLimitMinutes: 2}},
		{args: "0", wantErr: true},
		{args: "3 2 1", wantErr: true},
		{args: "impossible", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseQuizArgs(tt.args, def)
		if tt.wantErr {
			require.ErrorIs(t, err, service.ErrInvalidConfig, "args %q", tt.args)
			continue
		}
		require.NoError(t, err, "args %q", tt.args)
		require.Equal(t, tt.want, got, "args %q", tt.args)
	}
}

func TestChunkText(t *testing.T) {
	items := []string{strings.Repeat("a", 40), strings.Repeat("b", 40), strings.Repeat("c", 40)}
	chunks := chunkText(items, 90)
	require.Len(t, chunks, 2)
	require.Equal(t, items[0]+"\n\n"+items[1], chunks[0])
	require.Equal(t, items[2], chunks[1])

	long := chunkText([]string{strings.Repeat("é", 100)}, 51)
	require.Len(t, long, 1)
	require.LessOrEqual(t, len(long[0]), 51)
	require.True(t, strings.HasSuffix(long[0], "…"))
}

func TestNoticeText(t *testing.T) {
	require.Equal(t, "Failed: File not found", noticeText(&edumind.StatusError{Status: "error", Message: "File not found"}))
	require.Equal(t, "The tutor service answered HTTP 502.", noticeText(&edumind.HTTPError{StatusCode: 502}))
	require.Equal(t, "Please upload a PDF first.", noticeText(service.ErrNoFile))
	require.True(t, isPrecondition(errStaleQuestion))
	require.False(t, isPrecondition(errors.New("boom")))
}

func TestSourcesAreGofmtFormatted(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		src, err := os.ReadFile(f)
		require.NoError(t, err)
		formatted, err := format.Source(src)
		require.NoError(t, err, f)
		require.Equal(t, string(formatted), string(src), "%s is not gofmt-formatted", f)
	}
}
