package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PoluyanbIch/EduMindBot/internal/config"
	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
	"github.com/PoluyanbIch/EduMindBot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Tutor is the EduMind service as seen by the bot.
type Tutor interface {
	service.Grader
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Chat(ctx context.Context, query, filename string) (string, error)
	GenerateWorksheet(ctx context.Context, filename string, mcqCount int) (*edumind.Worksheet, error)
}

type mode string

const (
	modeStudent mode = "student"
	modeTeacher mode = "teacher"

	maxFollowUpSets = 10
	chatQueueSize   = 32
)

const quizUsage = "usage: /quiz [questions] [Easy|Medium|Hard] [minutes]"

var errStaleQuestion = errors.New("question is no longer active")

type selection struct {
	question int
	option   int
}

var noSelection = selection{question: -1, option: -1}

// chatState is everything the bot remembers about one chat.
type chatState struct {
	mode        mode
	teacherFile string
	studentFile string
	user        *tgbotapi.User

	quiz        *service.Controller
	selected    selection
	questionMsg int
	lastTimer   int

	followUpGen int
	followUps   map[int][]string
}

type Bot struct {
	api         botAPI
	tutor       Tutor
	leaderboard service.LeaderboardService
	quizCfg     config.QuizConfig
	log         *slog.Logger
	httpClient  *http.Client

	ctx     context.Context
	mu      sync.Mutex
	chats   map[int64]*chatState
	queues  map[int64]chan tgbotapi.Update
	workers sync.WaitGroup
}

func NewBot(token string, debug bool, tutor Tutor, leaderboard service.LeaderboardService, quizCfg config.QuizConfig, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	log.Info("authorised", "account", api.Self.UserName)
	return newBot(api, tutor, leaderboard, quizCfg, log), nil
}

func newBot(api botAPI, tutor Tutor, leaderboard service.LeaderboardService, quizCfg config.QuizConfig, log *slog.Logger) *Bot {
	return &Bot{
		api:         api,
		tutor:       tutor,
		leaderboard: leaderboard,
		quizCfg:     quizCfg,
		log:         log,
		httpClient:  &http.Client{Timeout: 2 * time.Minute},
		ctx:         context.Background(),
		chats:       make(map[int64]*chatState),
		queues:      make(map[int64]chan tgbotapi.Update),
	}
}

// Start polls Telegram until ctx is cancelled. Each chat's updates are
// handled in order on that chat's own goroutine, so a slow service call
// only holds up the chat that made it. Running quizzes are stopped on return.
func (b *Bot) Start(ctx context.Context) {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()
	defer b.stopAll()
	defer b.stopWorkers()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(ctx, update)
		}
	}
}

func updateChatID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}

// isStopRequest reports whether update asks to stop the chat's quiz. Those
// skip the chat queue so they can cancel a quiz that is still generating.
func isStopRequest(update tgbotapi.Update) bool {
	if m := update.Message; m != nil {
		return m.IsCommand() && m.Command() == "stop"
	}
	return update.CallbackQuery != nil && update.CallbackQuery.Data == "exit_quiz"
}

// dispatch hands update to its chat's worker, starting one on first use.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	chatID, ok := updateChatID(update)
	if !ok || isStopRequest(update) {
		b.handleUpdate(ctx, update)
		return
	}

	b.mu.Lock()
	q, ok := b.queues[chatID]
	if !ok {
		q = make(chan tgbotapi.Update, chatQueueSize)
		b.queues[chatID] = q
		b.workers.Add(1)
		go b.serveChat(ctx, q)
	}
	b.mu.Unlock()

	select {
	case q <- update:
	default:
		b.log.Warn("chat queue full, update dropped", "chat", chatID, "update", update.UpdateID)
		if cb := update.CallbackQuery; cb != nil {
			b.answerCallback(cb.ID, "⏳ Still working on your last request", nil)
		}
	}
}

func (b *Bot) serveChat(ctx context.Context, q <-chan tgbotapi.Update) {
	defer b.workers.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-q:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// stopWorkers closes every chat queue and waits for the workers to return.
func (b *Bot) stopWorkers() {
	b.mu.Lock()
	for id, q := range b.queues {
		close(q)
		delete(b.queues, id)
	}
	b.mu.Unlock()
	b.workers.Wait()
}

func (b *Bot) stopAll() {
	b.mu.Lock()
	var ctrls []*service.Controller
	for _, st := range b.chats {
		if st.quiz != nil {
			ctrls = append(ctrls, st.quiz)
		}
	}
	b.mu.Unlock()
	for _, c := range ctrls {
		c.Stop()
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if m := update.Message; m != nil {
		chatID := m.Chat.ID
		b.rememberUser(chatID, m.From)
		switch {
		case m.Document != nil:
			b.handleDocument(ctx, m)
		case m.IsCommand():
			b.handleCommand(ctx, m)
		case strings.TrimSpace(m.Text) != "":
			b.askTutor(ctx, chatID, m.Text)
		}
	}
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	args := m.CommandArguments()
	var err error
	switch m.Command() {
	case "start", "menu":
		b.sendMainMenu(chatID)
	case "student":
		b.switchMode(chatID, modeStudent)
	case "teacher":
		b.switchMode(chatID, modeTeacher)
	case "quiz":
		err = b.startQuiz(ctx, chatID, args)
	case "worksheet":
		err = b.generateWorksheet(ctx, chatID, args)
	case "ask":
		b.askTutor(ctx, chatID, args)
	case "stop":
		err = b.exitQuiz(chatID)
	case "leaderboard":
		b.handleLeaderboard(ctx, chatID)
	case "info", "help":
		b.handleInfo(chatID)
	default:
		b.sendMessage(chatID, "Unknown command. Send /start for the menu.")
	}
	if err != nil {
		b.sendNotice(chatID, err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.answerCallback(cb.ID, "", nil)
		return
	}
	chatID := cb.Message.Chat.ID
	b.rememberUser(chatID, cb.From)

	data := cb.Data
	switch {
	case strings.HasPrefix(data, "opt_"):
		toast, err := b.selectOption(chatID, cb.Message.MessageID, data)
		b.answerCallback(cb.ID, toast, err)
	case strings.HasPrefix(data, "submit_"):
		b.answerCallback(cb.ID, "", b.submitAnswer(ctx, chatID, data))
	case strings.HasPrefix(data, "skip_"):
		b.answerCallback(cb.ID, "", b.skipQuestion(ctx, chatID, data))
	case strings.HasPrefix(data, "fu_"):
		query, err := b.followUp(chatID, data)
		b.answerCallback(cb.ID, "", err)
		if err == nil {
			b.askTutor(ctx, chatID, query)
		}
	case data == "exit_quiz":
		b.answerCallback(cb.ID, "", b.exitQuiz(chatID))
	case data == "start_quiz":
		b.answerCallback(cb.ID, "", nil)
		if err := b.startQuiz(ctx, chatID, ""); err != nil {
			b.sendNotice(chatID, err)
		}
	case data == "mode_student":
		b.answerCallback(cb.ID, "", nil)
		b.switchMode(chatID, modeStudent)
	case data == "mode_teacher":
		b.answerCallback(cb.ID, "", nil)
		b.switchMode(chatID, modeTeacher)
	case data == "worksheet":
		b.answerCallback(cb.ID, "", nil)
		if err := b.generateWorksheet(ctx, chatID, ""); err != nil {
			b.sendNotice(chatID, err)
		}
	case data == "leaderboard":
		b.answerCallback(cb.ID, "", nil)
		b.handleLeaderboard(ctx, chatID)
	case data == "info":
		b.answerCallback(cb.ID, "", nil)
		b.handleInfo(chatID)
	case data == "back_to_menu":
		b.answerCallback(cb.ID, "", nil)
		b.sendMainMenu(chatID)
	case data == "noop":
		b.answerCallback(cb.ID, "", nil)
	default:
		b.answerCallback(cb.ID, "", nil)
		b.sendMessage(chatID, "Unknown command")
	}
}

// answerCallback acknowledges a button press. Precondition failures are
// shown as a blocking alert; handlers report other failures in the chat.
func (b *Bot) answerCallback(id, toast string, err error) {
	var cfg tgbotapi.CallbackConfig
	switch {
	case err != nil && isPrecondition(err):
		cfg = tgbotapi.NewCallbackWithAlert(id, noticeText(err))
	default:
		cfg = tgbotapi.NewCallback(id, toast)
	}
	if _, rerr := b.api.Request(cfg); rerr != nil {
		b.log.Warn("answer callback", "err", rerr)
	}
	if err != nil && !isPrecondition(err) {
		b.log.Warn("callback failed", "err", err)
	}
}

func (b *Bot) state(chatID int64) *chatState {
	st, ok := b.chats[chatID]
	if !ok {
		st = &chatState{
			mode:      modeStudent,
			selected:  noSelection,
			lastTimer: -1,
			followUps: make(map[int][]string),
		}
		b.chats[chatID] = st
	}
	return st
}

func (b *Bot) rememberUser(chatID int64, u *tgbotapi.User) {
	if u == nil {
		return
	}
	b.mu.Lock()
	b.state(chatID).user = u
	b.mu.Unlock()
}

func (b *Bot) switchMode(chatID int64, m mode) {
	b.mu.Lock()
	b.state(chatID).mode = m
	b.mu.Unlock()

	switch m {
	case modeTeacher:
		b.sendMessage(chatID, "👩‍🏫 Teacher mode. Send a chapter PDF, then /worksheet [number of MCQs].")
	default:
		b.sendMessage(chatID, "🎓 Student mode. Send a chapter PDF, then /quiz [questions] [Easy|Medium|Hard] [minutes], or just ask me anything about it.")
	}
}

// controller returns the chat's quiz controller, creating it on first use.
func (b *Bot) controller(chatID int64) *service.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.state(chatID)
	if st.quiz == nil {
		st.quiz = service.NewController(b.ctx, b.tutor, &chatView{bot: b, chatID: chatID},
			b.log.With("chat", chatID),
			service.ControllerOptions{FeedbackDelay: b.quizCfg.FeedbackDelay})
	}
	return st.quiz
}

func (b *Bot) startQuiz(ctx context.Context, chatID int64, args string) error {
	so, err := parseQuizArgs(args, b.quizCfg)
	if err != nil {
		return err
	}
	b.mu.Lock()
	so.Filename = b.state(chatID).studentFile
	b.mu.Unlock()
	if so.Filename == "" {
		return service.ErrNoFile
	}

	ctrl := b.controller(chatID)
	if ctrl.Active() {
		return service.ErrSessionActive
	}
	b.sendMessage(chatID, fmt.Sprintf("⏳ Generating a %s quiz with %d questions...", strings.ToLower(so.Difficulty), so.NumQuestions))
	if _, err = ctrl.Start(ctx, so); errors.Is(err, context.Canceled) {
		// stopped with /stop or shutdown
		return nil
	}
	return err
}

func parseQuizArgs(args string, def config.QuizConfig) (service.StartOptions, error) {
	so := service.StartOptions{
		NumQuestions:     def.NumQuestions,
		Difficulty:       def.Difficulty,
		TimeLimitMinutes: def.TimeLimitMinutes,
	}
	ints := 0
	for _, f := range strings.Fields(args) {
		if n, err := strconv.Atoi(f); err == nil {
			if n <= 0 {
				return so, fmt.Errorf("%w: %d is not a positive number; %s", service.ErrInvalidConfig, n, quizUsage)
			}
			switch ints {
			case 0:
				so.NumQuestions = n
			case 1:
				so.TimeLimitMinutes = n
			default:
				return so, fmt.Errorf("%w: too many numbers; %s", service.ErrInvalidConfig, quizUsage)
			}
			ints++
			continue
		}
		d, ok := parseDifficulty(f)
		if !ok {
			return so, fmt.Errorf("%w: unknown difficulty %q; %s", service.ErrInvalidConfig, f, quizUsage)
		}
		so.Difficulty = d
	}
	return so, nil
}

func parseDifficulty(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "easy":
		return "Easy", true
	case "medium":
		return "Medium", true
	case "hard":
		return "Hard", true
	}
	return "", false
}

// parseQuizData splits callback data built by quizData into the session
// tag, the question index and extra trailing numbers.
func parseQuizData(data, action string, extra int) (string, []int, bool) {
	parts := strings.Split(strings.TrimPrefix(data, action+"_"), "_")
	if len(parts) != 2+extra || parts[0] == "" {
		return "", nil, false
	}
	nums := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", nil, false
		}
		nums = append(nums, n)
	}
	return parts[0], nums, true
}

// activeQuestion returns the chat's current question if the button's
// session tag and question index still point at it.
func (b *Bot) activeQuestion(chatID int64, tag string, qIdx int) (*service.Controller, service.QuestionView, error) {
	ctrl := b.controller(chatID)
	view, ok := ctrl.CurrentQuestion()
	if !ok {
		return nil, view, service.ErrNoSession
	}
	if tag != sessionTag(view.SessionID) || qIdx != view.Index {
		return nil, view, errStaleQuestion
	}
	return ctrl, view, nil
}

// selectOption handles "opt_<session>_<question>_<option>".
func (b *Bot) selectOption(chatID int64, messageID int, data string) (string, error) {
	tag, nums, ok := parseQuizData(data, "opt", 1)
	if !ok {
		return "", errStaleQuestion
	}
	qIdx, opt := nums[0], nums[1]

	_, view, err := b.activeQuestion(chatID, tag, qIdx)
	if err != nil {
		return "", err
	}
	if opt >= len(view.Options) {
		return "", errStaleQuestion
	}

	b.mu.Lock()
	b.state(chatID).selected = selection{question: qIdx, option: opt}
	b.mu.Unlock()

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, questionKeyboard(view, opt))
	if _, err := b.api.Request(edit); err != nil {
		b.log.Warn("mark selected option", "chat", chatID, "err", err)
	}
	return "Selected " + service.LabelOption(opt, view.Options[opt]), nil
}

// submitAnswer handles "submit_<session>_<question>".
func (b *Bot) submitAnswer(ctx context.Context, chatID int64, data string) error {
	tag, nums, ok := parseQuizData(data, "submit", 0)
	if !ok {
		return errStaleQuestion
	}
	qIdx := nums[0]
	ctrl, _, err := b.activeQuestion(chatID, tag, qIdx)
	if err != nil {
		return err
	}

	b.mu.Lock()
	sel := b.state(chatID).selected
	b.mu.Unlock()
	if sel.question != qIdx || sel.option < 0 {
		return service.ErrNoSelection
	}

	if _, err := ctrl.Submit(ctx, sel.option); err != nil {
		if !isPrecondition(err) {
			b.log.Error("submit answer", "chat", chatID, "err", err)
			b.sendNotice(chatID, err)
		}
		return err
	}
	return nil
}

// skipQuestion handles "skip_<session>_<question>".
func (b *Bot) skipQuestion(ctx context.Context, chatID int64, data string) error {
	tag, nums, ok := parseQuizData(data, "skip", 0)
	if !ok {
		return errStaleQuestion
	}
	ctrl, _, err := b.activeQuestion(chatID, tag, nums[0])
	if err != nil {
		return err
	}
	err = ctrl.Skip(ctx)
	if err != nil && !isPrecondition(err) {
		// scorer failures were already shown by the controller
		b.log.Error("skip question", "chat", chatID, "err", err)
	}
	return err
}

func (b *Bot) exitQuiz(chatID int64) error {
	ctrl := b.controller(chatID)
	if !ctrl.Active() {
		return service.ErrNoSession
	}
	ctrl.Stop()

	b.mu.Lock()
	st := b.state(chatID)
	st.selected = noSelection
	st.lastTimer = -1
	b.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, "🚪 Quiz stopped.\nYour result was not saved.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start again", "start_quiz"),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", "back_to_menu"),
		),
	)
	b.send(msg)
	return nil
}

func isPDF(doc *tgbotapi.Document) bool {
	return doc.MimeType == "application/pdf" || strings.EqualFold(path.Ext(doc.FileName), ".pdf")
}

func (b *Bot) handleDocument(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	doc := m.Document
	if !isPDF(doc) {
		b.sendMessage(chatID, "Please send a PDF file.")
		return
	}

	name, err := b.uploadDocument(ctx, doc)
	if err != nil {
		b.log.Error("upload failed", "chat", chatID, "file", doc.FileName, "err", err)
		b.sendMessage(chatID, "⚠️ Upload failed: "+err.Error())
		return
	}

	b.mu.Lock()
	st := b.state(chatID)
	current := st.mode
	if current == modeTeacher {
		st.teacherFile = name
	} else {
		st.studentFile = name
	}
	b.mu.Unlock()

	b.log.Info("file uploaded", "chat", chatID, "mode", string(current), "file", name)
	hint := "Send /quiz to start a timed quiz or ask me anything about it."
	if current == modeTeacher {
		hint = "Send /worksheet [number of MCQs] to generate a worksheet."
	}
	b.sendMessage(chatID, fmt.Sprintf("📄 Selected: %s\n%s", name, hint))
}

func (b *Bot) uploadDocument(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("locate telegram file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download telegram file: HTTP %d", resp.StatusCode)
	}

	name := doc.FileName
	if name == "" {
		name = doc.FileUniqueID + ".pdf"
	}
	return b.tutor.Upload(ctx, name, resp.Body)
}

func (b *Bot) generateWorksheet(ctx context.Context, chatID int64, args string) error {
	count := b.quizCfg.MCQCount
	if f := strings.Fields(args); len(f) > 0 {
		n, err := strconv.Atoi(f[0])
		if err != nil || n <= 0 || len(f) > 1 {
			return fmt.Errorf("%w: usage /worksheet [number of MCQs]", service.ErrInvalidConfig)
		}
		count = n
	}

	b.mu.Lock()
	file := b.state(chatID).teacherFile
	b.mu.Unlock()
	if file == "" {
		return fmt.Errorf("%w: switch to /teacher and send a PDF first", service.ErrNoFile)
	}

	b.sendMessage(chatID, "⏳ Generating worksheet...")
	ws, err := b.tutor.GenerateWorksheet(ctx, file, count)
	if err != nil {
		b.log.Error("generate worksheet", "chat", chatID, "err", err)
		return fmt.Errorf("generation failed: %w", err)
	}
	b.sendWorksheet(chatID, ws)
	return nil
}

// askTutor sends query to the tutor and shows the answer with its
// follow-up questions as buttons.
func (b *Bot) askTutor(ctx context.Context, chatID int64, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	b.mu.Lock()
	st := b.state(chatID)
	file := st.studentFile
	if file == "" {
		file = st.teacherFile
	}
	b.mu.Unlock()

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("chat action", "err", err)
	}

	response, err := b.tutor.Chat(ctx, query, file)
	if err != nil {
		b.log.Error("tutor chat", "chat", chatID, "err", err)
		b.sendMessage(chatID, "⚠️ Error connecting to tutor.")
		return
	}

	reply := service.ParseTutorReply(response)
	gen := 0
	if len(reply.FollowUps) > 0 {
		b.mu.Lock()
		st := b.state(chatID)
		st.followUpGen++
		gen = st.followUpGen
		st.followUps[gen] = reply.FollowUps
		delete(st.followUps, gen-maxFollowUpSets)
		b.mu.Unlock()
	}
	b.sendTutorReply(chatID, reply, gen)
}

// followUp resolves "fu_<set>_<n>" to the question text.
func (b *Bot) followUp(chatID int64, data string) (string, error) {
	parts := strings.Split(data, "_")
	if len(parts) != 3 {
		return "", errExpiredFollowUp
	}
	gen, err1 := strconv.Atoi(parts[1])
	n, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return "", errExpiredFollowUp
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	qs := b.state(chatID).followUps[gen]
	if n < 0 || n >= len(qs) {
		return "", errExpiredFollowUp
	}
	return qs[n], nil
}

var errExpiredFollowUp = errors.New("this suggestion has expired")

func (b *Bot) handleLeaderboard(ctx context.Context, chatID int64) {
	top, err := b.leaderboard.GetTop(ctx, 10)
	if err != nil {
		b.log.Error("load leaderboard", "err", err)
		b.sendMessage(chatID, "⚠️ Could not load the leaderboard.")
		return
	}
	b.sendLeaderboard(chatID, top)
}

func (b *Bot) recordScore(chatID int64, summary service.QuizSummary) {
	if summary.Total <= 0 {
		return
	}
	b.mu.Lock()
	user := b.state(chatID).user
	parent := b.ctx
	b.mu.Unlock()
	if user == nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, 15*time.Second)
	defer cancel()

	entry := service.NewLeaderboardEntry(user.ID, user.UserName, user.FirstName, summary, time.Now())
	isNewBest, err := b.leaderboard.AddEntry(ctx, entry)
	if err != nil {
		b.log.Error("save leaderboard entry", "chat", chatID, "err", err)
		b.sendMessage(chatID, "⚠️ Your result could not be saved to the leaderboard.")
		return
	}
	if !isNewBest {
		return
	}
	position, _, err := b.leaderboard.GetUserPosition(ctx, user.ID)
	if err != nil {
		b.log.Warn("leaderboard position", "chat", chatID, "err", err)
		return
	}
	if position != -1 {
		b.sendHTML(chatID, fmt.Sprintf("🎉 <b>New personal best!</b> You are #%d on the leaderboard!", position))
	}
}
