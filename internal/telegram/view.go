package telegram

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
	"github.com/PoluyanbIch/EduMindBot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxMessageLen  = 4000
	maxButtonLabel = 60
	sourceURL      = "https://github.com/PoluyanbIch/EduMindBot"
	authorURL      = "https://github.com/PoluyanbIch"
	authorTelegram = "https://t.me/PoluyanbIch"
	noExplanation  = "No explanation available."
	parseModeHTML  = tgbotapi.ModeHTML
	sessionTagLen  = 8
)

// timerAnnouncements are the remaining-time marks worth a message.
var timerAnnouncements = map[int]bool{300: true, 60: true, 30: true, 10: true}

// chatView renders one chat's quiz.
type chatView struct {
	bot    *Bot
	chatID int64
}

func (v *chatView) ShowQuestion(q service.QuestionView) {
	b := v.bot
	b.mu.Lock()
	b.state(v.chatID).selected = noSelection
	b.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "❓ <b>Question %d/%d</b>   ⏱ %s\n", q.Index+1, q.Total, service.FormatClock(q.TimeRemaining))
	if q.Topic != "" {
		fmt.Fprintf(&sb, "<i>%s</i>\n", html.EscapeString(q.Topic))
	}
	fmt.Fprintf(&sb, "\n%d. %s\n\n", q.Index+1, html.EscapeString(q.Text))
	for i, opt := range q.Options {
		sb.WriteString(html.EscapeString(service.LabelOption(i, opt)) + "\n")
	}

	msg := tgbotapi.NewMessage(v.chatID, sb.String())
	msg.ParseMode = parseModeHTML
	msg.ReplyMarkup = questionKeyboard(q, -1)
	sent, ok := b.send(msg)
	if !ok {
		return
	}
	b.mu.Lock()
	b.state(v.chatID).questionMsg = sent.MessageID
	b.mu.Unlock()
}

func (v *chatView) ShowTimer(remaining int) {
	b := v.bot
	b.mu.Lock()
	st := b.state(v.chatID)
	first := st.lastTimer < 0 || remaining > st.lastTimer
	st.lastTimer = remaining
	b.mu.Unlock()

	switch {
	case first:
		b.sendMessage(v.chatID, "⏱ Time limit: "+service.FormatClock(remaining))
	case remaining == 0:
		b.sendMessage(v.chatID, "⏰ Time is up!")
	case timerAnnouncements[remaining]:
		b.sendMessage(v.chatID, "⏱ "+service.FormatClock(remaining)+" left")
	}
}

func (v *chatView) ShowVerdict(index int, r service.AnswerResult) {
	b := v.bot
	b.mu.Lock()
	msgID := b.state(v.chatID).questionMsg
	b.mu.Unlock()

	if msgID != 0 {
		edit := tgbotapi.NewEditMessageReplyMarkup(v.chatID, msgID, answeredKeyboard(r))
		if _, err := b.api.Request(edit); err != nil {
			b.log.Debug("close answered question", "chat", v.chatID, "err", err)
		}
	}

	text := "✅ <b>Correct!</b> 🎉"
	if !r.IsCorrect {
		text = fmt.Sprintf("❌ <b>Incorrect.</b>\nCorrect answer: %s", html.EscapeString(r.CorrectAnswer))
	}
	b.sendHTML(v.chatID, text)
}

func (v *chatView) ShowSummary(s service.QuizSummary) {
	b := v.bot
	b.mu.Lock()
	b.state(v.chatID).lastTimer = -1
	b.mu.Unlock()

	b.sendHTML(v.chatID, summaryText(s))
	for _, chunk := range chunkText(feedbackItems(s.Feedback), maxMessageLen) {
		b.sendHTML(v.chatID, chunk)
	}
	b.recordScore(v.chatID, s)

	msg := tgbotapi.NewMessage(v.chatID, "What next?")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start again", "start_quiz"),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Menu", "back_to_menu"),
		),
	)
	b.send(msg)
}

func (v *chatView) ShowError(err error) {
	v.bot.sendNotice(v.chatID, err)
}

func questionKeyboard(q service.QuestionView, selected int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, opt := range q.Options {
		label := truncate(service.LabelOption(i, opt), maxButtonLabel)
		if i == selected {
			label = "🔘 " + label
		}
		data := quizData("opt", q, i)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(label, data)))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Submit", quizData("submit", q)),
			tgbotapi.NewInlineKeyboardButtonData("⏭ Next", quizData("skip", q)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Exit quiz", "exit_quiz"),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sessionTag shortens a session ID for callback data, which Telegram
// limits to 64 bytes.
func sessionTag(sessionID string) string {
	if len(sessionID) > sessionTagLen {
		return sessionID[:sessionTagLen]
	}
	return sessionID
}

// quizData builds the callback data of a question button:
// <action>_<session tag>_<question>[_<n>...], e.g. "opt_9f1c2ab4_0_2".
func quizData(action string, q service.QuestionView, extra ...int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s_%s_%d", action, sessionTag(q.SessionID), q.Index)
	for _, n := range extra {
		fmt.Fprintf(&sb, "_%d", n)
	}
	return sb.String()
}

func answeredKeyboard(r service.AnswerResult) tgbotapi.InlineKeyboardMarkup {
	mark := "✅ "
	if !r.IsCorrect {
		mark = "❌ "
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark+truncate(r.UserAnswer, maxButtonLabel), "noop"),
		),
	)
}

func summaryText(s service.QuizSummary) string {
	var sb strings.Builder
	sb.WriteString("🏁 <b>Quiz completed!</b> 🎉\n\n")
	fmt.Fprintf(&sb, "📈 <b>%d%%</b>\n", s.ScorePercent())
	fmt.Fprintf(&sb, "You got %d out of %d questions correct\n", s.Correct, s.Total)
	if s.Skipped > 0 {
		fmt.Fprintf(&sb, "Skipped: %d\n", s.Skipped)
	}
	fmt.Fprintf(&sb, "Time taken: %dm %ds\n", s.TimeTaken/60, s.TimeTaken%60)
	if len(s.WeakAreas) > 0 {
		sb.WriteString("\n<b>Areas to improve:</b>\n")
		for _, w := range s.WeakAreas {
			fmt.Fprintf(&sb, "• %s (%d %s)\n", html.EscapeString(w.Topic), w.Mistakes, plural(w.Mistakes, "mistake", "mistakes"))
		}
	}
	return sb.String()
}

func feedbackItems(feedback []service.QuestionFeedback) []string {
	items := make([]string, 0, len(feedback)+1)
	if len(feedback) > 0 {
		items = append(items, "<b>Question-by-question feedback</b>")
	}
	for _, f := range feedback {
		var sb strings.Builder
		switch f.Outcome {
		case service.OutcomeCorrect:
			fmt.Fprintf(&sb, "<b>Question %d: ✓ Correct</b>\n", f.Number)
		case service.OutcomeIncorrect:
			fmt.Fprintf(&sb, "<b>Question %d: ✗ Incorrect</b>\n", f.Number)
		default:
			fmt.Fprintf(&sb, "<b>Question %d: ⤼ Skipped</b>\n", f.Number)
		}
		fmt.Fprintf(&sb, "<b>Question:</b> %s\n", html.EscapeString(f.Question))
		if f.Outcome != service.OutcomeSkipped {
			fmt.Fprintf(&sb, "<b>Your answer:</b> %s\n", html.EscapeString(f.UserAnswer))
		}
		if f.Outcome != service.OutcomeCorrect {
			fmt.Fprintf(&sb, "<b>Correct answer:</b> %s\n", html.EscapeString(f.CorrectAnswer))
		}
		explanation := f.Explanation
		if explanation == "" {
			explanation = noExplanation
		}
		fmt.Fprintf(&sb, "<b>Explanation:</b> %s", html.EscapeString(explanation))
		items = append(items, sb.String())
	}
	return items
}

// chunkText joins items with blank lines into messages no longer than
// limit bytes. A single item longer than limit is cut at a rune boundary.
func chunkText(items []string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	for _, item := range items {
		if len(item) > limit {
			item = truncate(item, limit)
		}
		if cur.Len() > 0 && cur.Len()+2+len(item) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(item)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit - len("…")
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (b *Bot) sendTutorReply(chatID int64, reply service.TutorReply, gen int) {
	answer := reply.Answer
	if answer == "" {
		answer = "…"
	}
	text := html.EscapeString(answer)
	var rows [][]tgbotapi.InlineKeyboardButton
	if len(reply.FollowUps) > 0 {
		text += "\n\n<b>Explore further</b>"
		for i, q := range reply.FollowUps {
			data := fmt.Sprintf("fu_%d_%d", gen, i)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(truncate(q, maxButtonLabel), data),
			))
		}
	}
	for i, chunk := range chunkText([]string{text}, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = parseModeHTML
		if i == 0 && len(rows) > 0 {
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		}
		b.send(msg)
	}
}

func (b *Bot) sendWorksheet(chatID int64, ws *edumind.Worksheet) {
	var lines []string
	var row []tgbotapi.InlineKeyboardButton
	if ws.PDFURL != "" {
		lines = append(lines, "📄 Worksheet.pdf: "+ws.PDFURL)
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("Download PDF", ws.PDFURL))
	}
	if ws.WorksheetURL != "" {
		lines = append(lines, "📝 Worksheet.md: "+ws.WorksheetURL)
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("Download Markdown", ws.WorksheetURL))
	}
	text := "✅ Worksheet ready!\n\n" + strings.Join(lines, "\n")

	msg := tgbotapi.NewMessage(chatID, text)
	if len(row) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}
	if _, err := b.api.Send(msg); err != nil {
		// Telegram refuses URL buttons pointing at hosts it cannot reach
		b.log.Warn("send worksheet buttons", "chat", chatID, "err", err)
		b.sendMessage(chatID, text)
	}
}

func (b *Bot) sendMainMenu(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "📋 <b>EduMind</b>\n\nSend a chapter PDF, then pick what to do with it.")
	msg.ParseMode = parseModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎓 Student", "mode_student"),
			tgbotapi.NewInlineKeyboardButtonData("👩‍🏫 Teacher", "mode_teacher"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start quiz", "start_quiz"),
			tgbotapi.NewInlineKeyboardButtonData("📝 Worksheet", "worksheet"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", "leaderboard"),
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Info", "info"),
		),
	)
	b.send(msg)
}

func (b *Bot) sendLeaderboard(chatID int64, top []service.LeaderboardEntry) {
	if len(top) == 0 {
		b.sendHTML(chatID, "🏆 <b>Leaderboard</b>\n\nNo results yet. Be the first! 🎯")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 <b>Top 10</b>\n\n")
	for i, entry := range top {
		username := entry.FirstName
		if entry.Username != "" {
			username = "@" + entry.Username
		}

		medal := "🔸"
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		}

		fmt.Fprintf(&sb, "%s %d. %s - %d%% (%d/%d)\n   📅 %s\n\n",
			medal, i+1, html.EscapeString(username), entry.Percentage, entry.Score, entry.Total, entry.Date)
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = parseModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Start quiz", "start_quiz"),
			tgbotapi.NewInlineKeyboardButtonData("📋 Menu", "back_to_menu"),
		),
	)
	b.send(msg)
}

func (b *Bot) handleInfo(chatID int64) {
	text := "EduMind turns a chapter PDF into worksheets, timed quizzes and a tutor you can chat with.\n\n" +
		"/student – quiz and chat mode\n" +
		"/teacher – worksheet mode\n" +
		"/quiz [questions] [Easy|Medium|Hard] [minutes]\n" +
		"/worksheet [number of MCQs]\n" +
		"/ask <question> – or just type it\n" +
		"/stop – abandon the running quiz\n" +
		"/leaderboard"

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📂 Source", sourceURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Author", authorURL),
			tgbotapi.NewInlineKeyboardButtonURL("💬 Contact", authorTelegram),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "back_to_menu"),
		),
	)
	b.send(msg)
}

func isPrecondition(err error) bool {
	for _, target := range []error{
		service.ErrNoFile,
		service.ErrNoSelection,
		service.ErrNoSession,
		service.ErrBusy,
		service.ErrSessionActive,
		service.ErrSessionTerminal,
		service.ErrInvalidConfig,
		errStaleQuestion,
		errExpiredFollowUp,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// noticeText turns an error into the message the user sees.
func noticeText(err error) string {
	var statusErr *edumind.StatusError
	var httpErr *edumind.HTTPError
	switch {
	case errors.Is(err, service.ErrNoFile):
		return strings.TrimSpace("Please upload a PDF first. " + detail(err, service.ErrNoFile))
	case errors.Is(err, service.ErrNoSelection):
		return "Please select an answer"
	case errors.Is(err, service.ErrBusy):
		return "Hold on, your answer is still being checked."
	case errors.Is(err, service.ErrSessionActive):
		return "A quiz is already running. Finish it or press Exit."
	case errors.Is(err, service.ErrSessionTerminal), errors.Is(err, service.ErrNoSession):
		return "There is no quiz in progress. Send /quiz to start one."
	case errors.Is(err, service.ErrInvalidConfig):
		return "Invalid settings: " + detail(err, service.ErrInvalidConfig)
	case errors.Is(err, errStaleQuestion):
		return "That question is no longer active."
	case errors.Is(err, errExpiredFollowUp):
		return "That suggestion has expired. Ask again."
	case errors.Is(err, service.ErrMalformedQuiz):
		return "The tutor sent a quiz that can't be shown. Please try again."
	case errors.As(err, &statusErr):
		msg := statusErr.Message
		if msg == "" {
			msg = statusErr.Status
		}
		return "Failed: " + msg
	case errors.As(err, &httpErr):
		return fmt.Sprintf("The tutor service answered HTTP %d.", httpErr.StatusCode)
	}
	return "Something went wrong: " + err.Error()
}

// detail strips the sentinel's own text from a wrapped error.
func detail(err, sentinel error) string {
	s := strings.TrimPrefix(err.Error(), sentinel.Error())
	return strings.TrimSpace(strings.TrimPrefix(s, ":"))
}

func (b *Bot) sendNotice(chatID int64, err error) {
	b.sendMessage(chatID, "⚠️ "+noticeText(err))
}

func (b *Bot) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	m, err := b.api.Send(c)
	if err != nil {
		b.log.Error("telegram send", "err", err)
		return m, false
	}
	return m, true
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseModeHTML
	b.send(msg)
}
