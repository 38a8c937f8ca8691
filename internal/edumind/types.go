package edumind

import (
	"bytes"
	"encoding/json"
	"strconv"
)

const statusSuccess = "success"

// QuestionID is the service's question identifier. The service emits
// integers today but nothing in the contract promises it, so both numbers
// and strings are accepted and numeric ids are sent back as numbers.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = QuestionID(n.String())
	return nil
}

func (id QuestionID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type Question struct {
	ID            QuestionID `json:"id"`
	Text          string     `json:"text"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	Topic         string     `json:"topic,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
}

// AnswerResult is one entry of a quiz's results list. Skipped entries never
// leave the client.
type AnswerResult struct {
	QuestionID    QuestionID `json:"question_id"`
	Topic         string     `json:"topic"`
	IsCorrect     bool       `json:"is_correct"`
	TimeTaken     int        `json:"time_taken"`
	UserAnswer    string     `json:"user_answer"`
	CorrectAnswer string     `json:"correct_answer"`
	Skipped       bool       `json:"-"`
}

type WeakArea struct {
	Topic    string `json:"topic"`
	Mistakes int    `json:"mistakes"`
}

type StartQuizRequest struct {
	Filename     string `json:"filename"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
	TimeLimit    int    `json:"time_limit"`
}

type StartQuizResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Questions []Question `json:"questions"`
	TimeLimit int        `json:"time_limit"`
}

type SubmitAnswerRequest struct {
	QuestionID    QuestionID `json:"question_id"`
	UserAnswer    string     `json:"user_answer"`
	CorrectAnswer string     `json:"correct_answer"`
	TimeTaken     int        `json:"time_taken"`
}

type submitAnswerResponse struct {
	IsCorrect bool `json:"is_correct"`
}

type finishQuizRequest struct {
	Results []AnswerResult `json:"results"`
}

// Summary is the scorer's aggregate for a finished quiz.
type Summary struct {
	Status    string     `json:"status,omitempty"`
	Message   string     `json:"message,omitempty"`
	Score     float64    `json:"score"`
	Correct   int        `json:"correct"`
	Total     int        `json:"total"`
	TimeTaken int        `json:"time_taken"`
	WeakAreas []WeakArea `json:"weak_areas"`
}

type chatRequest struct {
	Query    string `json:"query"`
	Filename string `json:"filename"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type worksheetRequest struct {
	Filename string `json:"filename"`
	MCQCount int    `json:"mcq_count"`
}

type Worksheet struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	PDFURL       string `json:"pdf_url"`
	WorksheetURL string `json:"worksheet_url"`
}

type uploadResponse struct {
	Filename string `json:"filename"`
}
