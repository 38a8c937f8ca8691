package edumind

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	pathUpload       = "/api/upload"
	pathStartQuiz    = "/api/student/start"
	pathSubmitAnswer = "/api/student/submit-answer"
	pathFinishQuiz   = "/api/student/finish-quiz"
	pathChat         = "/api/chat"
	pathWorksheet    = "/api/generate-worksheet"

	maxErrorBody = 4 << 10
)

// HTTPError is returned when the service answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("edumind: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("edumind: HTTP %d: %s", e.StatusCode, e.Body)
}

// StatusError is returned when the response body carries a failure status.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("edumind: status %q", e.Status)
	}
	return "edumind: " + e.Message
}

// Client talks to the EduMind tutoring service.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// Upload sends a file as multipart form field "file" and returns the name the
// service stored it under.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var out uploadResponse
	if err := c.do(ctx, pathUpload, mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	if out.Filename == "" {
		return "", errors.New("edumind: upload response has no filename")
	}
	return out.Filename, nil
}

func (c *Client) StartQuiz(ctx context.Context, req StartQuizRequest) (*StartQuizResponse, error) {
	var out StartQuizResponse
	if err := c.postJSON(ctx, pathStartQuiz, req, &out); err != nil {
		return nil, err
	}
	if out.Status != statusSuccess {
		return nil, &StatusError{Status: out.Status, Message: out.Message}
	}
	return &out, nil
}

// SubmitAnswer asks the service to grade one answer. Both strings are
// expected to be normalised already.
func (c *Client) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (bool, error) {
	var out submitAnswerResponse
	if err := c.postJSON(ctx, pathSubmitAnswer, req, &out); err != nil {
		return false, err
	}
	return out.IsCorrect, nil
}

func (c *Client) FinishQuiz(ctx context.Context, results []AnswerResult) (*Summary, error) {
	if results == nil {
		results = []AnswerResult{}
	}
	var out Summary
	if err := c.postJSON(ctx, pathFinishQuiz, finishQuizRequest{Results: results}, &out); err != nil {
		return nil, err
	}
	if out.Status != "" && out.Status != statusSuccess {
		return nil, &StatusError{Status: out.Status, Message: out.Message}
	}
	return &out, nil
}

// Chat returns the tutor's free-text reply.
func (c *Client) Chat(ctx context.Context, query, filename string) (string, error) {
	var out chatResponse
	if err := c.postJSON(ctx, pathChat, chatRequest{Query: query, Filename: filename}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// GenerateWorksheet returns absolute download links for the generated files.
func (c *Client) GenerateWorksheet(ctx context.Context, filename string, mcqCount int) (*Worksheet, error) {
	var out Worksheet
	if err := c.postJSON(ctx, pathWorksheet, worksheetRequest{Filename: filename, MCQCount: mcqCount}, &out); err != nil {
		return nil, err
	}
	if out.Status != statusSuccess {
		return nil, &StatusError{Status: out.Status, Message: out.Message}
	}
	out.PDFURL = c.resolve(out.PDFURL)
	out.WorksheetURL = c.resolve(out.WorksheetURL)
	return &out, nil
}

func (c *Client) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(payload), out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	endpoint := c.baseURL.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("edumind request failed", "path", path, "err", err)
		return fmt.Errorf("edumind %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("edumind request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("edumind %s: decode response: %w", path, err)
	}
	return nil
}
