package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the bot reads from the environment.
type Config struct {
	TelegramToken string
	BotDebug      bool
	LogLevel      slog.Level

	EduMind EduMindConfig
	Quiz    QuizConfig

	Leaderboard LeaderboardConfig
}

// EduMindConfig describes the tutoring service.
type EduMindConfig struct {
	BaseURL string
	Timeout time.Duration
}

// QuizConfig holds quiz defaults used when a command leaves them out.
type QuizConfig struct {
	FeedbackDelay    time.Duration
	NumQuestions     int
	Difficulty       string
	TimeLimitMinutes int
	MCQCount         int
}

// LeaderboardConfig selects the leaderboard backend.
type LeaderboardConfig struct {
	GistID        string
	GithubToken   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads a .env file when present, then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	p := &parser{}
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BotDebug:      p.boolVar("BOT_DEBUG", false),
		LogLevel:      p.level("LOG_LEVEL", slog.LevelInfo),
		EduMind: EduMindConfig{
			BaseURL: getEnvOrDefault("EDUMIND_BASE_URL", "http://127.0.0.1:8000"),
			Timeout: p.duration("EDUMIND_TIMEOUT", 120*time.Second),
		},
		Quiz: QuizConfig{
			FeedbackDelay:    p.duration("QUIZ_FEEDBACK_DELAY", 1500*time.Millisecond),
			NumQuestions:     p.positiveInt("QUIZ_NUM_QUESTIONS", 5),
			Difficulty:       getEnvOrDefault("QUIZ_DIFFICULTY", "Medium"),
			TimeLimitMinutes: p.positiveInt("QUIZ_TIME_LIMIT_MINUTES", 10),
			MCQCount:         p.positiveInt("WORKSHEET_MCQ_COUNT", 10),
		},
		Leaderboard: LeaderboardConfig{
			GistID:        os.Getenv("GITHUB_GIST_ID"),
			GithubToken:   os.Getenv("GITHUB_TOKEN"),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       p.intVar("REDIS_DB", 0),
		},
	}

	if cfg.TelegramToken == "" {
		p.errs = append(p.errs, errors.New("TELEGRAM_BOT_TOKEN environment variable is required"))
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) positiveInt(key string, def int) int {
	n := p.intVar(key, def)
	if n <= 0 {
		p.fail(key, os.Getenv(key), errors.New("must be positive"))
		return def
	}
	return n
}

func (p *parser) boolVar(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	if d <= 0 {
		p.fail(key, v, errors.New("must be positive"))
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
		p.fail(key, v, err)
		return def
	}
	return l
}
