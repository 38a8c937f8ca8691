package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const leaderboardDateLayout = "02.01.2006 15:04"

type LeaderboardEntry struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Date       string `json:"date"`
}

// NewLeaderboardEntry builds the entry for a finished quiz.
func NewLeaderboardEntry(userID int64, username, firstName string, summary QuizSummary, at time.Time) LeaderboardEntry {
	return LeaderboardEntry{
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		Score:      summary.Correct,
		Total:      summary.Total,
		Percentage: summary.ScorePercent(),
		Date:       at.Format(leaderboardDateLayout),
	}
}

// LeaderboardService keeps each user's best quiz result.
type LeaderboardService interface {
	// AddEntry stores e if it beats the user's previous best and reports
	// whether it did.
	AddEntry(ctx context.Context, e LeaderboardEntry) (bool, error)
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetUserPosition(ctx context.Context, userID int64) (int, *LeaderboardEntry, error)
}

type LeaderboardConfig struct {
	GistID        string
	GithubToken   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewLeaderboardService picks Redis when configured, then a GitHub Gist,
// then an in-memory board that is lost on restart.
func NewLeaderboardService(ctx context.Context, cfg LeaderboardConfig, log *slog.Logger) (LeaderboardService, error) {
	switch {
	case cfg.RedisAddr != "":
		log.Info("leaderboard backend", "backend", "redis", "addr", cfg.RedisAddr)
		rs, err := NewRedisLeaderboardService(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log.With("backend", "redis"))
		if err != nil {
			return nil, err
		}
		return rs, nil
	case cfg.GistID != "" && cfg.GithubToken != "":
		log.Info("leaderboard backend", "backend", "gist", "gist", cfg.GistID)
		return NewGistLeaderboardService(cfg.GistID, cfg.GithubToken), nil
	}
	log.Info("leaderboard backend", "backend", "memory")
	return NewMemoryLeaderboardService(), nil
}

// isBetter orders results by percentage, then by number of correct answers.
func isBetter(a, b LeaderboardEntry) bool {
	if a.Percentage == b.Percentage {
		return a.Score > b.Score
	}
	return a.Percentage > b.Percentage
}

// mergeEntry applies e to entries and reports whether it was stored.
func mergeEntry(entries []LeaderboardEntry, e LeaderboardEntry) ([]LeaderboardEntry, bool) {
	for i, old := range entries {
		if old.UserID == e.UserID {
			if isBetter(e, old) {
				entries[i] = e
				return entries, true
			}
			return entries, false
		}
	}
	return append(entries, e), true
}

func topEntries(entries []LeaderboardEntry, limit int) []LeaderboardEntry {
	sorted := make([]LeaderboardEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return isBetter(sorted[i], sorted[j])
	})
	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}

func positionOf(entries []LeaderboardEntry, userID int64) (int, *LeaderboardEntry) {
	for i, entry := range topEntries(entries, 0) {
		if entry.UserID == userID {
			return i + 1, &entry
		}
	}
	return -1, nil
}

// MemoryLeaderboardService is the fallback when no storage is configured.
type MemoryLeaderboardService struct {
	mu      sync.RWMutex
	entries []LeaderboardEntry
}

func NewMemoryLeaderboardService() *MemoryLeaderboardService {
	return &MemoryLeaderboardService{entries: make([]LeaderboardEntry, 0)}
}

func (ms *MemoryLeaderboardService) AddEntry(_ context.Context, e LeaderboardEntry) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var stored bool
	ms.entries, stored = mergeEntry(ms.entries, e)
	return stored, nil
}

func (ms *MemoryLeaderboardService) GetTop(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return topEntries(ms.entries, limit), nil
}

func (ms *MemoryLeaderboardService) GetUserPosition(_ context.Context, userID int64) (int, *LeaderboardEntry, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	pos, e := positionOf(ms.entries, userID)
	return pos, e, nil
}
