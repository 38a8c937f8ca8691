package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const githubAPI = "https://api.github.com"

// GistLeaderboardService keeps the board as a JSON file in a GitHub Gist.
type GistLeaderboardService struct {
	gistID      string
	githubToken string
	filename    string
	apiURL      string
	httpClient  *http.Client
}

func NewGistLeaderboardService(gistID, githubToken string) *GistLeaderboardService {
	return &GistLeaderboardService{
		gistID:      gistID,
		githubToken: githubToken,
		filename:    "leaderboard.json",
		apiURL:      githubAPI,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (gs *GistLeaderboardService) gistURL() string {
	return fmt.Sprintf("%s/gists/%s", gs.apiURL, gs.gistID)
}

func (gs *GistLeaderboardService) load(ctx context.Context) ([]LeaderboardEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gs.gistURL(), nil)
	if err != nil {
		return nil, err
	}
	if gs.githubToken != "" {
		req.Header.Set("Authorization", "token "+gs.githubToken)
	}

	resp, err := gs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load gist: HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var gist struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}
	if err := json.Unmarshal(body, &gist); err != nil {
		return nil, fmt.Errorf("decode gist: %w", err)
	}

	entries := make([]LeaderboardEntry, 0)
	file, exists := gist.Files[gs.filename]
	if exists && file.Content != "" {
		if err := json.Unmarshal([]byte(file.Content), &entries); err != nil {
			return nil, fmt.Errorf("decode %s: %w", gs.filename, err)
		}
	}
	return entries, nil
}

func (gs *GistLeaderboardService) save(ctx context.Context, entries []LeaderboardEntry) error {
	content, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	payload := map[string]any{
		"files": map[string]any{
			gs.filename: map[string]any{
				"content": string(content),
			},
		},
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, gs.gistURL(), bytes.NewReader(jsonPayload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+gs.githubToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := gs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("save gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("save gist: HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return nil
}

func (gs *GistLeaderboardService) AddEntry(ctx context.Context, e LeaderboardEntry) (bool, error) {
	entries, err := gs.load(ctx)
	if err != nil {
		return false, err
	}
	entries, stored := mergeEntry(entries, e)
	if !stored {
		return false, nil
	}
	if err := gs.save(ctx, entries); err != nil {
		return false, err
	}
	return true, nil
}

func (gs *GistLeaderboardService) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries, err := gs.load(ctx)
	if err != nil {
		return nil, err
	}
	return topEntries(entries, limit), nil
}

func (gs *GistLeaderboardService) GetUserPosition(ctx context.Context, userID int64) (int, *LeaderboardEntry, error) {
	entries, err := gs.load(ctx)
	if err != nil {
		return -1, nil, err
	}
	pos, e := positionOf(entries, userID)
	return pos, e, nil
}
