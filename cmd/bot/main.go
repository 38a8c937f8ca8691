package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/PoluyanbIch/EduMindBot/internal/config"
	"github.com/PoluyanbIch/EduMindBot/internal/edumind"
	"github.com/PoluyanbIch/EduMindBot/internal/service"
	"github.com/PoluyanbIch/EduMindBot/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		slog.Error("bot exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := edumind.NewClient(cfg.EduMind.BaseURL, cfg.EduMind.Timeout, log.With("component", "edumind"))
	if err != nil {
		return fmt.Errorf("create edumind client: %w", err)
	}

	leaderboard, err := service.NewLeaderboardService(ctx, service.LeaderboardConfig{
		GistID:        cfg.Leaderboard.GistID,
		GithubToken:   cfg.Leaderboard.GithubToken,
		RedisAddr:     cfg.Leaderboard.RedisAddr,
		RedisPassword: cfg.Leaderboard.RedisPassword,
		RedisDB:       cfg.Leaderboard.RedisDB,
	}, log)
	if err != nil {
		return fmt.Errorf("create leaderboard: %w", err)
	}
	if c, ok := leaderboard.(io.Closer); ok {
		defer c.Close()
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, cfg.BotDebug, client, leaderboard, cfg.Quiz, log.With("component", "telegram"))
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	log.Info("🤖 Bot is starting...", "edumind", cfg.EduMind.BaseURL)
	bot.Start(ctx)
	log.Info("bot stopped")
	return nil
}
