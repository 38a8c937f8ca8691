package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const redisLeaderboardKey = "edumind:leaderboard"

// RedisLeaderboardService stores one JSON entry per user in a Redis hash.
type RedisLeaderboardService struct {
	rdb *redis.Client
	key string
	log *slog.Logger
}

func NewRedisLeaderboardService(ctx context.Context, addr, password string, db int, log *slog.Logger) (*RedisLeaderboardService, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if u, err := redis.ParseURL(addr); err == nil {
		opts = u
		if password != "" {
			opts.Password = password
		}
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}
	return &RedisLeaderboardService{rdb: rdb, key: redisLeaderboardKey, log: log}, nil
}

func (rs *RedisLeaderboardService) Close() error {
	return rs.rdb.Close()
}

func (rs *RedisLeaderboardService) AddEntry(ctx context.Context, e LeaderboardEntry) (bool, error) {
	field := strconv.FormatInt(e.UserID, 10)
	data, err := json.Marshal(e)
	if err != nil {
		return false, err
	}

	stored := false
	err = rs.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, rs.key, field).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var old LeaderboardEntry
			if err := json.Unmarshal(raw, &old); err != nil {
				rs.log.Warn("replacing malformed leaderboard entry", "field", field, "err", err)
			} else if !isBetter(e, old) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, rs.key, field, data)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, rs.key)
	if err != nil {
		return false, fmt.Errorf("store leaderboard entry: %w", err)
	}
	return stored, nil
}

func (rs *RedisLeaderboardService) all(ctx context.Context) ([]LeaderboardEntry, error) {
	hash, err := rs.rdb.HGetAll(ctx, rs.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(hash))
	for field, raw := range hash {
		var e LeaderboardEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			rs.log.Warn("skipping malformed leaderboard entry", "key", rs.key, "field", field, "err", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (rs *RedisLeaderboardService) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	entries, err := rs.all(ctx)
	if err != nil {
		return nil, err
	}
	return topEntries(entries, limit), nil
}

func (rs *RedisLeaderboardService) GetUserPosition(ctx context.Context, userID int64) (int, *LeaderboardEntry, error) {
	entries, err := rs.all(ctx)
	if err != nil {
		return -1, nil, err
	}
	pos, e := positionOf(entries, userID)
	return pos, e, nil
}
