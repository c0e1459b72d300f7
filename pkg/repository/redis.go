package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Archive persists finished game records outside the process. The core
// only writes and reads whole records; it never round-trips live state
// through the archive.
type Archive interface {
	SaveRecord(ctx context.Context, gameID string, sgfText string, result string) error
	LoadRecord(ctx context.Context, gameID string) (sgfText string, result string, err error)
}

// RedisArchive stores SGF records in redis, one hash per game.
type RedisArchive struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisArchive connects to redis and verifies the connection.
func NewRedisArchive(ctx context.Context, addr string, logger *zap.Logger) (*RedisArchive, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", addr))
	return &RedisArchive{client: client, logger: logger}, nil
}

func archiveKey(gameID string) string {
	return "archive:game:" + gameID
}

// SaveRecord writes one finished game.
func (a *RedisArchive) SaveRecord(ctx context.Context, gameID, sgfText, result string) error {
	err := a.client.HSet(ctx, archiveKey(gameID), map[string]interface{}{
		"sgf":    sgfText,
		"result": result,
	}).Err()
	if err != nil {
		return fmt.Errorf("archiving game %s: %w", gameID, err)
	}

	a.logger.Debug("game archived", zap.String("game_id", gameID), zap.String("result", result))
	return nil
}

// LoadRecord reads one archived game.
func (a *RedisArchive) LoadRecord(ctx context.Context, gameID string) (string, string, error) {
	fields, err := a.client.HGetAll(ctx, archiveKey(gameID)).Result()
	if err != nil {
		return "", "", fmt.Errorf("loading game %s: %w", gameID, err)
	}
	if len(fields) == 0 {
		return "", "", ErrNotFound
	}
	return fields["sgf"], fields["result"], nil
}

// Close releases the redis connection.
func (a *RedisArchive) Close() error {
	return a.client.Close()
}
