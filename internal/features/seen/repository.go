// Package seen хранит ID уже обработанных комментариев, чтобы после
// перезапуска бот не разбирал их повторно.
// repository.go работает с Redis: одно множество на все комментарии.
package seen

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// SeenKey — множество ID обработанных комментариев. Записи не истекают.
	SeenKey = "delta-bot:seen-comments"
	// RunCountKey — счётчик запусков бота.
	RunCountKey = "delta-bot:run-count"
)

// Tracker отмечает комментарии как обработанные.
type Tracker struct {
	rdb *redis.Client
}

// NewTracker создаёт трекер поверх готового клиента Redis.
func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

// Connect открывает клиент Redis и проверяет доступность.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	const op = "seen.Connect"

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rdb, nil
}

// IsSeen сообщает, обрабатывался ли комментарий.
func (t *Tracker) IsSeen(ctx context.Context, commentID string) (bool, error) {
	const op = "seen.IsSeen"

	ok, err := t.rdb.SIsMember(ctx, SeenKey, commentID).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// MarkSeen отмечает комментарий обработанным. Повторный вызов безопасен.
func (t *Tracker) MarkSeen(ctx context.Context, commentID string) error {
	const op = "seen.MarkSeen"

	if err := t.rdb.SAdd(ctx, SeenKey, commentID).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Count возвращает число обработанных комментариев.
func (t *Tracker) Count(ctx context.Context) (int64, error) {
	const op = "seen.Count"

	n, err := t.rdb.SCard(ctx, SeenKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// IncrRunCount увеличивает счётчик запусков и возвращает новое значение.
func (t *Tracker) IncrRunCount(ctx context.Context) (int64, error) {
	const op = "seen.IncrRunCount"

	n, err := t.rdb.Incr(ctx, RunCountKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// RunCount возвращает текущее значение счётчика запусков (0, если бот ещё не стартовал).
func (t *Tracker) RunCount(ctx context.Context) (int64, error) {
	const op = "seen.RunCount"

	n, err := t.rdb.Get(ctx, RunCountKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Ping проверяет соединение с Redis (для /healthz).
func (t *Tracker) Ping(ctx context.Context) error {
	return t.rdb.Ping(ctx).Err()
}
