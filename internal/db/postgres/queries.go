// Package postgres — queries.go применяет отдельную миграцию и хранит их SQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// execMigration выполняет SQL миграции в транзакции и записывает версию.
// Возвращает false, если миграция уже была применена.
func execMigration(ctx context.Context, pool *pgxpool.Pool, version int, sql string) (bool, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// два экземпляра бота не должны применять миграции одновременно
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(7346001)"); err != nil {
		return false, fmt.Errorf("ошибка блокировки миграций: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return false, fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return false, fmt.Errorf("ошибка записи версии миграции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// SQL-миграции встроены в код для упрощения деплоя.
var migrations = []struct {
	version int
	sql     string
}{
	{1, migration001Awards},
	{2, migration002Communities},
	{3, migration003AdminLoginAttempts},
}

const migration001Awards = `
CREATE TABLE IF NOT EXISTS awards (
    id BIGSERIAL PRIMARY KEY,
    community VARCHAR(255) NOT NULL,
    post_id VARCHAR(255) NOT NULL,
    post_title TEXT NOT NULL DEFAULT '',
    comment_id VARCHAR(255) NOT NULL,
    awardee_username VARCHAR(255) NOT NULL,
    awardee_comment_id VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT awards_community_post_awardee_key UNIQUE (community, post_id, awardee_username)
);
CREATE INDEX IF NOT EXISTS idx_awards_community_awardee ON awards(community, awardee_username);
CREATE INDEX IF NOT EXISTS idx_awards_created_at ON awards(created_at DESC);
`

const migration002Communities = `
CREATE TABLE IF NOT EXISTS watched_communities (
    id VARCHAR(255) PRIMARY KEY,
    name VARCHAR(255) NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration003AdminLoginAttempts = `
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    client_ip VARCHAR(64) NOT NULL,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    success BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_ip_time ON admin_login_attempts(client_ip, attempt_time DESC);
`
