// Package delta — repository.go выполняет операции с таблицей awards.
package delta

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/delta-bot/internal/common"
)

// Repository работает с таблицей awards.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий наград.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Exists проверяет, есть ли уже награда за пост для получателя.
func (r *Repository) Exists(ctx context.Context, community, postID, awardee string) (bool, error) {
	const op = "delta.repository.Exists"

	query := `
		SELECT EXISTS(
			SELECT 1 FROM awards
			WHERE community = $1 AND post_id = $2 AND awardee_username = $3
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, community, postID, awardee).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// Create записывает награду. Если награда по тому же ключу уже есть —
// common.ErrDuplicateAward. При успехе заполняет ID и CreatedAt.
func (r *Repository) Create(ctx context.Context, a *Award) error {
	const op = "delta.repository.Create"

	query := `
		INSERT INTO awards (community, post_id, post_title, comment_id, awardee_username, awardee_comment_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (community, post_id, awardee_username) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		a.Community,
		a.PostID,
		a.PostTitle,
		a.CommentID,
		a.AwardeeUsername,
		a.AwardeeCommentID,
	).Scan(&a.ID, &a.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, common.ErrDuplicateAward)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, common.ErrDuplicateAward)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountByAwardee возвращает число дельт пользователя в сообществе.
func (r *Repository) CountByAwardee(ctx context.Context, community, username string) (int, error) {
	const op = "delta.repository.CountByAwardee"

	query := `SELECT COUNT(*) FROM awards WHERE community = $1 AND awardee_username = $2`
	var count int
	if err := r.db.QueryRow(ctx, query, community, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListRecent возвращает последние limit наград (новые первыми).
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*Award, error) {
	const op = "delta.repository.ListRecent"

	query := `
		SELECT id, community, post_id, post_title, comment_id,
		       awardee_username, awardee_comment_id, created_at
		FROM awards
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*Award
	for rows.Next() {
		var a Award
		if err := rows.Scan(
			&a.ID, &a.Community, &a.PostID, &a.PostTitle, &a.CommentID,
			&a.AwardeeUsername, &a.AwardeeCommentID, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// DeleteByID удаляет награду. Если награды нет — common.ErrNotFound.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	const op = "delta.repository.DeleteByID"

	tag, err := r.db.Exec(ctx, `DELETE FROM awards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	}
	return nil
}
