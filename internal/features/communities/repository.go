// Package communities — repository.go работает с таблицей watched_communities.
package communities

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

// Repository работает с таблицей watched_communities.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// List возвращает все сообщества в порядке добавления.
func (r *Repository) List(ctx context.Context) ([]*Community, error) {
	const op = "communities.repository.List"

	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at FROM watched_communities ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*Community
	for rows.Next() {
		var c Community
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Add добавляет сообщество. Если оно уже есть — common.ErrAlreadyExists.
func (r *Repository) Add(ctx context.Context, id, name string) (*Community, error) {
	const op = "communities.repository.Add"

	c := Community{ID: id, Name: name}
	err := r.db.QueryRow(ctx, `
		INSERT INTO watched_communities (id, name) VALUES ($1, $2)
		RETURNING created_at
	`, id, name).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// Remove удаляет сообщество. Если его нет — common.ErrNotFound.
func (r *Repository) Remove(ctx context.Context, id string) error {
	const op = "communities.repository.Remove"

	var removed string
	err := r.db.QueryRow(ctx, `DELETE FROM watched_communities WHERE id = $1 RETURNING id`, id).Scan(&removed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, common.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SeedIfEmpty заполняет пустую таблицу стартовым списком.
// Возвращает число добавленных строк.
func (r *Repository) SeedIfEmpty(ctx context.Context, list []*Community) (int, error) {
	const op = "communities.repository.SeedIfEmpty"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE watched_communities IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM watched_communities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return 0, nil
	}

	added := 0
	for _, c := range list {
		tag, err := tx.Exec(ctx, `
			INSERT INTO watched_communities (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, c.Name)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		added += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return added, nil
}
