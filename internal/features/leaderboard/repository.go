// Package leaderboard — repository.go агрегирует таблицу awards.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository читает рейтинг из таблицы awards. Только чтение.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий рейтинга.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// TopAwardees возвращает до limit получателей дельт сообщества:
// больше дельт — выше, при равенстве — по имени по алфавиту.
// Rank заполняет вызывающий.
func (r *Repository) TopAwardees(ctx context.Context, community string, limit int) ([]Entry, error) {
	const op = "leaderboard.repository.TopAwardees"

	query := `
		SELECT awardee_username, COUNT(*) AS awards
		FROM awards
		WHERE community = $1
		GROUP BY awardee_username
		ORDER BY awards DESC, awardee_username ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, community, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Awards); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
