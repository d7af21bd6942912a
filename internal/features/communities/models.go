// Package communities хранит список сообществ, за которыми следит бот.
// Список задаётся из конфигурации при первом старте и дальше правится из админки.
package communities

import "time"

// Community — сообщество под наблюдением.
type Community struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
