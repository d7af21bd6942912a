// Package admin реализует веб-админку с basic-auth по паролю Argon2id.
// models.go описывает попытки входа и данные страниц.
package admin

import (
	"time"

	"serotonyl.ru/delta-bot/internal/features/delta"
	"serotonyl.ru/delta-bot/internal/features/leaderboard"
)

// LoginAttempt — попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	ClientIP    string    `db:"client_ip"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// Лимиты brute-force: после maxFailedAttempts неудач за attemptsWindow IP блокируется.
const (
	maxFailedAttempts = 3
	attemptsWindow    = 1 * time.Hour
)

// Realm — realm для basic-auth.
const Realm = "delta-bot"

// Лимиты выборок.
const (
	publicLeaderboardLimit = 500
	defaultAPILimit        = 10
	recentAwardsLimit      = 100
)

// indexPage — данные публичной страницы.
type indexPage struct {
	Community string
	Leaders   []leaderboard.Entry
}

// shadowsPage — данные страницы оператора.
type shadowsPage struct {
	Community   string
	BaseURL     string
	About       string
	Awards      []*delta.Award
	Communities []communityView
	// nil — счётчики недоступны
	Stats *statsView
}

// statsView — счётчики из Redis.
type statsView struct {
	SeenComments int64
	Runs         int64
}

type communityView struct {
	ID   string
	Name string
}
