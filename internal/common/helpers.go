// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: плюрализация, форматирование, работа с временем.
package common

import (
	"strings"
	"time"
	"unicode/utf8"
)

// location — часовой пояс для отображения дат, задаётся из конфига (APP_TIMEZONE).
var location = time.UTC

// SetTimezone устанавливает часовой пояс отображения.
// Если зону не удалось загрузить — остаётся UTC.
func SetTimezone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	location = loc
	return nil
}

// Location возвращает часовой пояс отображения (нужен cron-планировщику).
func Location() *time.Location {
	return location
}

// FormatDateTime форматирует время в формат "2006-01-02 15:04".
// Используется для отображения дат выдачи в админке.
func FormatDateTime(t time.Time) string {
	return t.In(location).Format("2006-01-02 15:04")
}

// Truncate обрезает строку до n символов (не байт) и добавляет "...".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// NormalizeCommunity приводит имя сообщества к виду, в котором оно хранится
// в наградах: без пробелов по краям и в нижнем регистре.
func NormalizeCommunity(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
