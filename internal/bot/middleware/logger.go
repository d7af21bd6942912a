// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/discuit"
)

// LogComment логирует входящий комментарий.
// Записывает: comment_id, community, username, текст (первые 50 символов).
func LogComment(community string, c *discuit.Comment) {
	if c == nil {
		return
	}

	log.WithFields(log.Fields{
		"comment_id": c.ID,
		"community":  community,
		"post":       c.PostPublicID,
		"username":   c.Username,
		"text":       common.Truncate(c.Body, 50),
	}).Debug("Входящий комментарий")
}
