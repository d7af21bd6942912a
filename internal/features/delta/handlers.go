// Package delta — handlers.go принимает комментарии из цикла наблюдения.
package delta

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/discuit"
	"serotonyl.ru/delta-bot/internal/metrics"
)

// LeaderboardDisplay показывает лидерборд после выдачи дельты.
type LeaderboardDisplay interface {
	Display(ctx context.Context) error
}

// Handler связывает цикл наблюдения с сервисом.
type Handler struct {
	service     *Service
	leaderboard LeaderboardDisplay
}

// NewHandler создаёт обработчик. leaderboard может быть nil.
func NewHandler(service *Service, leaderboard LeaderboardDisplay) *Handler {
	return &Handler{service: service, leaderboard: leaderboard}
}

// HandleComment разбирает комментарий и пишет исход в лог и метрики.
// Ошибки не пробрасываются: один комментарий не должен останавливать цикл.
func (h *Handler) HandleComment(ctx context.Context, community string, c *discuit.Comment) {
	if c == nil {
		return
	}
	outcome, err := h.service.Evaluate(ctx, community, c)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"comment_id": c.ID,
			"community":  community,
		}).Warn("Комментарий не разобран, повторим при следующей доставке")
		metrics.Outcomes.WithLabelValues("error").Inc()
		return
	}
	metrics.Outcomes.WithLabelValues(outcome.Label()).Inc()

	if !outcome.Granted || h.leaderboard == nil {
		return
	}
	if err := h.leaderboard.Display(ctx); err != nil {
		log.WithError(err).Error("Не удалось построить лидерборд")
	}
}
