// Package metrics объявляет Prometheus-метрики бота.
// Метрики регистрируются в глобальном реестре и отдаются админкой на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "delta_bot"

var (
	// Events — комментарии, поступившие из наблюдения.
	Events = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_total",
		Help:      "Comments delivered by the watch loop.",
	})

	// Outcomes — исходы разбора комментариев (granted или причина пропуска).
	Outcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outcomes_total",
		Help:      "Award evaluation outcomes.",
	}, []string{"outcome"})

	// Replies — ответы бота в ветках.
	Replies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "replies_total",
		Help:      "Replies posted by the bot.",
	}, []string{"kind", "status"})

	// Reloads — перезапуски подписки.
	Reloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reloads_total",
		Help:      "Watch loop reloads.",
	})

	// Inflight — комментарии в обработке прямо сейчас.
	Inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "inflight",
		Help:      "Comments being evaluated.",
	})
)

// Метки для Replies.
const (
	ReplyGrant    = "grant"
	ReplyTooShort = "too_short"

	StatusOK      = "ok"
	StatusError   = "error"
	StatusLimited = "rate_limited"
)
