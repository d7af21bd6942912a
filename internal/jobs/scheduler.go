// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание вывода описания сообщества с лидербордом.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
)

// LeaderboardDisplay выводит описание сообщества с актуальным лидербордом.
type LeaderboardDisplay interface {
	Display(ctx context.Context) error
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron        *cron.Cron
	leaderboard LeaderboardDisplay
	spec        string
}

// NewScheduler создаёт планировщик в часовом поясе APP_TIMEZONE.
func NewScheduler(leaderboard LeaderboardDisplay, spec string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(common.Location())),
		leaderboard: leaderboard,
		spec:        spec,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.publishLeaderboard(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"leaderboard_cron": s.spec,
		"timezone":         common.Location().String(),
	}).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) publishLeaderboard(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	log.Debug("[CRON] Вывод лидерборда")
	if err := s.leaderboard.Display(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка построения лидерборда")
	}
}

// Stop останавливает планировщик и ждёт выполняющиеся задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
