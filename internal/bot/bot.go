// Package bot содержит главный цикл бота — подписку на комментарии, диспетчеризацию и перезапуск.
// bot.go держит одну подписку на сообщества из текущего списка и раздаёт
// комментарии обработчику, по горутине на комментарий.
package bot

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/bot/filters"
	"serotonyl.ru/delta-bot/internal/bot/middleware"
	"serotonyl.ru/delta-bot/internal/config"
	"serotonyl.ru/delta-bot/internal/discuit"
	"serotonyl.ru/delta-bot/internal/metrics"
)

// CommentSource — подписка на комментарии сообществ. Блокируется до отмены ctx.
type CommentSource interface {
	WatchComments(ctx context.Context, communityIDs []string, handler discuit.CommentHandler) error
}

// CommentHandler разбирает один комментарий.
type CommentHandler interface {
	HandleComment(ctx context.Context, community string, c *discuit.Comment)
}

// CommunitySource отдаёт текущий список сообществ для подписки.
type CommunitySource interface {
	WatchedIDs(ctx context.Context) ([]string, error)
}

// Bot — цикл наблюдения.
type Bot struct {
	source      CommentSource
	handler     CommentHandler
	communities CommunitySource
	filter      *filters.CommunityFilter

	retryDelay time.Duration

	// ограничитель параллелизма обработки комментариев
	inflight chan struct{}
	// ID комментариев, которые сейчас в обработке
	processing sync.Map
	reloadCh   chan struct{}
	wg         sync.WaitGroup
}

// New создаёт цикл наблюдения.
func New(source CommentSource, handler CommentHandler, communities CommunitySource, cfg *config.Config) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}
	retryDelay := cfg.WatchRetryDelay
	if retryDelay <= 0 {
		retryDelay = 30 * time.Second
	}

	return &Bot{
		source:      source,
		handler:     handler,
		communities: communities,
		filter:      filters.NewCommunityFilter(),
		retryDelay:  retryDelay,
		inflight:    make(chan struct{}, maxInFlight),
		reloadCh:    make(chan struct{}, 1),
	}
}

// Reload просит перезапустить подписку. Не блокируется; несколько вызовов подряд
// схлопываются в один перезапуск.
func (b *Bot) Reload() {
	select {
	case b.reloadCh <- struct{}{}:
	default:
	}
}

// Start держит подписку до отмены ctx. Перед возвратом дожидается
// всех начатых обработок.
func (b *Bot) Start(ctx context.Context) error {
	defer b.wg.Wait()

	log.WithField("max_inflight", cap(b.inflight)).Info("Бот запущен и ожидает комментарии...")

	for {
		ids, err := b.communities.WatchedIDs(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).Error("Не удалось получить список сообществ")
			if !b.pause(ctx) {
				return nil
			}
			continue
		}
		b.filter.Set(ids)

		if len(ids) == 0 {
			log.Warn("Список сообществ пуст, ждём reload")
			select {
			case <-ctx.Done():
				log.Info("Бот останавливается (ctx done)...")
				return nil
			case <-b.reloadCh:
				metrics.Reloads.Inc()
				continue
			}
		}

		subCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- b.source.WatchComments(subCtx, ids, b.dispatch(ctx))
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case <-b.reloadCh:
			cancel()
			<-done
			metrics.Reloads.Inc()
			log.Info("Подписка перезапускается (reload)")

		case err := <-done:
			cancel()
			if ctx.Err() != nil {
				return nil
			}
			log.WithError(err).WithField("retry_in", b.retryDelay.String()).Warn("Подписка оборвалась")
			if !b.pause(ctx) {
				return nil
			}
		}
	}
}

// pause ждёт retryDelay или reload. false — ctx отменён.
func (b *Bot) pause(ctx context.Context) bool {
	t := time.NewTimer(b.retryDelay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-b.reloadCh:
		metrics.Reloads.Inc()
		return true
	case <-t.C:
		return true
	}
}

// dispatch возвращает обработчик подписки. Обработка идёт на runCtx,
// поэтому reload не прерывает уже начатые обработки.
func (b *Bot) dispatch(runCtx context.Context) discuit.CommentHandler {
	return func(subCtx context.Context, community string, c *discuit.Comment) {
		if c == nil {
			return
		}
		metrics.Events.Inc()
		middleware.LogComment(community, c)

		if !b.filter.Allow(c) {
			return
		}
		if _, busy := b.processing.LoadOrStore(c.ID, struct{}{}); busy {
			log.WithField("comment_id", c.ID).Debug("Комментарий уже в обработке")
			return
		}

		// лимит параллелизма
		select {
		case b.inflight <- struct{}{}:
		case <-subCtx.Done():
			b.processing.Delete(c.ID)
			return
		}

		b.wg.Add(1)
		metrics.Inflight.Inc()
		go func() {
			defer b.wg.Done()
			defer func() {
				<-b.inflight
				metrics.Inflight.Dec()
				b.processing.Delete(c.ID)
			}()
			defer middleware.RecoverFromPanic(c.ID)

			b.handler.HandleComment(runCtx, community, c)
		}()
	}
}
