// Package discuit — watch.go реализует наблюдение за комментариями сообществ.
// API discuit не отдаёт поток событий, поэтому комментарии опрашиваются:
// за проход просматриваются свежие посты каждого сообщества и все их комментарии.
// Повторная доставка одних и тех же комментариев — норма, отсев делает потребитель.
package discuit

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
)

// WatchComments опрашивает сообщества communityIDs и вызывает handler на каждый
// найденный комментарий. Блокируется до отмены ctx (это и есть «unwatch»),
// после чего возвращает ctx.Err().
//
// Ошибки отдельного прохода логируются и не прерывают наблюдение. Ошибка
// возвращается только если не удалось восстановить сессию.
func (c *Client) WatchComments(ctx context.Context, communityIDs []string, handler CommentHandler) error {
	logger := log.WithFields(log.Fields{
		"component":   "discuit.watch",
		"communities": communityIDs,
		"interval":    c.cfg.WatchInterval.String(),
	})
	logger.Info("Наблюдение за комментариями запущено")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Наблюдение за комментариями остановлено")
			return ctx.Err()
		case <-timer.C:
		}

		for _, id := range communityIDs {
			if ctx.Err() != nil {
				break
			}
			if err := c.sweep(ctx, id, handler); err != nil {
				if ctx.Err() != nil {
					break
				}
				if errors.Is(err, errSessionLost) {
					return err
				}
				logger.WithError(err).WithField("community_id", id).Warn("Проход по сообществу не удался")
			}
		}

		timer.Reset(c.cfg.WatchInterval)
	}
}

// errSessionLost — сессию не удалось восстановить повторным логином.
var errSessionLost = errors.New("discuit: сессия потеряна")

// sweep — один проход по свежим постам сообщества.
func (c *Client) sweep(ctx context.Context, communityID string, handler CommentHandler) error {
	posts, err := c.latestPosts(ctx, communityID, c.cfg.WatchPosts)
	if err != nil {
		return wrapSession(err)
	}

	for _, post := range posts {
		if post == nil || post.NoComments == 0 {
			continue
		}
		comments, err := c.postComments(ctx, post.PublicID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithField("post", post.PublicID).Warn("Не удалось получить комментарии поста")
			continue
		}
		for _, comment := range comments {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if comment == nil || comment.Deleted {
				continue
			}
			if comment.PostPublicID == "" {
				comment.PostPublicID = post.PublicID
			}
			if comment.PostTitle == "" {
				comment.PostTitle = post.Title
			}
			if comment.CommunityID == "" {
				comment.CommunityID = post.CommunityID
			}
			community := comment.CommunityName
			if community == "" {
				community = post.CommunityName
			}
			handler(ctx, community, comment)
		}
	}
	return nil
}

func wrapSession(err error) error {
	if errors.Is(err, common.ErrUnauthorized) {
		return errors.Join(errSessionLost, err)
	}
	return err
}
