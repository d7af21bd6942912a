// Package delta — service.go содержит правила выдачи дельты.
//
// Комментарий проходит проверки строго по порядку, первая сработавшая решает исход:
//
//	бот сам себе → уже разобран → нет родителя/триггера → слишком коротко →
//	нет родителя в API → ответ самому себе → нет поста → дельта уже есть → выдача
//
// Любой окончательный исход, кроме комментария самого бота, отмечает комментарий
// разобранным. Ошибки API, БД и Redis возвращаются наверх без отметки, чтобы
// комментарий разобрали при следующей доставке. Повторную выдачу отсекает
// уникальный ключ в awards.
package delta

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/config"
	"serotonyl.ru/delta-bot/internal/discuit"
	"serotonyl.ru/delta-bot/internal/metrics"
)

const (
	// ReplyGroup — от чьего имени бот отвечает в ветке.
	ReplyGroup = "mods"

	tooShortReply = "Cannot give delta " + GreekGlyph + " because your comment is too short. " +
		"Please provide a reason for awarding the delta " + GreekGlyph + "."
	grantReplyFormat = "You awarded a delta " + Glyph + " to @%s. They now have %d delta " + Glyph + " award(s)."
)

// AwardStore — хранилище наград.
type AwardStore interface {
	Exists(ctx context.Context, community, postID, awardee string) (bool, error)
	Create(ctx context.Context, a *Award) error
	CountByAwardee(ctx context.Context, community, username string) (int, error)
}

// SeenTracker — множество разобранных комментариев.
type SeenTracker interface {
	IsSeen(ctx context.Context, commentID string) (bool, error)
	MarkSeen(ctx context.Context, commentID string) error
}

// Platform — то, что нужно от API discuit.
type Platform interface {
	GetComment(ctx context.Context, id string) (*discuit.Comment, error)
	GetPost(ctx context.Context, publicID string) (*discuit.Post, error)
	PostComment(ctx context.Context, postPublicID, body, parentCommentID, userGroup string) error
}

// ReplyLimiter ограничивает ответы «слишком коротко» одному пользователю.
type ReplyLimiter interface {
	Allow(key string) bool
}

// Service решает, выдавать ли дельту за комментарий.
type Service struct {
	repo     AwardStore
	seen     SeenTracker
	platform Platform
	limiter  ReplyLimiter

	botUsername        string
	community          string
	minLength          int
	commentingDisabled bool
	baseURL            string
}

// NewService создаёт сервис. limiter может быть nil (без ограничений).
func NewService(repo AwardStore, seen SeenTracker, platform Platform, limiter ReplyLimiter, cfg *config.Config) *Service {
	return &Service{
		repo:               repo,
		seen:               seen,
		platform:           platform,
		limiter:            limiter,
		botUsername:        cfg.DiscuitUsername,
		community:          common.NormalizeCommunity(cfg.CommunityName),
		minLength:          cfg.DeltaMinLength,
		commentingDisabled: cfg.CommentingDisabled,
		baseURL:            strings.TrimRight(cfg.DiscuitBaseURL, "/"),
	}
}

// Evaluate разбирает один комментарий из сообщества community.
// Имя сообщества приводится к нижнему регистру, пустое заменяется на COMMUNITY_NAME,
// иначе награда не попадёт в лидерборд.
// Ошибка означает, что исход не окончательный и комментарий не отмечен.
func (s *Service) Evaluate(ctx context.Context, community string, c *discuit.Comment) (Outcome, error) {
	if c == nil || c.ID == "" {
		return Outcome{}, fmt.Errorf("delta: пустой комментарий: %w", common.ErrInvalidArgument)
	}
	if community = common.NormalizeCommunity(community); community == "" {
		community = s.community
	}

	logger := log.WithFields(log.Fields{
		"comment_id": c.ID,
		"community":  community,
		"username":   c.Username,
	})

	if strings.EqualFold(c.Username, s.botUsername) {
		logger.Debug("Комментарий самого бота")
		return skipped(ReasonSelf), nil
	}

	seen, err := s.seen.IsSeen(ctx, c.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("delta: проверка разобранных: %w", err)
	}
	if seen {
		return skipped(ReasonAlreadyProcessed), nil
	}

	if !c.HasParent() || !ContainsTrigger(c.Body) {
		logger.Debug("Дельта не найдена")
		return s.finish(ctx, c, ReasonNoTrigger)
	}

	if utf8.RuneCountInString(c.Body) < s.minLength {
		logger.Debug("Комментарий слишком короткий")
		outcome, err := s.finish(ctx, c, ReasonTooShort)
		if err != nil {
			return outcome, err
		}
		s.replyTooShort(ctx, c, logger)
		return outcome, nil
	}

	parent, err := s.platform.GetComment(ctx, *c.ParentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("delta: получение родителя %s: %w", *c.ParentID, err)
	}
	if parent == nil {
		logger.WithField("parent_id", *c.ParentID).Error("Родительский комментарий не найден")
		return s.finish(ctx, c, ReasonMissingParent)
	}

	if c.Username == parent.Username {
		logger.Debug("Ответ самому себе")
		return s.finish(ctx, c, ReasonSelfAward)
	}

	post, err := s.platform.GetPost(ctx, c.PostPublicID)
	if err != nil {
		return Outcome{}, fmt.Errorf("delta: получение поста %s: %w", c.PostPublicID, err)
	}
	if post == nil {
		logger.WithField("post", c.PostPublicID).Error("Пост не найден")
		return s.finish(ctx, c, ReasonMissingPost)
	}

	exists, err := s.repo.Exists(ctx, community, c.PostPublicID, parent.Username)
	if err != nil {
		return Outcome{}, fmt.Errorf("delta: проверка награды: %w", err)
	}
	if exists {
		logger.WithField("awardee", parent.Username).Debug("Дельта за этот пост уже выдана")
		return s.finish(ctx, c, ReasonDuplicate)
	}

	award := &Award{
		Community:        community,
		PostID:           c.PostPublicID,
		PostTitle:        post.Title,
		CommentID:        c.ID,
		AwardeeUsername:  parent.Username,
		AwardeeCommentID: parent.ID,
	}
	if err := s.repo.Create(ctx, award); err != nil {
		if errors.Is(err, common.ErrDuplicateAward) {
			logger.WithField("awardee", parent.Username).Debug("Дельту выдали параллельно")
			return s.finish(ctx, c, ReasonDuplicate)
		}
		return Outcome{}, fmt.Errorf("delta: запись награды: %w", err)
	}

	logger.WithFields(log.Fields{
		"awardee":  parent.Username,
		"award_id": award.ID,
	}).Infof("Дельта выдана %s/%s/post/%s/%s", s.baseURL, community, c.PostPublicID, c.ID)

	if err := s.seen.MarkSeen(ctx, c.ID); err != nil {
		logger.WithError(err).Warn("Не удалось отметить комментарий разобранным после выдачи")
	}

	outcome := Outcome{Granted: true, Award: award}
	if s.commentingDisabled {
		return outcome, nil
	}

	total, err := s.repo.CountByAwardee(ctx, community, parent.Username)
	if err != nil {
		logger.WithError(err).Error("Не удалось посчитать дельты получателя, ответ не отправлен")
		return outcome, nil
	}
	outcome.Total = total

	body := fmt.Sprintf(grantReplyFormat, parent.Username, total)
	if err := s.platform.PostComment(ctx, c.PostPublicID, body, c.ID, ReplyGroup); err != nil {
		metrics.Replies.WithLabelValues(metrics.ReplyGrant, metrics.StatusError).Inc()
		logger.WithError(err).Error("Не удалось ответить о выдаче дельты")
		return outcome, nil
	}
	metrics.Replies.WithLabelValues(metrics.ReplyGrant, metrics.StatusOK).Inc()

	return outcome, nil
}

// finish отмечает комментарий разобранным и возвращает пропуск с причиной r.
func (s *Service) finish(ctx context.Context, c *discuit.Comment, r Reason) (Outcome, error) {
	if err := s.seen.MarkSeen(ctx, c.ID); err != nil {
		return skipped(r), fmt.Errorf("delta: отметка разобранным: %w", err)
	}
	return skipped(r), nil
}

func (s *Service) replyTooShort(ctx context.Context, c *discuit.Comment, logger *log.Entry) {
	if s.commentingDisabled {
		return
	}
	if s.limiter != nil && !s.limiter.Allow(c.Username) {
		metrics.Replies.WithLabelValues(metrics.ReplyTooShort, metrics.StatusLimited).Inc()
		logger.Debug("rate limited")
		return
	}
	if err := s.platform.PostComment(ctx, c.PostPublicID, tooShortReply, c.ID, ReplyGroup); err != nil {
		metrics.Replies.WithLabelValues(metrics.ReplyTooShort, metrics.StatusError).Inc()
		logger.WithError(err).Error("Не удалось ответить «слишком коротко»")
		return
	}
	metrics.Replies.WithLabelValues(metrics.ReplyTooShort, metrics.StatusOK).Inc()
}
