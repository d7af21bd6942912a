// Package leaderboard — service.go строит рейтинг и описание сообщества.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
)

// glyph — символ дельты в строках рейтинга.
const glyph = "∆"

// Ranker — источник агрегированного рейтинга.
type Ranker interface {
	TopAwardees(ctx context.Context, community string, limit int) ([]Entry, error)
}

// DescriptionPublisher обновляет описание сообщества на платформе.
// Эндпоинт discuit сейчас не работает, поэтому в цикл не подключён:
// описание выводится в лог, и его переносят вручную.
type DescriptionPublisher interface {
	UpdateCommunityDescription(ctx context.Context, communityID, about string) error
}

// Service строит рейтинг одного сообщества.
type Service struct {
	ranker    Ranker
	community string
	limit     int
	template  string
}

// NewService создаёт сервис. limit — размер рейтинга в описании.
// Имя сообщества сравнивается с наградами в нижнем регистре.
func NewService(ranker Ranker, community string, limit int) *Service {
	return &Service{
		ranker:    ranker,
		community: common.NormalizeCommunity(community),
		limit:     limit,
		template:  DefaultDescription,
	}
}

// Generate возвращает первые limit строк рейтинга. limit <= 0 — пустой список.
func (s *Service) Generate(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}

	entries, err := s.ranker.TopAwardees(ctx, s.community, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Description возвращает описание сообщества с текущим рейтингом.
func (s *Service) Description(ctx context.Context) (string, error) {
	entries, err := s.Generate(ctx, s.limit)
	if err != nil {
		return "", err
	}
	return RenderDescription(s.template, Lines(entries)), nil
}

// Display выводит описание с рейтингом в лог, чтобы его можно было скопировать.
func (s *Service) Display(ctx context.Context) error {
	about, err := s.Description(ctx)
	if err != nil {
		return err
	}
	log.WithField("community", s.community).Infof("Описание сообщества:\n----\n%s\n----", about)
	return nil
}

// Lines форматирует строки рейтинга: "1. @bob (5 ∆)".
func Lines(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%d. @%s (%d %s)", e.Rank, e.Username, e.Awards, glyph))
	}
	return out
}

// RenderDescription подставляет строки рейтинга вместо первого Placeholder.
func RenderDescription(template string, lines []string) string {
	return strings.Replace(template, Placeholder, strings.Join(lines, "\n"), 1)
}
