// Package communities — service.go управляет списком и оповещает о его изменениях.
package communities

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/common"
	"serotonyl.ru/delta-bot/internal/discuit"
)

// Store — хранилище списка сообществ.
type Store interface {
	List(ctx context.Context) ([]*Community, error)
	Add(ctx context.Context, id, name string) (*Community, error)
	Remove(ctx context.Context, id string) error
	SeedIfEmpty(ctx context.Context, list []*Community) (int, error)
}

// Lookup находит сообщество на платформе по ID (nil, nil — не найдено).
type Lookup interface {
	GetCommunity(ctx context.Context, id string) (*discuit.Community, error)
}

// Service управляет списком сообществ под наблюдением.
type Service struct {
	store  Store
	lookup Lookup

	mu       sync.RWMutex
	onChange []func()
}

// NewService создаёт сервис. lookup может быть nil — тогда имя не уточняется.
func NewService(store Store, lookup Lookup) *Service {
	return &Service{store: store, lookup: lookup}
}

// OnChange регистрирует обработчик изменения списка (перезапуск наблюдения).
func (s *Service) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// List возвращает текущий список.
func (s *Service) List(ctx context.Context) ([]*Community, error) {
	return s.store.List(ctx)
}

// WatchedIDs возвращает ID сообществ для подписки.
func (s *Service) WatchedIDs(ctx context.Context) ([]string, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// Add добавляет сообщество. Пустое name уточняется через платформу.
func (s *Service) Add(ctx context.Context, id, name string) (*Community, error) {
	id, name = strings.TrimSpace(id), strings.TrimSpace(name)
	if id == "" {
		return nil, fmt.Errorf("communities: пустой id: %w", common.ErrInvalidArgument)
	}
	if name == "" {
		name = s.resolveName(ctx, id)
	}

	c, err := s.store.Add(ctx, id, name)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"community_id": id, "name": name}).Info("Сообщество добавлено")
	s.notify()
	return c, nil
}

// Remove удаляет сообщество из наблюдения.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	log.WithField("community_id", id).Info("Сообщество удалено")
	s.notify()
	return nil
}

// Seed заполняет пустой список стартовыми ID из конфигурации.
// fallbackName используется, если сообщество одно и платформа его не нашла.
func (s *Service) Seed(ctx context.Context, ids []string, fallbackName string) error {
	list := make([]*Community, 0, len(ids))
	for _, id := range ids {
		name := s.resolveName(ctx, id)
		if name == "" && len(ids) == 1 {
			name = fallbackName
		}
		list = append(list, &Community{ID: id, Name: name})
	}

	added, err := s.store.SeedIfEmpty(ctx, list)
	if err != nil {
		return err
	}
	if added > 0 {
		log.WithField("count", added).Info("Список сообществ заполнен из конфигурации")
	}
	return nil
}

// resolveName спрашивает имя у платформы. Ошибка только логируется.
func (s *Service) resolveName(ctx context.Context, id string) string {
	if s.lookup == nil {
		return ""
	}
	c, err := s.lookup.GetCommunity(ctx, id)
	if err != nil {
		log.WithError(err).WithField("community_id", id).Error("Не удалось получить сообщество")
		return ""
	}
	if c == nil {
		log.WithField("community_id", id).Warn("Сообщество не найдено на платформе")
		return ""
	}
	return c.Name
}

func (s *Service) notify() {
	s.mu.RLock()
	fns := append([]func(){}, s.onChange...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
