// Package filters отсекает события, которые бот не должен обрабатывать.
package filters

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/delta-bot/internal/discuit"
)

// CommunityFilter пропускает только комментарии из сообществ текущего списка.
// Список меняется при перезапуске наблюдения.
type CommunityFilter struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func NewCommunityFilter() *CommunityFilter {
	return &CommunityFilter{ids: map[string]struct{}{}}
}

// Set заменяет список разрешённых сообществ.
func (f *CommunityFilter) Set(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	f.mu.Lock()
	f.ids = next
	f.mu.Unlock()
}

// Allow сообщает, можно ли обрабатывать комментарий.
func (f *CommunityFilter) Allow(c *discuit.Comment) bool {
	if c == nil {
		return false
	}

	f.mu.RLock()
	_, ok := f.ids[c.CommunityID]
	f.mu.RUnlock()

	if !ok {
		log.WithFields(log.Fields{
			"component":    "CommunityFilter",
			"comment_id":   c.ID,
			"community_id": c.CommunityID,
		}).Debug("deny: community not watched")
	}
	return ok
}
