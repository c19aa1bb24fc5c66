// Package pending keeps check-in actions that trakt blocked until the user
// decides to cancel the running check-in or wait. Entries expire on their
// own if the user never answers.
package pending

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/sgtrakt/internal/client/models"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

type Store struct {
	cache *ttlcache.Cache[uuid.UUID, models.CheckInAction]
}

// NewStore starts the expiry loop; call Stop when done.
func NewStore(ttl time.Duration) *Store {
	cache := ttlcache.New(
		ttlcache.WithTTL[uuid.UUID, models.CheckInAction](ttl),
		ttlcache.WithDisableTouchOnHit[uuid.UUID, models.CheckInAction](),
	)
	go cache.Start()

	return &Store{cache: cache}
}

// Put stores a blocked action under its id, replacing an older copy.
func (s *Store) Put(action models.CheckInAction) {
	s.cache.Set(action.ID, action, ttlcache.DefaultTTL)
}

// Take removes and returns the action. The second call for the same id
// reports false, so each blocked action is resolved once.
func (s *Store) Take(id uuid.UUID) (models.CheckInAction, bool) {
	item, ok := s.cache.GetAndDelete(id)
	if !ok || item == nil {
		return models.CheckInAction{}, false
	}
	return item.Value(), true
}

// List returns the waiting actions ordered by title.
func (s *Store) List() []models.CheckInAction {
	items := s.cache.Items()
	out := make([]models.CheckInAction, 0, len(items))
	for _, it := range items {
		out = append(out, it.Value())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Len counts the actions still waiting for a decision.
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) Stop() {
	s.cache.Stop()
}
