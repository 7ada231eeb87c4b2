package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

type memMatch struct {
	mu      sync.RWMutex
	matches map[string]entity.Match
}

// NewMemoryMatchRepository - ledger kept in process memory, used when redis is disabled.
func NewMemoryMatchRepository() MatchRepository {
	return &memMatch{
		matches: make(map[string]entity.Match),
	}
}

func (that *memMatch) CreateOrUpdate(_ context.Context, match *entity.Match) error {
	stored := *match
	stored.Players = append([]entity.Player(nil), match.Players...)

	that.mu.Lock()
	that.matches[match.ID] = stored
	that.mu.Unlock()

	return nil
}

func (that *memMatch) GetByID(_ context.Context, id string) (*entity.Match, error) {
	that.mu.RLock()
	match, ok := that.matches[id]
	that.mu.RUnlock()

	if !ok {
		return &entity.Match{}, ErrMatchNotFound
	}

	return &match, nil
}

func (that *memMatch) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[id]; !ok {
		return ErrMatchNotFound
	}

	delete(that.matches, id)

	return nil
}

func (that *memMatch) ListIDs(_ context.Context) ([]string, error) {
	that.mu.RLock()
	ids := make([]string, 0, len(that.matches))
	for id := range that.matches {
		ids = append(ids, id)
	}
	that.mu.RUnlock()

	sort.Strings(ids)

	return ids, nil
}
