package game

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds every live in-memory game, lobby and active alike.
type Store struct {
	mu    sync.Mutex
	games map[uuid.UUID]*FiveCrownsGame
}

func NewStore() *Store {
	return &Store{
		games: make(map[uuid.UUID]*FiveCrownsGame),
	}
}

func (s *Store) Add(g *FiveCrownsGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
}

func (s *Store) Get(id uuid.UUID) (*FiveCrownsGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// All returns a snapshot of the live game set.
func (s *Store) All() []*FiveCrownsGame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*FiveCrownsGame, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return out
}
