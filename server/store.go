package server

import (
	"fmt"
	"sync"

	"tictac/game"
	"tictac/searcher"
)

// session is one game in progress. The Flask-era cache slot becomes a
// mutex-guarded record: one human, one engine, one board.
type session struct {
	mu    sync.Mutex
	board game.Board
	mcts  *searcher.MCTS
}

type store struct {
	mu     sync.RWMutex
	games  map[string]*session
	nextID uint64
}

func newStore() *store {
	return &store{games: make(map[string]*session)}
}

// create registers a new session. The caller attaches the searcher
// afterwards, once the game id exists for its progress hook.
func (s *store) create(board game.Board) (string, *session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("g%06x", s.nextID)
	sess := &session{board: board}
	s.games[id] = sess
	return id, sess
}

func (s *store) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.games[id]
	return sess, ok
}
