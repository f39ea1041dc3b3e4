package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// watchEvent is pushed to websocket watchers of a game: either a
// played move or a snapshot of search progress.
type watchEvent struct {
	Event     string   `json:"event"` // "move" or "search"
	Board     [][]int8 `json:"board,omitempty"`
	Status    string   `json:"status,omitempty"`
	Tree      int      `json:"tree,omitempty"`
	Iteration int      `json:"iteration,omitempty"`
	Total     int      `json:"total,omitempty"`
}

// watchHub fans events out to the websocket watchers of each game.
type watchHub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{clients: make(map[string]map[*websocket.Conn]struct{})}
}

func (h *watchHub) add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[id] == nil {
		h.clients[id] = make(map[*websocket.Conn]struct{})
	}
	h.clients[id][conn] = struct{}{}
}

func (h *watchHub) remove(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[id], conn)
}

// publish sends the event to every watcher of the game, dropping
// connections that fail to write.
func (h *watchHub) publish(id string, event watchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients[id] {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients[id], conn)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.store.get(id); !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("game", id).Msg("websocket upgrade failed")
		return
	}
	s.hub.add(id, conn)

	// Reads are discarded; the loop only notices the peer going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(id, conn)
				conn.Close()
				return
			}
		}
	}()
}
