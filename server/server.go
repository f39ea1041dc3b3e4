// Package server exposes the move-selection engine over HTTP: a JSON
// API to create games and play moves against the engine, plus a
// websocket stream of live search progress per game.
//
// The server holds all game state; clients only ever send a cell to
// play and render what comes back.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"tictac/game"
	"tictac/searcher"
)

const progressInterval = 100 // iterations between websocket search events

// Config carries the engine settings applied to every new game.
type Config struct {
	Size        int     // board side length, default 3
	Iterations  int     // search budget per move, default searcher.DefaultIterations
	Trees       int     // parallel trees, default 1
	Exploration float64 // UCT constant, default searcher.DefaultExploration
	Seed        uint64  // random seed, default 42
}

type Server struct {
	config Config
	store  *store
	hub    *watchHub
}

func New(config Config) *Server {
	if config.Size <= 0 {
		config.Size = 3
	}
	if config.Iterations <= 0 {
		config.Iterations = searcher.DefaultIterations
	}
	if config.Trees <= 0 {
		config.Trees = 1
	}
	if config.Exploration <= 0 {
		config.Exploration = searcher.DefaultExploration
	}
	if config.Seed == 0 {
		config.Seed = 42
	}
	return &Server{config: config, store: newStore(), hub: newWatchHub()}
}

// Handler returns the routed HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleNewGame)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /games/{id}/moves", s.handleNewMove)
	mux.HandleFunc("GET /games/{id}/watch", s.handleWatch)
	return requestLogger(mux)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type newGameRequest struct {
	Size int `json:"size"`
}

type gameResponse struct {
	ID         string   `json:"id"`
	Board      [][]int8 `json:"board"`
	NextPlayer int8     `json:"nextPlayer"`
	Status     string   `json:"status"`
}

type moveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type moveResponse struct {
	Board      [][]int8     `json:"board"`
	EngineMove *game.Action `json:"engineMove,omitempty"`
	Status     string       `json:"status"`
	Message    string       `json:"message,omitempty"`
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
	}
	size := req.Size
	if size <= 0 {
		size = s.config.Size
	}

	id, sess := s.store.create(game.New(size))
	sess.mcts = s.newSearcher(id)

	log.Info().Str("game", id).Int("size", size).Msg("game created")
	writeJSON(w, http.StatusCreated, gameResponse{
		ID:         id,
		Board:      sess.board.Grid(),
		NextPlayer: int8(sess.board.NextPlayer()),
		Status:     sess.board.Outcome().String(),
	})
}

func (s *Server) newSearcher(id string) *searcher.MCTS {
	return searcher.NewMCTS(
		searcher.WithIterations(s.config.Iterations),
		searcher.WithParallelTrees(s.config.Trees),
		searcher.WithExploration(s.config.Exploration),
		searcher.WithSeed(s.config.Seed),
		searcher.WithProgress(func(p searcher.Progress) {
			if p.Iteration%progressInterval == 0 || p.Iteration == p.Total {
				s.hub.publish(id, watchEvent{
					Event:     "search",
					Tree:      p.Tree,
					Iteration: p.Iteration,
					Total:     p.Total,
				})
			}
		}),
	)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.store.get(id)
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, gameResponse{
		ID:         id,
		Board:      sess.board.Grid(),
		NextPlayer: int8(sess.board.NextPlayer()),
		Status:     sess.board.Outcome().String(),
	})
}

// handleNewMove applies the caller's move for the side to play and,
// unless that ends the game, answers with the engine's reply for the
// other side.
func (s *Server) handleNewMove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.store.get(id)
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.board.IsTerminal() {
		http.Error(w, "game is already over", http.StatusConflict)
		return
	}

	player := sess.board.NextPlayer()
	board, err := sess.board.Apply(game.Action{Row: req.Row, Col: req.Col}, player)
	if errors.Is(err, game.ErrIllegalMove) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := moveResponse{}
	if !board.IsTerminal() {
		engineMove, err := sess.mcts.FindBestMove(r.Context(), board, player.Opponent())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		board, err = board.Apply(engineMove, player.Opponent())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.EngineMove = &engineMove
	}

	sess.board = board
	outcome := board.Outcome()
	resp.Board = board.Grid()
	resp.Status = outcome.String()
	resp.Message = message(outcome, player)

	s.hub.publish(id, watchEvent{Event: "move", Board: resp.Board, Status: resp.Status})
	writeJSON(w, http.StatusOK, resp)
}

// message mirrors the phrasing the old web app showed the human player.
func message(outcome game.Outcome, human game.Player) string {
	switch outcome.Winner() {
	case human:
		return "You win!"
	case human.Opponent():
		return "Engine wins!"
	}
	if outcome == game.Draw {
		return "Tie!"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("response encoding failed")
	}
}
