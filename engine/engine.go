// Package engine runs complete games between agents. It owns none of
// the search logic: agents supply moves, the engine applies them,
// detects the terminal state and keeps the move history.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tictac/game"
)

// Agent picks a move for player on board.
type Agent interface {
	FindMove(ctx context.Context, board game.Board, player game.Player) (game.Action, error)
}

// Record is one played move.
type Record struct {
	Player game.Player
	Action game.Action
}

// Local drives a game between two in-process agents.
type Local struct {
	board   game.Board
	toMove  game.Player
	agents  map[game.Player]Agent
	history []Record
}

func NewLocal(board game.Board, toMove game.Player, x, o Agent) *Local {
	if x == nil || o == nil {
		panic("engine: both agents are required")
	}
	return &Local{
		board:  board,
		toMove: toMove,
		agents: map[game.Player]Agent{game.PlayerX: x, game.PlayerO: o},
	}
}

// Run plays agents against each other until the board is terminal and
// returns the final outcome. An agent error or an illegal agent move
// aborts the game.
func (l *Local) Run(ctx context.Context) (game.Outcome, error) {
	for !l.board.IsTerminal() {
		action, err := l.agents[l.toMove].FindMove(ctx, l.board, l.toMove)
		if err != nil {
			return game.InProgress, fmt.Errorf("agent %v: %w", l.toMove, err)
		}

		board, err := l.board.Apply(action, l.toMove)
		if err != nil {
			return game.InProgress, fmt.Errorf("agent %v played %v: %w", l.toMove, action, err)
		}

		log.Debug().
			Stringer("player", l.toMove).
			Stringer("action", action).
			Int("move", len(l.history)+1).
			Msg("move played")

		l.history = append(l.history, Record{Player: l.toMove, Action: action})
		l.board = board
		l.toMove = l.toMove.Opponent()
	}

	outcome := l.board.Outcome()
	log.Info().Stringer("outcome", outcome).Int("moves", len(l.history)).Msg("game over")
	return outcome, nil
}

// Board returns the current position.
func (l *Local) Board() game.Board {
	return l.board
}

// History returns the moves played so far, in order.
func (l *Local) History() []Record {
	return l.history
}
