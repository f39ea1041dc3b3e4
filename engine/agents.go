package engine

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"

	"tictac/game"
	"tictac/searcher"
)

// SearchAgent answers with the searcher's best move.
type SearchAgent struct {
	MCTS *searcher.MCTS
}

func (a SearchAgent) FindMove(ctx context.Context, board game.Board, player game.Player) (game.Action, error) {
	return a.MCTS.FindBestMove(ctx, board, player)
}

// RandomAgent plays a uniformly random legal action. It is the
// baseline opponent for regression games.
type RandomAgent struct {
	Rng *rand.Rand
}

func (a RandomAgent) FindMove(_ context.Context, board game.Board, player game.Player) (game.Action, error) {
	actions := board.LegalActions()
	if len(actions) == 0 {
		return game.Action{}, fmt.Errorf("no legal action for %v", player)
	}
	return actions[a.Rng.Intn(len(actions))], nil
}
