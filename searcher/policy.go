package searcher

import (
	"fmt"

	"golang.org/x/exp/rand"

	"tictac/game"
)

// RolloutPolicy completes a game from a position to a terminal state
// and returns its outcome. Implementations must draw randomness only
// from the supplied source so that searches stay reproducible.
type RolloutPolicy interface {
	PlayOut(board game.Board, toMove game.Player, rng *rand.Rand) game.Outcome
}

// RandomPolicy plays uniformly random legal actions, alternating
// players, until the game ends. It is the default rollout policy.
type RandomPolicy struct{}

func (RandomPolicy) PlayOut(board game.Board, toMove game.Player, rng *rand.Rand) game.Outcome {
	outcome := board.Outcome()
	for !outcome.Terminal() {
		board = playRandom(board, toMove, rng)
		toMove = toMove.Opponent()
		outcome = board.Outcome()
	}
	return outcome
}

// TacticalPolicy takes an immediate winning move when one exists and
// otherwise plays at random. A drop-in replacement for RandomPolicy
// that sharpens rollouts near the end of the game.
type TacticalPolicy struct{}

func (TacticalPolicy) PlayOut(board game.Board, toMove game.Player, rng *rand.Rand) game.Outcome {
	outcome := board.Outcome()
	for !outcome.Terminal() {
		if a, ok := winningAction(board, toMove); ok {
			board = mustApply(board, a, toMove)
		} else {
			board = playRandom(board, toMove, rng)
		}
		toMove = toMove.Opponent()
		outcome = board.Outcome()
	}
	return outcome
}

func playRandom(board game.Board, toMove game.Player, rng *rand.Rand) game.Board {
	actions := board.LegalActions()
	if len(actions) == 0 {
		panic(fmt.Sprintf("searcher: rollout found no legal actions on non-terminal board\n%v", board))
	}
	return mustApply(board, actions[rng.Intn(len(actions))], toMove)
}

// winningAction returns an action that ends the game in p's favor, if
// one exists.
func winningAction(board game.Board, p game.Player) (game.Action, bool) {
	for _, a := range board.LegalActions() {
		next := mustApply(board, a, p)
		if next.Outcome() == game.Win(p) {
			return a, true
		}
	}
	return game.Action{}, false
}

func mustApply(board game.Board, a game.Action, p game.Player) game.Board {
	next, err := board.Apply(a, p)
	if err != nil {
		panic(fmt.Sprintf("searcher: rollout produced %v", err))
	}
	return next
}
