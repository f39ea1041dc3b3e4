package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"tictac/game"
)

func TestRandomPolicyReachesATerminalState(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		outcome := RandomPolicy{}.PlayOut(game.New(3), game.PlayerX, rng)
		require.True(t, outcome.Terminal(), "seed %d", seed)
	}
}

func TestRandomPolicyReproducible(t *testing.T) {
	playouts := func(seed uint64) []game.Outcome {
		rng := rand.New(rand.NewSource(seed))
		outcomes := make([]game.Outcome, 10)
		for i := range outcomes {
			outcomes[i] = RandomPolicy{}.PlayOut(game.New(3), game.PlayerX, rng)
		}
		return outcomes
	}

	require.Equal(t, playouts(99), playouts(99),
		"identical sources must replay identical games")
}

func TestTacticalPolicyTakesTheImmediateWin(t *testing.T) {
	// X to move with the top row open: (0,2) wins on the spot, so the
	// playout never depends on the random source.
	board := mustBoard(t, [][]int8{
		{1, 1, 0},
		{-1, -1, 0},
		{0, 0, 0},
	})

	for seed := uint64(1); seed <= 10; seed++ {
		rng := rand.New(rand.NewSource(seed))
		outcome := TacticalPolicy{}.PlayOut(board, game.PlayerX, rng)
		require.Equal(t, game.WinX, outcome, "seed %d", seed)
	}
}

func TestPoliciesReturnTerminalBoardsUnchanged(t *testing.T) {
	board := mustBoard(t, [][]int8{
		{1, 1, 1},
		{-1, -1, 0},
		{0, 0, 0},
	})
	rng := rand.New(rand.NewSource(1))

	require.Equal(t, game.WinX, RandomPolicy{}.PlayOut(board, game.PlayerO, rng))
	require.Equal(t, game.WinX, TacticalPolicy{}.PlayOut(board, game.PlayerO, rng))
}
