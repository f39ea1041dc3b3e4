package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"tictac/game"
	"tictac/searcher"
)

func TestRunPlaysToCompletion(t *testing.T) {
	x := RandomAgent{Rng: rand.New(rand.NewSource(1))}
	o := RandomAgent{Rng: rand.New(rand.NewSource(2))}
	local := NewLocal(game.New(3), game.PlayerX, x, o)

	outcome, err := local.Run(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Terminal())
	require.True(t, local.Board().IsTerminal())

	history := local.History()
	require.Equal(t, local.Board().MoveCount(), len(history))
	for i, record := range history {
		want := game.PlayerX
		if i%2 == 1 {
			want = game.PlayerO
		}
		require.Equal(t, want, record.Player, "turns must alternate starting with X")
	}
}

type failingAgent struct{ err error }

func (a failingAgent) FindMove(context.Context, game.Board, game.Player) (game.Action, error) {
	return game.Action{}, a.err
}

type occupiedAgent struct{}

func (occupiedAgent) FindMove(_ context.Context, board game.Board, _ game.Player) (game.Action, error) {
	return game.Action{Row: 0, Col: 0}, nil
}

func TestRunAbortsOnAgentFailure(t *testing.T) {
	t.Run("propagates agent errors", func(t *testing.T) {
		boom := errors.New("boom")
		local := NewLocal(game.New(3), game.PlayerX, failingAgent{err: boom}, occupiedAgent{})
		_, err := local.Run(context.Background())
		require.ErrorIs(t, err, boom)
	})

	t.Run("rejects illegal agent moves", func(t *testing.T) {
		// Both sides insist on (0,0); the second attempt hits an
		// occupied cell.
		local := NewLocal(game.New(3), game.PlayerX, occupiedAgent{}, occupiedAgent{})
		_, err := local.Run(context.Background())
		require.ErrorIs(t, err, game.ErrIllegalMove)
	})
}

func TestSearchAgentNeverLosesAsSecondPlayer(t *testing.T) {
	engineLosses := 0
	baselineLosses := 0

	for seed := uint64(1); seed <= 20; seed++ {
		x := RandomAgent{Rng: rand.New(rand.NewSource(seed))}
		o := SearchAgent{MCTS: searcher.NewMCTS(
			searcher.WithIterations(1000),
			searcher.WithSeed(seed),
		)}
		outcome, err := NewLocal(game.New(3), game.PlayerX, x, o).Run(context.Background())
		require.NoError(t, err)
		if outcome == game.WinX {
			engineLosses++
		}

		// Same first player against a random second player, as the
		// baseline the search must beat.
		bx := RandomAgent{Rng: rand.New(rand.NewSource(seed))}
		bo := RandomAgent{Rng: rand.New(rand.NewSource(seed + 1000))}
		outcome, err = NewLocal(game.New(3), game.PlayerX, bx, bo).Run(context.Background())
		require.NoError(t, err)
		if outcome == game.WinX {
			baselineLosses++
		}
	}

	require.Zero(t, engineLosses, "the search must hold every game against a random first player")
	require.Positive(t, baselineLosses, "a random second player drops some of the same games")
}

func TestSelfPlayDraws(t *testing.T) {
	for seed := uint64(1); seed <= 3; seed++ {
		x := SearchAgent{MCTS: searcher.NewMCTS(
			searcher.WithIterations(2000),
			searcher.WithSeed(seed),
		)}
		o := SearchAgent{MCTS: searcher.NewMCTS(
			searcher.WithIterations(2000),
			searcher.WithSeed(seed + 100),
		)}
		outcome, err := NewLocal(game.New(3), game.PlayerX, x, o).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, game.Draw, outcome, "seed %d: neither side should outsearch the other", seed)
	}
}
