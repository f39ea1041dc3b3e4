// Package searcher implements Monte Carlo Tree Search with UCT
// selection for two-player zero-sum grid games.
//
// The baseline search is strictly sequential and deterministic given a
// seed: one tree, one goroutine, an injected random source. Root
// parallelization is available as an option; it runs independent trees
// and merges them by summing per-action statistics, which keeps the
// result deterministic because the merge is order-independent.
package searcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/rand"

	"tictac/game"
)

// ErrTerminalRoot reports a search requested on a board whose game is
// already over, which signals caller misuse.
var ErrTerminalRoot = errors.New("terminal root")

// DefaultIterations is the iteration budget used when no option
// overrides it.
const DefaultIterations = 1000

// Progress reports completed work between iterations. The callback
// must not call back into the engine; with more than one parallel tree
// it may be invoked concurrently.
type Progress struct {
	Tree      int
	Iteration int
	Total     int
}

type Option func(*MCTS)

// WithIterations sets the iteration budget per tree.
func WithIterations(iterations int) Option {
	return func(m *MCTS) {
		if iterations > 0 {
			m.iterations = iterations
		}
	}
}

// WithExploration sets the UCT exploration constant c.
func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c > 0 {
			m.exploration = c
		}
	}
}

// WithParallelTrees enables root parallelization across the given
// number of independent trees. One tree is the sequential baseline.
func WithParallelTrees(trees int) Option {
	return func(m *MCTS) {
		if trees > 0 {
			m.trees = trees
		}
	}
}

// WithRolloutPolicy swaps the simulation policy.
func WithRolloutPolicy(policy RolloutPolicy) Option {
	return func(m *MCTS) {
		if policy != nil {
			m.policy = policy
		}
	}
}

// WithSeed fixes the random source so repeated searches on identical
// inputs return identical moves.
func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

// WithProgress installs a callback invoked after every completed
// iteration.
func WithProgress(fn func(Progress)) Option {
	return func(m *MCTS) {
		m.progress = fn
	}
}

// WithTreeReuse keeps the tree between calls and shifts the root to
// the queried position when it is found in the kept tree. Only applies
// to the sequential baseline.
func WithTreeReuse() Option {
	return func(m *MCTS) {
		m.reuse = true
	}
}

// MCTS picks moves by running a fixed budget of selection, expansion,
// simulation and backpropagation iterations.
//
// An instance is not safe for concurrent FindBestMove calls: every
// call owns its trees for its lifetime, but configuration and the last
// metric live on the struct.
type MCTS struct {
	iterations  int
	exploration float64
	trees       int
	policy      RolloutPolicy
	seed        uint64
	progress    func(Progress)
	reuse       bool

	root   *node // kept between calls when reuse is on
	metric SearchMetric
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{
		iterations:  DefaultIterations,
		exploration: DefaultExploration,
		trees:       1,
		policy:      RandomPolicy{},
		seed:        1,
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Metric returns statistics for the most recent FindBestMove call.
func (m *MCTS) Metric() SearchMetric {
	return m.metric
}

// FindBestMove searches the position and returns the most promising
// action for player. It fails with ErrTerminalRoot when the game on
// board is already over.
//
// ctx is consulted between iterations only; a started iteration always
// completes, and at least one iteration runs so a legal move can be
// returned even on an already-cancelled context.
func (m *MCTS) FindBestMove(ctx context.Context, board game.Board, player game.Player) (game.Action, error) {
	if outcome := board.Outcome(); outcome.Terminal() {
		return game.Action{}, fmt.Errorf("%w: %v", ErrTerminalRoot, outcome)
	}

	if m.trees > 1 {
		return m.searchParallel(ctx, board, player), nil
	}

	root := m.findReusableRoot(board, player)
	stats := newCollector(1, root != nil)
	if root == nil {
		root = newRoot(board, player)
	}

	rng := rand.New(rand.NewSource(m.seed))
	m.run(ctx, root, rng, 0, stats)

	if m.reuse {
		m.root = root
	}
	m.metric = stats.complete()
	return root.bestAction(), nil
}

// run executes the iteration budget on one tree, stopping early when
// ctx is cancelled.
func (m *MCTS) run(ctx context.Context, root *node, rng *rand.Rand, tree int, stats *collector) {
	for i := 0; i < m.iterations; i++ {
		if i > 0 && ctx.Err() != nil {
			return
		}
		m.runIteration(root, rng, stats)
		stats.addIteration()
		if m.progress != nil {
			m.progress(Progress{Tree: tree, Iteration: i + 1, Total: m.iterations})
		}
	}
}

// runIteration performs one selection, expansion, simulation and
// backpropagation cycle. Visits only ever enter the tree through the
// simulated node, so an expanded node's visit count exceeds the sum of
// its children's by at most the single rollout it received while still
// a leaf.
func (m *MCTS) runIteration(root *node, rng *rand.Rand, stats *collector) {
	// Selection: descend along max-UCT children to a leaf or a
	// terminal node.
	current := root
	for current.expanded && !current.terminal {
		current = current.selectChild(m.exploration)
	}

	// Expansion: materialize every legal child, then simulate the
	// first one in row-major order. One rollout per iteration.
	if !current.terminal {
		current.expand()
		current = current.children[0]
	}

	var outcome game.Outcome
	if current.terminal {
		outcome = current.board.Outcome()
	} else {
		outcome = m.policy.PlayOut(current.board, current.player, rng)
		stats.addFullPlayout()
	}

	// Score the outcome for the player whose move produced the node;
	// the sign then flips at every level on the way up.
	current.backpropagate(signedValue(outcome, current.player.Opponent()))
}

// signedValue converts a terminal outcome to +1, -1 or 0 from the
// perspective of mover.
func signedValue(outcome game.Outcome, mover game.Player) float64 {
	switch outcome.Winner() {
	case mover:
		return 1
	case game.None:
		return 0
	default:
		return -1
	}
}

// findReusableRoot looks for the queried position in the tree kept by
// a previous call and detaches it as the new root, discarding its
// siblings. Returns nil when reuse is off or the position is unknown.
func (m *MCTS) findReusableRoot(board game.Board, player game.Player) *node {
	if !m.reuse || m.root == nil {
		return nil
	}

	target := board.MoveCount()
	stack := []*node{m.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count := n.board.MoveCount()
		if count == target {
			if n.player == player && n.board.Equal(board) {
				n.parent = nil
				return n
			}
			continue // deeper nodes only move further away
		}
		stack = append(stack, n.children...)
	}
	return nil
}

// searchParallel runs root parallelization: independent trees with
// derived seeds, merged by summing visit counts and value sums per
// action. Tie-breaks follow the same rule as the sequential search.
func (m *MCTS) searchParallel(ctx context.Context, board game.Board, player game.Player) game.Action {
	stats := newCollector(m.trees, false)

	seeder := rand.New(rand.NewSource(m.seed))
	seeds := make([]uint64, m.trees)
	for i := range seeds {
		seeds[i] = seeder.Uint64()
	}

	roots := make([]*node, m.trees)
	var wg sync.WaitGroup
	for i := 0; i < m.trees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			root := newRoot(board, player)
			m.run(ctx, root, rand.New(rand.NewSource(seeds[i])), i, stats)
			roots[i] = root
		}(i)
	}
	wg.Wait()

	// Every tree enumerates the same actions in the same row-major
	// order, so children line up index by index.
	actions := board.LegalActions()
	visits := make([]int, len(actions))
	wins := make([]float64, len(actions))
	for _, root := range roots {
		for i, child := range root.children {
			visits[i] += child.visits
			wins[i] += child.wins
		}
	}

	best := 0
	for i := 1; i < len(actions); i++ {
		switch {
		case visits[i] > visits[best]:
			best = i
		case visits[i] == visits[best] && visits[i] > 0 &&
			wins[i]/float64(visits[i]) > wins[best]/float64(visits[best]):
			best = i
		}
	}

	m.metric = stats.complete()
	return actions[best]
}
