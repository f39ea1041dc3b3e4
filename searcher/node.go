package searcher

import (
	"fmt"

	"tictac/game"
)

// node is one position in the search tree plus the statistics gathered
// about it. A node owns its children; the parent pointer is walked
// upward during backpropagation only and never manages lifetime.
//
// wins holds the accumulated value from the perspective of the player
// whose move produced the node, so a selecting parent can compare its
// children's means directly.
type node struct {
	parent   *node
	children []*node

	board  game.Board
	player game.Player // player to move at this position
	action game.Action // move that produced this node from its parent

	wins     float64
	visits   int
	expanded bool
	terminal bool
}

func newRoot(board game.Board, player game.Player) *node {
	return &node{
		board:    board,
		player:   player,
		terminal: board.IsTerminal(),
	}
}

// expand materializes one child per legal action, in row-major order.
func (n *node) expand() {
	if n.expanded || n.terminal {
		panic("searcher: expanding an expanded or terminal node")
	}

	actions := n.board.LegalActions()
	if len(actions) == 0 {
		// A non-terminal board without a legal action means outcome
		// classification is broken; aborting beats looping forever.
		panic(fmt.Sprintf("searcher: no legal actions on non-terminal board\n%v", n.board))
	}

	n.children = make([]*node, 0, len(actions))
	for _, a := range actions {
		board, err := n.board.Apply(a, n.player)
		if err != nil {
			panic(fmt.Sprintf("searcher: expansion produced %v", err))
		}
		n.children = append(n.children, &node{
			parent:   n,
			board:    board,
			player:   n.player.Opponent(),
			action:   a,
			terminal: board.IsTerminal(),
		})
	}
	n.expanded = true
}

// selectChild returns the child with the highest UCT score. Ties keep
// the first child in row-major action order.
func (n *node) selectChild(c float64) *node {
	scorer := newUCTScorer(c, n.visits)
	best := n.children[0]
	bestScore := scorer.score(best.wins, best.visits)
	for _, child := range n.children[1:] {
		if s := scorer.score(child.wins, child.visits); s > bestScore {
			best = child
			bestScore = s
		}
	}
	return best
}

// backpropagate adds the simulation value to this node and walks up to
// the root, flipping the sign at every level: a result favorable to a
// child is unfavorable to its parent.
func (n *node) backpropagate(value float64) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.visits++
		cur.wins += value
		value = -value
	}
}

func (n *node) mean() float64 {
	return n.wins / float64(n.visits)
}

// bestAction picks the most-visited child; ties fall to the higher
// mean value, then to the lower row-major action index.
func (n *node) bestAction() game.Action {
	if len(n.children) == 0 {
		panic("searcher: best action on a childless node")
	}

	best := n.children[0]
	for _, child := range n.children[1:] {
		switch {
		case child.visits > best.visits:
			best = child
		case child.visits == best.visits && child.visits > 0 && child.mean() > best.mean():
			best = child
		}
	}
	return best.action
}
