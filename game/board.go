package game

import (
	"errors"
	"fmt"
	"strings"
)

// Player identifies a side on the board. The zero value marks an empty
// cell. PlayerX always moves first.
type Player int8

const (
	None    Player = 0
	PlayerX Player = 1
	PlayerO Player = -1
)

// Opponent returns the other side. The opponent of None is None.
func (p Player) Opponent() Player {
	return -p
}

func (p Player) String() string {
	switch p {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	}
	return "."
}

// Action addresses a single cell, zero-based.
type Action struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (a Action) String() string {
	return fmt.Sprintf("(%d,%d)", a.Row, a.Col)
}

// Outcome classifies a board position. It is always computed from the
// grid, never stored.
type Outcome int8

const (
	InProgress Outcome = iota
	Draw
	WinX
	WinO
)

// Win returns the outcome recording a win for p.
func Win(p Player) Outcome {
	switch p {
	case PlayerX:
		return WinX
	case PlayerO:
		return WinO
	}
	panic("game: no win outcome for empty player")
}

// Winner returns the winning player, or None for a draw or a game
// still in progress.
func (o Outcome) Winner() Player {
	switch o {
	case WinX:
		return PlayerX
	case WinO:
		return PlayerO
	}
	return None
}

// Terminal reports whether the game is over.
func (o Outcome) Terminal() bool {
	return o != InProgress
}

func (o Outcome) String() string {
	switch o {
	case Draw:
		return "draw"
	case WinX:
		return "X wins"
	case WinO:
		return "O wins"
	}
	return "in progress"
}

var (
	// ErrIllegalMove reports an action targeting an occupied or
	// out-of-bounds cell. It propagates to the caller unmodified.
	ErrIllegalMove = errors.New("illegal move")

	// ErrMalformedBoard reports a grid that is not square or carries
	// cell values outside {-1, 0, 1}. Detected at construction.
	ErrMalformedBoard = errors.New("malformed board")
)

// Board is a square K×K grid. Boards behave as values: Apply returns a
// new Board and never mutates one that another holder may still
// reference.
type Board struct {
	size  int
	cells []Player
}

// New returns an empty size×size board.
func New(size int) Board {
	if size < 1 {
		panic(fmt.Sprintf("game: board size %d out of range", size))
	}
	return Board{size: size, cells: make([]Player, size*size)}
}

// FromGrid builds a board from a row-major grid of cell values. The
// grid must be square with every row the same length, and each value
// must be one of -1 (O), 0 (empty) or 1 (X).
func FromGrid(grid [][]int8) (Board, error) {
	size := len(grid)
	if size == 0 {
		return Board{}, fmt.Errorf("%w: empty grid", ErrMalformedBoard)
	}

	b := New(size)
	for r, row := range grid {
		if len(row) != size {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, want %d",
				ErrMalformedBoard, r, len(row), size)
		}
		for c, v := range row {
			switch Player(v) {
			case None, PlayerX, PlayerO:
				b.cells[r*size+c] = Player(v)
			default:
				return Board{}, fmt.Errorf("%w: cell (%d,%d) holds %d",
					ErrMalformedBoard, r, c, v)
			}
		}
	}
	return b, nil
}

// Size returns K, the side length of the grid.
func (b Board) Size() int {
	return b.size
}

// At returns the value of the cell at (row, col).
func (b Board) At(row, col int) Player {
	if !b.inBounds(row, col) {
		panic(fmt.Sprintf("game: cell (%d,%d) out of bounds on %dx%d board",
			row, col, b.size, b.size))
	}
	return b.cells[row*b.size+col]
}

// Grid returns a fresh row-major copy of the cell values, suitable for
// serialization by callers.
func (b Board) Grid() [][]int8 {
	grid := make([][]int8, b.size)
	for r := range grid {
		grid[r] = make([]int8, b.size)
		for c := range grid[r] {
			grid[r][c] = int8(b.cells[r*b.size+c])
		}
	}
	return grid
}

// MoveCount returns the number of non-empty cells.
func (b Board) MoveCount() int {
	count := 0
	for _, cell := range b.cells {
		if cell != None {
			count++
		}
	}
	return count
}

// NextPlayer derives whose turn it is from the move count: players
// alternate and X moves first.
func (b Board) NextPlayer() Player {
	if b.MoveCount()%2 == 0 {
		return PlayerX
	}
	return PlayerO
}

// LegalActions enumerates the empty cells in row-major order. The
// ordering is deterministic so that tie-breaks downstream are
// reproducible.
func (b Board) LegalActions() []Action {
	actions := make([]Action, 0, len(b.cells)-b.MoveCount())
	for i, cell := range b.cells {
		if cell == None {
			actions = append(actions, Action{Row: i / b.size, Col: i % b.size})
		}
	}
	return actions
}

// Apply places p on the cell addressed by a and returns the resulting
// board. The receiver is left untouched. Occupied or out-of-bounds
// targets fail with ErrIllegalMove, as does placing an empty value.
func (b Board) Apply(a Action, p Player) (Board, error) {
	if p != PlayerX && p != PlayerO {
		return Board{}, fmt.Errorf("%w: no player for action %v", ErrIllegalMove, a)
	}
	if !b.inBounds(a.Row, a.Col) {
		return Board{}, fmt.Errorf("%w: %v outside %dx%d board",
			ErrIllegalMove, a, b.size, b.size)
	}
	if b.cells[a.Row*b.size+a.Col] != None {
		return Board{}, fmt.Errorf("%w: cell %v is occupied", ErrIllegalMove, a)
	}

	cells := make([]Player, len(b.cells))
	copy(cells, b.cells)
	cells[a.Row*b.size+a.Col] = p
	return Board{size: b.size, cells: cells}, nil
}

// Outcome classifies the board: a win for the side holding any full
// row, column or main diagonal, a draw once no empty cell remains,
// otherwise still in progress.
func (b Board) Outcome() Outcome {
	k := b.size

	for i := 0; i < k; i++ {
		if p := b.lineWinner(i*k, 1); p != None { // row i
			return Win(p)
		}
		if p := b.lineWinner(i, k); p != None { // column i
			return Win(p)
		}
	}
	if p := b.lineWinner(0, k+1); p != None { // main diagonal
		return Win(p)
	}
	if p := b.lineWinner(k-1, k-1); p != None { // anti-diagonal
		return Win(p)
	}

	if b.MoveCount() == len(b.cells) {
		return Draw
	}
	return InProgress
}

// lineWinner checks k cells starting at start with the given stride and
// returns the player holding all of them, or None.
func (b Board) lineWinner(start, stride int) Player {
	first := b.cells[start]
	if first == None {
		return None
	}
	for i := 1; i < b.size; i++ {
		if b.cells[start+i*stride] != first {
			return None
		}
	}
	return first
}

// Equal reports whether two boards hold identical grids.
func (b Board) Equal(other Board) bool {
	if b.size != other.size {
		return false
	}
	for i, cell := range b.cells {
		if other.cells[i] != cell {
			return false
		}
	}
	return true
}

// IsTerminal reports whether the game on this board has ended.
func (b Board) IsTerminal() bool {
	return b.Outcome().Terminal()
}

func (b Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < b.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.cells[r*b.size+c].String())
		}
	}
	return sb.String()
}
