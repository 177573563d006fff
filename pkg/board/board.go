package board

import (
	"errors"
	"strings"
)

const (
	DefaultColumns = 7
	DefaultRows    = 6

	// Pieces in a row needed to win
	WinLength = 4
)

var (
	ErrInvalidColumn = errors.New("invalid column")
	ErrColumnFull    = errors.New("column full")
	ErrInvalidPlayer = errors.New("invalid player")
)

type Cell int

const (
	Empty Cell = iota
	PlayerA
	PlayerB
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return "Empty"
	case PlayerA:
		return "PlayerA"
	case PlayerB:
		return "PlayerB"
	default:
		return "Unknown"
	}
}

// Other returns the opposing player. Empty has no opponent.
func (c Cell) Other() Cell {
	switch c {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return Empty
	}
}

// Board is a grid of cells indexed by column then row. Row 0 is the bottom.
type Board struct {
	Columns int
	Rows    int

	cells  []Cell
	filled int
}

func New(columns, rows int) *Board {
	return &Board{
		Columns: columns,
		Rows:    rows,
		cells:   make([]Cell, columns*rows),
	}
}

func NewDefault() *Board {
	return New(DefaultColumns, DefaultRows)
}

func (b *Board) i(column, row int) int {
	return row*b.Columns + column
}

func (b *Board) inside(column, row int) bool {
	return column >= 0 && column < b.Columns && row >= 0 && row < b.Rows
}

// Cell returns the mark at (column, row). Out of range reads are Empty.
func (b *Board) Cell(column, row int) Cell {
	if !b.inside(column, row) {
		return Empty
	}
	return b.cells[b.i(column, row)]
}

// Height returns the number of pieces in a column, which is also the row the
// next piece dropped there would land on.
func (b *Board) Height(column int) int {
	if column < 0 || column >= b.Columns {
		return 0
	}
	for row := 0; row < b.Rows; row++ {
		if b.cells[b.i(column, row)] == Empty {
			return row
		}
	}
	return b.Rows
}

// Place drops a piece for player into column and returns the row it landed on.
func (b *Board) Place(column int, player Cell) (int, error) {
	if player != PlayerA && player != PlayerB {
		return -1, ErrInvalidPlayer
	} else if column < 0 || column >= b.Columns {
		return -1, ErrInvalidColumn
	}

	row := b.Height(column)
	if row >= b.Rows {
		return -1, ErrColumnFull
	}

	b.cells[b.i(column, row)] = player
	b.filled++
	return row, nil
}

// axes holds one direction per line through a cell; the opposite direction
// is walked by negating it.
var axes = [4][2]int{
	{1, 0},  // horizontal
	{0, 1},  // vertical
	{1, 1},  // diagonal /
	{1, -1}, // diagonal \
}

// CheckWin reports whether the piece at (column, row) completes a line of
// WinLength. Only cells on the four lines through it are visited.
func (b *Board) CheckWin(column, row int) bool {
	mark := b.Cell(column, row)
	if mark == Empty {
		return false
	}

	for _, d := range axes {
		count := b.countFrom(column, row, d[0], d[1], mark) +
			b.countFrom(column, row, -d[0], -d[1], mark)
		if count >= WinLength-1 {
			return true
		}
	}
	return false
}

func (b *Board) countFrom(column, row, dc, dr int, mark Cell) int {
	count := 0
	c, r := column+dc, row+dr
	for b.inside(c, r) && b.cells[b.i(c, r)] == mark {
		count++
		c += dc
		r += dr
	}
	return count
}

func (b *Board) Full() bool {
	return b.filled == len(b.cells)
}

func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
	b.filled = 0
}

// String draws the board top row first, '.' for empty, 'A' and 'B' for pieces.
func (b *Board) String() string {
	var sb strings.Builder
	for row := b.Rows - 1; row >= 0; row-- {
		for column := 0; column < b.Columns; column++ {
			switch b.cells[b.i(column, row)] {
			case PlayerA:
				sb.WriteByte('A')
			case PlayerB:
				sb.WriteByte('B')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
