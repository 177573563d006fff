package gui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/qnkhuat/connterm/pkg/board"
	"github.com/qnkhuat/connterm/pkg/event"
	"github.com/qnkhuat/connterm/pkg/game"
)

const (
	pieceRune  = '●'
	cursorRune = '▼'
)

// pieceColor returns the theme's color for a cell's occupant
func pieceColor(c board.Cell, t Theme) tcell.Color {
	switch c {
	case board.PlayerA:
		return t.PlayerA
	case board.PlayerB:
		return t.PlayerB
	default:
		return t.Empty
	}
}

// squareBg picks the background of a board square
func squareBg(column, row int, last *event.MoveEvent, won bool, t Theme) tcell.Color {
	if last != nil && last.Column == column && last.Row == row {
		if won {
			return t.Win
		}
		return t.LastMove
	}
	return t.Frame
}

// RenderTable redraws the whole board into the table. Row 0 of the table is
// the column header with the cursor, the bottom row of the board is last.
func (cl *Client) RenderTable() {
	b := cl.Controller.Board
	won := cl.Controller.Outcome().Outcome == event.OutcomeWin

	for column := 0; column < b.Columns; column++ {
		label := fmt.Sprintf(" %d ", column+1)
		color := cl.Theme.Label
		if column == cl.selected && cl.Controller.MyTurn() {
			label = fmt.Sprintf(" %c ", cursorRune)
			color = pieceColor(cl.Controller.Local(), cl.Theme)
		}
		cl.Board.SetCell(0, column, tview.NewTableCell(label).
			SetTextColor(color).
			SetAlign(tview.AlignCenter).
			SetSelectable(false))
	}

	for r := 1; r <= b.Rows; r++ {
		row := b.Rows - r
		for column := 0; column < b.Columns; column++ {
			occupant := b.Cell(column, row)
			cell := tview.NewTableCell(fmt.Sprintf(" %c ", pieceRune)).
				SetTextColor(pieceColor(occupant, cl.Theme)).
				SetBackgroundColor(squareBg(column, row, cl.last, won, cl.Theme)).
				SetAlign(tview.AlignCenter).
				SetSelectable(false)
			cl.Board.SetCell(r, column, cell)
		}
	}
}

// RenderStatus rewrites the line under the board
func (cl *Client) RenderStatus() {
	c := cl.Controller
	you := fmt.Sprintf("%s%c[-] %s", colorTag(pieceColor(c.Local(), cl.Theme)), pieceRune, tview.Escape(cl.Nick))

	var line string
	switch {
	case c.State() == game.StateAwaitingConnection:
		line = "Waiting for the other player"
	case c.Outcome().Outcome != event.OutcomeNone:
		line = describeOutcome(c.Outcome(), c.Local())
	case c.MyTurn():
		line = "Your move: ←/→ and Enter, or 1-" + fmt.Sprint(c.Board.Columns)
	default:
		line = "Waiting for the opponent's move"
	}

	clocks := fmt.Sprintf("%s%c[-] %s  %s%c[-] %s",
		colorTag(cl.Theme.PlayerA), pieceRune, cl.clocks[board.PlayerA],
		colorTag(cl.Theme.PlayerB), pieceRune, cl.clocks[board.PlayerB])

	text := fmt.Sprintf("%s\n%s\n%s", you, clocks, line)
	if cl.message != "" {
		text += fmt.Sprintf("\n%s%s[-]", colorTag(cl.Theme.Msg), tview.Escape(cl.message))
	}
	cl.Status.SetText(text)
}

func colorTag(c tcell.Color) string {
	if c.Hex() < 0 {
		return "[-]"
	}
	return fmt.Sprintf("[#%06x]", c.Hex())
}

func describeOutcome(e event.GameOverEvent, local board.Cell) string {
	switch e.Outcome {
	case event.OutcomeWin:
		if e.Winner == local {
			return "You won!"
		}
		return "You lost."
	case event.OutcomeDraw:
		return "Draw, the board is full."
	case event.OutcomeAborted:
		return "The other player left: " + e.Reason
	default:
		return ""
	}
}
