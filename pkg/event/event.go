package event

import "github.com/qnkhuat/connterm/pkg/board"

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeDraw
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "None"
	case OutcomeWin:
		return "Win"
	case OutcomeDraw:
		return "Draw"
	case OutcomeAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// MoveEvent is raised once per applied move, after the board is updated.
type MoveEvent struct {
	Column int
	Row    int
	Player board.Cell
	Remote bool
}

// GameOverEvent is raised once per game. Winner is board.Empty unless
// Outcome is OutcomeWin.
type GameOverEvent struct {
	Outcome Outcome
	Winner  board.Cell
	Reason  string
}

// Listener receives game events on the goroutine that drives the game.
type Listener interface {
	MoveApplied(MoveEvent)
	GameEnded(GameOverEvent)
}

// Funcs adapts plain functions to a Listener. Nil fields are skipped.
type Funcs struct {
	OnMove     func(MoveEvent)
	OnGameOver func(GameOverEvent)
}

func (f Funcs) MoveApplied(e MoveEvent) {
	if f.OnMove != nil {
		f.OnMove(e)
	}
}

func (f Funcs) GameEnded(e GameOverEvent) {
	if f.OnGameOver != nil {
		f.OnGameOver(e)
	}
}
