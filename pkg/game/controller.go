package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/qnkhuat/connterm/pkg/board"
	"github.com/qnkhuat/connterm/pkg/event"
)

// Link is the part of a Transport the controller drives.
type Link interface {
	Send(column int) error
	Drain() []int
	Done() <-chan struct{}
	Err() error

	// Abort ends the session at once; Done is closed and Err returns reason.
	Abort(reason error)
}

type Config struct {
	Columns int
	Rows    int

	// FirstMover is the role that opens every game. Defaults to the host.
	FirstMover Role
}

func DefaultConfig() Config {
	return Config{
		Columns:    board.DefaultColumns,
		Rows:       board.DefaultRows,
		FirstMover: RoleHost,
	}
}

// Controller is the turn state machine. Every method must be called from the
// single goroutine driving the game; only the Link is touched by others.
type Controller struct {
	ID     string
	Board  *board.Board
	Logger *Logger

	config   Config
	link     Link
	listener event.Listener

	role    Role
	state   State
	next    State
	current board.Cell
	outcome event.GameOverEvent
	moves   []Move

	// Remote moves held while a finished game is still on screen. The other
	// side may already have started the next game.
	pending []int
}

func NewController(link Link, listener event.Listener, config Config, logger *Logger) *Controller {
	if config.Columns <= 0 || config.Rows <= 0 {
		config.Columns, config.Rows = board.DefaultColumns, board.DefaultRows
	}
	if config.FirstMover == RoleUnset {
		config.FirstMover = RoleHost
	}
	if listener == nil {
		listener = event.Funcs{}
	}

	return &Controller{
		ID:       uuid.New().String()[:8],
		Board:    board.New(config.Columns, config.Rows),
		Logger:   logger,
		config:   config,
		link:     link,
		listener: listener,
		state:    StateAwaitingConnection,
	}
}

func (c *Controller) Role() Role {
	return c.role
}

func (c *Controller) State() State {
	return c.state
}

// Turn returns the player whose move is expected next.
func (c *Controller) Turn() board.Cell {
	return c.current
}

// Local returns the piece played from this side.
func (c *Controller) Local() board.Cell {
	return c.role.Piece()
}

// Outcome returns how the last game ended. Outcome is OutcomeNone while a
// game is running.
func (c *Controller) Outcome() event.GameOverEvent {
	return c.outcome
}

// Moves returns the moves of the current game in play order.
func (c *Controller) Moves() []Move {
	return append([]Move(nil), c.moves...)
}

// MyTurn reports whether SubmitLocalMove would be accepted now.
func (c *Controller) MyTurn() bool {
	return c.state == StateWaitingLocalMove
}

func (c *Controller) logf(level int, format string, a ...interface{}) {
	c.Logger.Logf(level, "[%s] "+format, append([]interface{}{c.ID}, a...)...)
}

// Connected starts the session once the transport has a stream.
func (c *Controller) Connected(role Role) error {
	if c.state != StateAwaitingConnection {
		return fmt.Errorf("%w: already connected as %s", ErrBadState, c.role)
	} else if role != RoleHost && role != RolePeer {
		return fmt.Errorf("%w: role %s", ErrBadState, role)
	}

	c.role = role
	c.logf(LogStandard, "Connected as %s", role)
	c.start()
	return nil
}

func (c *Controller) start() {
	c.Board.Reset()
	c.moves = c.moves[:0]
	c.outcome = event.GameOverEvent{}
	c.current = c.config.FirstMover.Piece()
	c.state = c.waitingFor(c.current)
	c.next = c.state

	c.replay()
}

func (c *Controller) waitingFor(player board.Cell) State {
	if player == c.Local() {
		return StateWaitingLocalMove
	}
	return StateWaitingRemoteMove
}

// SubmitLocalMove plays column for the local player and sends it to the
// remote side. Board errors are returned unchanged and leave the game as it
// was.
func (c *Controller) SubmitLocalMove(column int) error {
	if c.state != StateWaitingLocalMove {
		return ErrNotYourTurn
	}

	row, err := c.Board.Place(column, c.current)
	if err != nil {
		return err
	}

	if err := c.link.Send(column); err != nil {
		// The move stands locally and the session is aborted on the next Tick
		c.logf(LogStandard, "Failed to send column %d: %s", column, err)
		if !c.linkLost() {
			c.link.Abort(err)
		}
	}

	c.applied(column, row, false)
	return nil
}

// Tick runs once per frame: it ends the transition window, applies received
// moves in arrival order and reports a lost link.
func (c *Controller) Tick() {
	c.Settle()
	c.replay()

	// Checked before draining: anything pushed before the link closed is
	// then guaranteed to be in this drain.
	lost := c.linkLost()

	for _, column := range c.link.Drain() {
		if c.holding() || len(c.pending) > 0 {
			c.pending = append(c.pending, column)
			continue
		}
		c.applyRemote(column)
	}
	c.replay()

	if lost && c.state != StateGameOver && c.state != StateAwaitingConnection {
		reason := "connection closed"
		if err := c.link.Err(); err != nil {
			reason = err.Error()
		}
		c.end(event.GameOverEvent{Outcome: event.OutcomeAborted, Reason: reason})
	}
}

// Settle ends the transition window early, for a presentation layer that has
// finished showing the last move before the next Tick.
func (c *Controller) Settle() {
	if c.state == StateTransitioning {
		c.state = c.next
	}
}

// holding reports whether remote moves are kept for the next game instead of
// being applied.
func (c *Controller) holding() bool {
	return c.state == StateGameOver &&
		(c.outcome.Outcome == event.OutcomeWin || c.outcome.Outcome == event.OutcomeDraw)
}

// replay applies held moves in arrival order until one has to wait for the
// transition window or for the local side to start the next game.
func (c *Controller) replay() {
	for len(c.pending) > 0 && c.state != StateTransitioning && !c.holding() {
		column := c.pending[0]
		c.pending = c.pending[1:]
		c.logf(LogDebug, "Replaying held column %d", column)
		c.applyRemote(column)
	}
	if len(c.pending) == 0 {
		c.pending = nil
	}
}

func (c *Controller) applyRemote(column int) {
	if c.state != StateWaitingRemoteMove {
		c.logf(LogStandard, "%s", &ProtocolError{
			Token:  fmt.Sprint(column),
			Reason: "move received in state " + c.state.String(),
		})
		return
	}

	row, err := c.Board.Place(column, c.current)
	if err != nil {
		c.logf(LogStandard, "%s", &ProtocolError{Token: fmt.Sprint(column), Reason: err.Error()})
		return
	}

	c.applied(column, row, true)
}

// applied is shared by local and remote moves once the piece is on the board.
func (c *Controller) applied(column, row int, remote bool) {
	player := c.current
	c.moves = append(c.moves, Move{Column: column, Player: player})
	c.logf(LogDebug, "%s played column %d row %d", player, column, row)

	c.listener.MoveApplied(event.MoveEvent{Column: column, Row: row, Player: player, Remote: remote})

	if c.Board.CheckWin(column, row) {
		c.end(event.GameOverEvent{Outcome: event.OutcomeWin, Winner: player})
		return
	} else if c.Board.Full() {
		c.end(event.GameOverEvent{Outcome: event.OutcomeDraw, Reason: "board full"})
		return
	}

	c.current = player.Other()
	c.next = c.waitingFor(c.current)
	c.state = StateTransitioning
}

func (c *Controller) end(e event.GameOverEvent) {
	c.state = StateGameOver
	c.next = StateGameOver
	c.outcome = e

	c.logf(LogStandard, "Game over: %s %s %s", e.Outcome, e.Winner, e.Reason)
	c.listener.GameEnded(e)
}

// NewGame clears the board after a finished game. The remote side is
// expected to do the same; nothing is sent. Moves the remote side played in
// its new game before this call are applied to the fresh board.
func (c *Controller) NewGame() error {
	if c.state != StateGameOver {
		return ErrGameInProgress
	} else if c.outcome.Outcome == event.OutcomeAborted || c.linkLost() {
		return ErrDisconnected
	}

	c.start()
	return nil
}

// Abandon throws away the current game whatever its state.
func (c *Controller) Abandon() error {
	if c.state == StateAwaitingConnection {
		return fmt.Errorf("%w: not connected", ErrBadState)
	}

	if c.linkLost() {
		return ErrDisconnected
	}

	c.logf(LogStandard, "Game abandoned")
	c.start()
	return nil
}

func (c *Controller) linkLost() bool {
	select {
	case <-c.link.Done():
		return true
	default:
		return false
	}
}

// IsMoveError reports whether err came from a rejected local move, which the
// caller can recover from by picking another column.
func IsMoveError(err error) bool {
	return errors.Is(err, board.ErrInvalidColumn) ||
		errors.Is(err, board.ErrColumnFull) ||
		errors.Is(err, ErrNotYourTurn)
}
