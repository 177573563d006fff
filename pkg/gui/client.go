package gui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/qnkhuat/connterm/pkg/board"
	"github.com/qnkhuat/connterm/pkg/event"
	"github.com/qnkhuat/connterm/pkg/game"
)

// TickInterval is how often the UI goroutine drives Controller.Tick
const TickInterval = 50 * time.Millisecond

const modalPage = "modal"

// Labels of the modal buttons
const (
	ActionNewGame = "New game"
	ActionAbandon = "Start over"
	ActionCancel  = "Cancel"
	ActionExit    = "Quit"
)

// Client is the terminal front end. It implements event.Listener; every
// callback arrives on the tview goroutine, from Tick or a key handler.
type Client struct {
	App        *tview.Application
	Pages      *tview.Pages
	Board      *tview.Table
	Status     *tview.TextView
	Controller *game.Controller
	Theme      Theme
	Nick       string

	selected int
	last     *event.MoveEvent
	message  string
	clocks   map[board.Cell]*Clock
	now      func() time.Time
}

func NewClient(theme Theme, nick string) *Client {
	app := tview.NewApplication()

	table := tview.NewTable().
		SetBorders(false)
	table.SetBorder(true).
		SetTitle(" connterm ").
		SetBorderColor(theme.Frame)

	status := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)

	layout := tview.NewGrid().
		SetRows(-1, 16, 4, -1).
		SetColumns(-1, 30, -1).
		AddItem(tview.NewBox(), 0, 0, 1, 3, 0, 0, false).
		AddItem(table, 1, 1, 1, 1, 0, 0, true).
		AddItem(status, 2, 1, 1, 1, 0, 0, false).
		AddItem(tview.NewBox(), 3, 0, 1, 3, 0, 0, false)

	pages := tview.NewPages().
		AddPage("board", layout, true, true)

	cl := &Client{
		App:    app,
		Pages:  pages,
		Board:  table,
		Status: status,
		Theme:  theme,
		Nick:   nick,
		clocks: map[board.Cell]*Clock{
			board.PlayerA: {},
			board.PlayerB: {},
		},
		now: time.Now,
	}
	table.SetInputCapture(cl.handleKey)
	return cl
}

// SetController attaches the game. The controller must have been created
// with cl as its listener.
func (cl *Client) SetController(c *game.Controller) {
	cl.Controller = c
	cl.selected = c.Board.Columns / 2
	cl.resetClocks()
	cl.render()
}

func (cl *Client) resetClocks() {
	for _, clock := range cl.clocks {
		clock.Reset()
	}
	if clock, ok := cl.clocks[cl.Controller.Turn()]; ok {
		clock.Start(cl.now())
	}
}

func (cl *Client) render() {
	cl.RenderTable()
	cl.RenderStatus()
}

func (cl *Client) MoveApplied(e event.MoveEvent) {
	now := cl.now()
	cl.clocks[e.Player].Pause(now)
	cl.clocks[e.Player.Other()].Start(now)

	cl.last = &e
	cl.message = ""
	cl.render()
}

func (cl *Client) GameEnded(e event.GameOverEvent) {
	now := cl.now()
	for _, clock := range cl.clocks {
		clock.Pause(now)
	}
	cl.render()

	buttons := []string{ActionNewGame, ActionExit}
	if e.Outcome == event.OutcomeAborted {
		buttons = []string{ActionExit}
	}
	cl.showModal(describeOutcome(e, cl.Controller.Local()), buttons)
}

func (cl *Client) showModal(text string, buttons []string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons(buttons).
		SetDoneFunc(func(_ int, label string) {
			cl.Pages.RemovePage(modalPage)
			cl.handleAction(label)
		})
	cl.Pages.AddPage(modalPage, modal, false, true)
}

func (cl *Client) handleAction(label string) {
	var err error
	switch label {
	case ActionNewGame:
		err = cl.Controller.NewGame()
	case ActionAbandon:
		err = cl.Controller.Abandon()
	case ActionExit:
		cl.App.Stop()
		return
	default:
		return
	}

	if err != nil {
		cl.message = err.Error()
	} else {
		// Held remote moves may already have been replayed into the new game
		if len(cl.Controller.Moves()) == 0 {
			cl.last = nil
		}
		cl.message = ""
		cl.resetClocks()
	}
	cl.render()
}

// Play submits column for the local player and reports rejected moves on
// the status line.
func (cl *Client) Play(column int) {
	err := cl.Controller.SubmitLocalMove(column)
	switch {
	case err == nil:
	case errors.Is(err, game.ErrNotYourTurn):
		cl.message = "Not your turn"
	case game.IsMoveError(err):
		cl.message = fmt.Sprintf("Column %d: %s", column+1, err)
	default:
		cl.message = err.Error()
	}
	cl.render()
}

func (cl *Client) handleKey(ev *tcell.EventKey) *tcell.EventKey {
	columns := cl.Controller.Board.Columns

	switch ev.Key() {
	case tcell.KeyLeft:
		cl.selected = (cl.selected + columns - 1) % columns
	case tcell.KeyRight:
		cl.selected = (cl.selected + 1) % columns
	case tcell.KeyEnter, tcell.KeyDown:
		cl.Play(cl.selected)
		return nil
	case tcell.KeyEscape:
		cl.App.Stop()
		return nil
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r >= '1' && r <= '9' && int(r-'1') < columns:
			cl.selected = int(r - '1')
			cl.Play(cl.selected)
			return nil
		case r == 'h':
			cl.selected = (cl.selected + columns - 1) % columns
		case r == 'l':
			cl.selected = (cl.selected + 1) % columns
		case r == ' ':
			cl.Play(cl.selected)
			return nil
		case r == 'r':
			cl.showModal("Start over? The other player has to do the same.", []string{ActionAbandon, ActionCancel})
			return nil
		case r == 'q':
			cl.App.Stop()
			return nil
		default:
			return ev
		}
	default:
		return ev
	}

	cl.render()
	return nil
}

// tick runs on the tview goroutine
func (cl *Client) tick() {
	cl.Controller.Tick()

	now := cl.now()
	for _, clock := range cl.clocks {
		clock.Update(now)
	}
	cl.RenderStatus()
}

// Run blocks until the user quits or ctx is cancelled.
func (cl *Client) Run(ctx context.Context) error {
	if cl.Controller == nil {
		return errors.New("gui: no controller attached")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				cl.App.Stop()
				return
			case <-ticker.C:
				cl.App.QueueUpdateDraw(cl.tick)
			}
		}
	}()

	return cl.App.SetRoot(cl.Pages, true).EnableMouse(true).Run()
}
