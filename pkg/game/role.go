package game

import (
	"strconv"

	"github.com/qnkhuat/connterm/pkg/board"
)

type Role int

const (
	RoleUnset Role = iota
	RoleHost
	RolePeer
)

func (r Role) String() string {
	switch r {
	case RoleUnset:
		return "Unset"
	case RoleHost:
		return "Host"
	case RolePeer:
		return "Peer"
	default:
		return strconv.Itoa(int(r))
	}
}

// Piece returns the mark a role plays with. The host is always PlayerA,
// whichever side moves first.
func (r Role) Piece() board.Cell {
	switch r {
	case RoleHost:
		return board.PlayerA
	case RolePeer:
		return board.PlayerB
	default:
		return board.Empty
	}
}

type State int

const (
	StateAwaitingConnection State = iota
	StateWaitingLocalMove
	StateWaitingRemoteMove
	StateTransitioning
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingConnection:
		return "AwaitingConnection"
	case StateWaitingLocalMove:
		return "WaitingLocalMove"
	case StateWaitingRemoteMove:
		return "WaitingRemoteMove"
	case StateTransitioning:
		return "Transitioning"
	case StateGameOver:
		return "GameOver"
	default:
		return strconv.Itoa(int(s))
	}
}

// Move is a single column drop by a player.
type Move struct {
	Column int
	Player board.Cell
}
