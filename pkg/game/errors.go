package game

import (
	"errors"
	"fmt"
)

// Connection errors are fatal to the session attempt and are never retried.
var (
	ErrBind           = errors.New("bind failed")
	ErrAccept         = errors.New("accept failed")
	ErrConnect        = errors.New("connect failed")
	ErrAlreadyStarted = errors.New("transport already started")
)

// Stream errors end a running session.
var (
	ErrNotConnected = errors.New("not connected")
	ErrDisconnected = errors.New("disconnected")
	ErrWrite        = errors.New("write failed")
)

// Move errors are returned to the caller of SubmitLocalMove; the board
// errors live in the board package.
var (
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGameInProgress = errors.New("game in progress")
	ErrBadState       = errors.New("invalid state")
)

// ProtocolError describes a token or move the remote side should not have
// sent. It is logged and the offending message is dropped.
type ProtocolError struct {
	Token  string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol violation: %s (token %q)", e.Reason, e.Token)
}
