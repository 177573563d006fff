//go:build windows

package ssh

import (
	"context"
	"errors"
	"net"

	"github.com/qnkhuat/connterm/pkg/game"
)

// SSH server is unsupported on Windows

var errUnsupported = errors.New("ssh: not supported on windows")

type Server struct {
	ListenAddress string
	Binary        string
	Logger        *game.Logger
}

func NewServer(listenAddress, binary, hostKeyFile string, logger *game.Logger) (*Server, error) {
	return nil, errUnsupported
}

func (s *Server) ListenAndServe() error {
	return errUnsupported
}

func (s *Server) Serve(l net.Listener) error {
	return errUnsupported
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}
