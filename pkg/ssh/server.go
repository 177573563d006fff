//go:build !windows

package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/qnkhuat/connterm/pkg/game"
)

const (
	DefaultListenAddress = ":2222"
	ServerIdleTimeout    = 5 * time.Minute
)

// Server runs the connterm client in a pty for every SSH session, so a game
// can be played from any terminal without installing anything.
type Server struct {
	ListenAddress string
	Binary        string
	Logger        *game.Logger

	srv *ssh.Server
}

// NewServer prepares the SSH server. hostKeyFile may be empty, in which case
// a key is generated for the lifetime of the process.
func NewServer(listenAddress, binary, hostKeyFile string, logger *game.Logger) (*Server, error) {
	if binary == "" {
		return nil, errors.New("ssh: connterm binary must be specified")
	}
	if listenAddress == "" {
		listenAddress = DefaultListenAddress
	}

	s := &Server{
		ListenAddress: listenAddress,
		Binary:        binary,
		Logger:        logger,
	}

	s.srv = &ssh.Server{
		Addr:        listenAddress,
		IdleTimeout: ServerIdleTimeout,
		Handler:     s.handle,
		PtyCallback: func(ctx ssh.Context, pty ssh.Pty) bool {
			return true
		},
		PublicKeyHandler: func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		},
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			return true
		},
		KeyboardInteractiveHandler: func(ctx ssh.Context, challenger gossh.KeyboardInteractiveChallenge) bool {
			return true
		},
	}

	if hostKeyFile != "" {
		if err := s.srv.SetOption(ssh.HostKeyFile(hostKeyFile)); err != nil {
			return nil, fmt.Errorf("ssh: host key: %w", err)
		}
	}

	return s, nil
}

func (s *Server) ListenAndServe() error {
	s.Logger.Logf(game.LogStandard, "Listening for SSH connections on %s", s.ListenAddress)
	return ignoreServerClosed(s.srv.ListenAndServe())
}

func (s *Server) Serve(l net.Listener) error {
	s.Logger.Logf(game.LogStandard, "Listening for SSH connections on %s", l.Addr())
	return ignoreServerClosed(s.srv.Serve(l))
}

// Shutdown stops accepting sessions and waits for the running ones until ctx
// expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func ignoreServerClosed(err error) error {
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handle(sess ssh.Session) {
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "connterm: non-interactive terminals are not supported\n")

		sess.Exit(1)
		return
	}

	args, err := Args(sess.User(), sess.Command())
	if err != nil {
		fmt.Fprintf(sess, "connterm: %s\n%s", err, Usage)

		sess.Exit(2)
		return
	}

	s.Logger.Logf(game.LogStandard, "Session for %s from %s: %v", sess.User(), sess.RemoteAddr(), args)

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, s.Binary, args...)
	cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, winsize(ptyReq.Window))
	if err != nil {
		s.Logger.Logf(game.LogStandard, "Failed to start %s: %s", s.Binary, err)
		fmt.Fprintf(sess, "connterm: failed to initialize pseudo-terminal: %s\n", err)

		sess.Exit(1)
		return
	}
	defer f.Close()

	go func() {
		for win := range winCh {
			if err := pty.Setsize(f, winsize(win)); err != nil {
				s.Logger.Logf(game.LogDebug, "Failed to resize pty: %s", err)
			}
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	cancelCmd()
	err = cmd.Wait()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		sess.Exit(exitErr.ExitCode())
		return
	} else if err != nil {
		sess.Exit(1)
		return
	}
	sess.Exit(0)
}

func winsize(w ssh.Window) *pty.Winsize {
	return &pty.Winsize{Cols: uint16(w.Width), Rows: uint16(w.Height)}
}
