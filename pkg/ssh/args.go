package ssh

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/qnkhuat/connterm/pkg/game"
)

const Usage = `usage:
  ssh <server>                          host a game on the default port
  ssh <server> host [port]              host a game
  ssh <server> connect <address> [port] join a game
`

var ErrUsage = errors.New("unknown command")

// Args turns the command of an SSH session into connterm flags.
func Args(user string, command []string) ([]string, error) {
	args := []string{"--nick", game.Nickname(user)}

	if len(command) == 0 {
		return append(args, "--host"), nil
	}

	switch verb, rest := command[0], command[1:]; verb {
	case "host":
		if len(rest) > 1 {
			return nil, fmt.Errorf("%w: too many arguments to host", ErrUsage)
		}
		args = append(args, "--host")
		if len(rest) == 1 {
			port, err := parsePort(rest[0])
			if err != nil {
				return nil, err
			}
			args = append(args, "--port", port)
		}
		return args, nil

	case "connect", "join":
		if len(rest) == 0 || len(rest) > 2 {
			return nil, fmt.Errorf("%w: connect needs an address and an optional port", ErrUsage)
		}
		address := rest[0]
		if address == "" || strings.HasPrefix(address, "-") {
			return nil, fmt.Errorf("%w: invalid address %q", ErrUsage, address)
		}
		args = append(args, "--connect", address)
		if len(rest) == 2 {
			port, err := parsePort(rest[1])
			if err != nil {
				return nil, err
			}
			args = append(args, "--port", port)
		}
		return args, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUsage, verb)
	}
}

func parsePort(s string) (string, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("%w: invalid port %q", ErrUsage, s)
	}
	return strconv.Itoa(port), nil
}
