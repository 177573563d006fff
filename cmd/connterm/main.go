package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/qnkhuat/connterm/pkg/event"
	"github.com/qnkhuat/connterm/pkg/game"
	"github.com/qnkhuat/connterm/pkg/gui"
)

var (
	host        bool
	connectAddr string
	port        int
	nick        string
	logPath     string
	themeName   string
	themesPath  string
	peerFirst   bool

	logDebug   bool
	logVerbose bool
)

var (
	info = color.New(color.FgCyan)
	fail = color.New(color.FgRed, color.Bold)
	good = color.New(color.FgGreen)
)

func init() {
	flag.BoolVar(&host, "host", false, "wait for another player to connect")
	flag.StringVar(&connectAddr, "connect", "", "connect to a hosting player at address")
	flag.IntVar(&port, "port", game.DefaultPort, "port to host on or connect to")
	flag.StringVar(&nick, "nick", "", "nickname")
	flag.StringVar(&logPath, "log", "./connterm.log", "path to log file")
	flag.StringVar(&themeName, "theme", gui.ThemeBasic.Name, "color theme")
	flag.StringVar(&themesPath, "themes", "", "path to a JSON file with extra themes")
	flag.BoolVar(&peerFirst, "peer-first", false, "let the connecting player move first (both sides must agree)")
	flag.BoolVar(&logDebug, "debug", false, "enable debug logging")
	flag.BoolVar(&logVerbose, "verbose", false, "enable verbose logging")
}

func main() {
	flag.Parse()

	role, err := parseRole(host, connectAddr)
	if err != nil {
		fail.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fail.Fprintln(os.Stderr, "connterm needs an interactive terminal")
		os.Exit(1)
	}

	theme, err := loadTheme(themeName, themesPath)
	if err != nil {
		fail.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	f, err := game.InitLog(logPath, "CLIENT: ")
	if err != nil {
		fail.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := game.LogStandard
	if logVerbose {
		level = game.LogVerbose
	} else if logDebug {
		level = game.LogDebug
	}
	logger := game.NewLogger(log.Default(), level)

	nick = game.Nickname(nick)

	config := game.DefaultConfig()
	if peerFirst {
		config.FirstMover = game.RolePeer
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, role, config, theme, logger)
	stop()
	f.Close()

	os.Exit(code)
}

func run(ctx context.Context, role game.Role, config game.Config, theme gui.Theme, logger *game.Logger) int {
	t := game.NewTransport(logger)
	defer t.Close()

	var err error
	if role == game.RoleHost {
		if err = t.Listen(port); err == nil {
			info.Printf("Waiting for a player on %s, press Ctrl-C to give up\n", t.Addr())
			err = t.Accept(ctx)
		}
	} else {
		info.Printf("Connecting to %s:%d\n", connectAddr, port)
		err = t.Dial(ctx, connectAddr, port)
	}
	if err != nil {
		log.Printf("Failed to connect: %s", err)
		fail.Println(err)
		return 1
	}

	cl := gui.NewClient(theme, nick)
	c := game.NewController(t, cl, config, logger)
	if err := c.Connected(role); err != nil {
		fail.Println(err)
		return 1
	}
	cl.SetController(c)

	log.Printf("%s playing as %s against %s", nick, role, t.RemoteAddr())
	if err := cl.Run(ctx); err != nil {
		fail.Println(err)
		return 1
	}

	printOutcome(c)
	return 0
}

func parseRole(host bool, connectAddr string) (game.Role, error) {
	switch {
	case host && connectAddr != "":
		return game.RoleUnset, errors.New("--host and --connect are mutually exclusive")
	case host:
		return game.RoleHost, nil
	case connectAddr != "":
		return game.RolePeer, nil
	default:
		return game.RoleUnset, errors.New("one of --host or --connect is required")
	}
}

func loadTheme(name, path string) (gui.Theme, error) {
	var themes []gui.ThemeHex
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return gui.Theme{}, err
		}
		defer f.Close()

		if themes, err = gui.LoadThemes(f); err != nil {
			return gui.Theme{}, err
		}
	}
	return gui.ImportThemes(name, themes)
}

func printOutcome(c *game.Controller) {
	e := c.Outcome()
	switch {
	case e.Outcome == event.OutcomeWin && e.Winner == c.Local():
		good.Println("You won.")
	case e.Outcome == event.OutcomeWin:
		info.Println("You lost.")
	case e.Outcome == event.OutcomeDraw:
		info.Println("Draw.")
	case e.Outcome == event.OutcomeAborted:
		fail.Printf("Game aborted: %s\n", e.Reason)
	default:
		info.Println("Bye.")
	}
}
