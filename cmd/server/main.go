package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/qnkhuat/connterm/pkg/game"
	"github.com/qnkhuat/connterm/pkg/ssh"
)

const shutdownTimeout = 10 * time.Second

var (
	listenAddressSSH string
	conntermBinary   string
	hostKeyFile      string
	logPath          string

	logDebug   bool
	logVerbose bool
)

func init() {
	flag.StringVar(&listenAddressSSH, "listen-ssh", ssh.DefaultListenAddress, "host SSH server on network address")
	flag.StringVar(&conntermBinary, "connterm", "", "path to connterm client (defaults to the one next to this binary)")
	flag.StringVar(&hostKeyFile, "host-key", "", "path to SSH host key (generated when empty)")
	flag.StringVar(&logPath, "log", "", "path to log file (stderr when empty)")
	flag.BoolVar(&logDebug, "debug", false, "enable debug logging")
	flag.BoolVar(&logVerbose, "verbose", false, "enable verbose logging")
}

func main() {
	flag.Parse()

	if logPath != "" {
		f, err := game.InitLog(logPath, "SERVER: ")
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
	} else {
		log.SetPrefix("SERVER: ")
	}

	level := game.LogStandard
	if logVerbose {
		level = game.LogVerbose
	} else if logDebug {
		level = game.LogDebug
	}
	logger := game.NewLogger(log.Default(), level)

	if conntermBinary == "" {
		self, err := os.Executable()
		if err != nil {
			log.Fatal(err)
		}
		conntermBinary = filepath.Join(filepath.Dir(self), "connterm")
	}
	if _, err := os.Stat(conntermBinary); err != nil {
		log.Fatalf("connterm client not found: %s", err)
	}

	server, err := ssh.NewServer(listenAddressSSH, conntermBinary, hostKeyFile, logger)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	served := make(chan error, 1)
	go func() {
		served <- server.ListenAndServe()
	}()
	color.Cyan("Serving connterm over SSH on %s", listenAddressSSH)

	select {
	case err := <-served:
		if err != nil {
			log.Printf("SSH server stopped: %s", err)
			color.Red("%s", err)
		}
		return
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shut down cleanly: %s", err)
	}
	<-served
}
