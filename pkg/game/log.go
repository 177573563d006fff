package game

import (
	"fmt"
	"log"
	"os"
)

const (
	LogStandard = iota
	LogDebug
	LogVerbose
)

// Logger gates messages by level. A nil Logger discards everything.
type Logger struct {
	*log.Logger
	Level int
}

func NewLogger(l *log.Logger, level int) *Logger {
	return &Logger{Logger: l, Level: level}
}

func (l *Logger) Log(level int, a ...interface{}) {
	if l == nil || l.Logger == nil || level > l.Level {
		return
	}

	l.Output(2, fmt.Sprint(a...))
}

func (l *Logger) Logf(level int, format string, a ...interface{}) {
	if l == nil || l.Logger == nil || level > l.Level {
		return
	}

	l.Output(2, fmt.Sprintf(format, a...))
}

// InitLog sends the standard logger to dest. The terminal belongs to the UI
// so nothing may be logged to stdout while it runs.
func InitLog(dest, prefix string) (*os.File, error) {
	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	log.SetOutput(f)
	log.SetPrefix(prefix)
	return f, nil
}
