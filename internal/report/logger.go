package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// SuccessMark prefixes success status lines.
const SuccessMark = "✓"

// Verbosity selects how much the status stream shows.
type Verbosity int

const (
	Normal Verbosity = iota
	Quiet
	Detailed
)

// NewLogger returns the status-line logger writing to w.
func NewLogger(w io.Writer, v Verbosity) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	switch v {
	case Quiet:
		l.SetLevel(log.WarnLevel)
	case Detailed:
		l.SetLevel(log.DebugLevel)
	default:
		l.SetLevel(log.InfoLevel)
	}
	return l
}

// Success logs an info line marked as a success.
func Success(l *log.Logger, msg string, keyvals ...any) {
	l.Info(fmt.Sprintf("%s %s", SuccessMark, msg), keyvals...)
}
