// Package logging provides the concrete application.Logger used across
// the proxy. It mirrors the teacher's thin wrapper over the standard log
// package rather than pulling in a structured-logging library — there is
// exactly one log sink (the writer given to NewStdLogger) and one line
// format, so the extra abstraction a leveled logger buys isn't exercised.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/y5a9f2y/proxy/application"
)

// StdLogger is a log.Logger-backed application.Logger.
type StdLogger struct {
	l *log.Logger
}

// NewStdLogger constructs a Logger writing to w with the standard date/time
// prefix. Passing nil uses os.Stderr.
func NewStdLogger(w io.Writer) application.Logger {
	if w == nil {
		w = os.Stderr
	}
	return &StdLogger{l: log.New(w, "", log.LstdFlags)}
}

func (s *StdLogger) Printf(format string, v ...any) {
	s.l.Printf(format, v...)
}
