// Package logging builds the go-kit loggers used by the hosts.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ParseLevel maps a level name to a filter option
func ParseLevel(s string) (level.Option, error) {
	switch strings.ToLower(s) {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn", "warning":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	case "none", "off":
		return level.AllowNone(), nil
	}
	return nil, fmt.Errorf("unknown log level %q", s)
}

// New returns a logfmt logger with timestamp and caller that drops records
// below lvl
func New(w io.Writer, lvl string) (log.Logger, error) {
	allow, err := ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, allow)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return logger, nil
}

// Nop discards everything
func Nop() log.Logger {
	return log.NewNopLogger()
}
