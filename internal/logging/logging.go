// Package logging wires zerolog for the CLI. Pipeline components take
// a zerolog.Logger value; nothing in the pipeline touches the global
// logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup returns a console logger at the given level. Level may come
// from VCLIP_LOG_LEVEL or a flag; unknown values fall back to info.
func Setup(level string) zerolog.Logger {
	return New(os.Stderr, level)
}

func New(out io.Writer, level string) zerolog.Logger {
	lvl := parseLevel(level)
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
