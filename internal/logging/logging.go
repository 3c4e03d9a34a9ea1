// Package logging builds the slog logger used across a run.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// New returns a text logger on w at Info (Debug when verbose). When logFile
// is set, records are also appended to it as JSON lines. The cleanup
// function closes the file and is safe to call when no file was opened.
func New(w io.Writer, verbose bool, logFile string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	text := slog.NewTextHandler(w, opts)

	if logFile == "" {
		return slog.New(text), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slogmulti.Fanout(text, slog.NewJSONHandler(f, opts)))
	return logger, func() { _ = f.Close() }, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
