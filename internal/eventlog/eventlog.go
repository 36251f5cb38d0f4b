// Package eventlog records mutating pstate operations as JSON lines in
// .planning/logs/pstate.jsonl and, with --verbose, as text on stderr.
// Logging never fails a command.
package eventlog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/pstate/internal/atomicfile"
	"github.com/jorge-barreto/pstate/internal/lock"
)

const FileName = "pstate.jsonl"

// Options configures Open.
type Options struct {
	Dir        string // directory for the log file; empty disables the file
	MaxEntries int    // lines kept after rotation; 0 keeps everything
	Verbose    bool
	Stderr     io.Writer
	Locks      *lock.Manager
}

// Log is an open event log. Close it to flush and rotate the file.
type Log struct {
	*slog.Logger

	file  *os.File
	path  string
	max   int
	locks *lock.Manager
}

// Open builds the logger. A log file that cannot be opened is skipped.
func Open(opts Options) *Log {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlers := fanoutHandler{slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})}

	locks := opts.Locks
	if locks == nil {
		locks = &lock.Manager{}
	}
	l := &Log{max: opts.MaxEntries, locks: locks}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err == nil {
			l.path = filepath.Join(opts.Dir, FileName)
			f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
			if err == nil {
				l.file = f
				handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelInfo}))
			}
		}
	}
	l.Logger = slog.New(handlers)
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Log {
	return &Log{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Path returns the log file path, or "" when there is no file.
func (l *Log) Path() string {
	if l.file == nil {
		return ""
	}
	return l.path
}

// Close closes the file and trims it to the newest MaxEntries lines.
// Rotation is skipped when another process holds the log's lock.
func (l *Log) Close() {
	if l.file == nil {
		return
	}
	l.file.Close()
	l.file = nil
	if l.max > 0 {
		_ = l.locks.WithLock(l.path, func() error {
			return rotate(l.path, l.max)
		})
	}
}

func rotate(path string, keep int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := bytes.SplitAfter(data, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	if len(lines) <= keep {
		return nil
	}
	return atomicfile.WriteNoBackup(path, bytes.Join(lines[len(lines)-keep:], nil))
}

// fanoutHandler sends each record to every handler enabled for its level.
type fanoutHandler []slog.Handler

func (hs fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (hs fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (hs fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(hs))
	for i, h := range hs {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (hs fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(hs))
	for i, h := range hs {
		out[i] = h.WithGroup(name)
	}
	return out
}
