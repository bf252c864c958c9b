package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ─── Debug Log ───────────────────────────────────────────────────────────────
//
// The TUI owns the terminal, so diagnostics go to a file. The file is only
// created on the first enabled write; with debug_logs off the level sits
// above Error and nothing is written.

const levelOff = slog.LevelError + 4

func logPath() (string, error) {
	if p := os.Getenv("WORDC_LOG"); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// lazyFile opens its path for appending on first write.
type lazyFile struct {
	path string
	mu   sync.Mutex
	f    *os.File
	err  error
}

func (l *lazyFile) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil && l.err == nil {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			l.err = err
		} else {
			l.f, l.err = os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		}
	}
	if l.err != nil {
		// Logging must never interrupt the UI.
		return len(p), nil
	}
	return l.f.Write(p)
}

func (l *lazyFile) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

type debugLog struct {
	logger *slog.Logger
	level  *slog.LevelVar
	file   *lazyFile
}

// newDebugLog builds the logger. With no resolvable path it discards.
func newDebugLog(enabled bool) *debugLog {
	lv := new(slog.LevelVar)
	d := &debugLog{level: lv}
	d.setEnabled(enabled)
	path, err := logPath()
	if err != nil {
		d.logger = slog.New(slog.DiscardHandler)
		return d
	}
	d.file = &lazyFile{path: path}
	d.logger = slog.New(slog.NewTextHandler(d.file, &slog.HandlerOptions{Level: lv})).
		With("pid", os.Getpid())
	return d
}

func (d *debugLog) setEnabled(on bool) {
	if on {
		d.level.Set(slog.LevelDebug)
	} else {
		d.level.Set(levelOff)
	}
}

func (d *debugLog) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}

// discardLog is the logger used when none is supplied.
func discardLog() *debugLog {
	lv := new(slog.LevelVar)
	lv.Set(levelOff)
	return &debugLog{logger: slog.New(slog.DiscardHandler), level: lv}
}
