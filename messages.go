package main

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// ─── Messages ────────────────────────────────────────────────────────────────
//
// All messages are internal to the Update loop. Async tea.Cmd functions
// (in commands.go) produce these; Update handles them. Messages with an
// `id` field use generation counters to ignore stale timers.

// fsBatchMsg is sent by the fsnotify watcher after debounce.
type fsBatchMsg struct {
	events []fsnotify.Event
}

// docLoadedMsg carries a freshly read document body. kind is the event to
// dispatch once the text has been applied.
type docLoadedMsg struct {
	editorID int
	path     string
	text     string
	info     docInfo
	kind     eventKind
}

// docMissingMsg reports that a document's file vanished before it could be read.
type docMissingMsg struct {
	editorID int
}

// docOpenedMsg is returned by the open-file prompt.
type docOpenedMsg struct {
	doc *document
}

// configReloadedMsg carries the config re-read after its file changed.
type configReloadedMsg struct {
	cfg config
	err error
}

type statusClearMsg struct {
	id int
}

type copiedClearMsg struct {
	id int
}

// demoTypeMsg drives the demo typist one keystroke batch forward.
type demoTypeMsg struct {
	id int
}

type editorLaunchedMsg struct{}

type errMsg struct {
	err error
}

type panicError struct {
	v any
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.v)
}
