package main

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Deferred Tasks ──────────────────────────────────────────────────────────
//
// A deferred task is a tea.Tick whose fire message only takes effect if the
// task is still pending. Cancelling deletes the pending entry, so the tick
// still arrives but is dropped. This is the same generation-counter scheme
// the status bar uses for its timers.

type taskKind int

const (
	taskSaveSettle taskKind = iota
)

func (k taskKind) String() string {
	switch k {
	case taskSaveSettle:
		return "save-settle"
	default:
		return "unknown"
	}
}

type deferredTask struct {
	id       int
	editorID int
	kind     taskKind
}

// taskFiredMsg is delivered when a deferred task's delay elapses.
type taskFiredMsg struct {
	id int
}

type deferredTasks struct {
	next    int
	pending map[int]deferredTask
	closed  bool
}

func newDeferredTasks() *deferredTasks {
	return &deferredTasks{pending: make(map[int]deferredTask)}
}

// schedule registers a task for e and returns the command that fires it.
// Returns nil after teardown.
func (d *deferredTasks) schedule(e *editor, delay time.Duration, kind taskKind) tea.Cmd {
	if d.closed || e == nil {
		return nil
	}
	d.next++
	id := d.next
	d.pending[id] = deferredTask{id: id, editorID: e.id, kind: kind}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return taskFiredMsg{id: id}
	})
}

// take claims a fired task. ok is false if it was cancelled or already taken.
func (d *deferredTasks) take(id int) (deferredTask, bool) {
	t, ok := d.pending[id]
	if ok {
		delete(d.pending, id)
	}
	return t, ok
}

// cancelFor drops every pending task for the editor and reports how many.
func (d *deferredTasks) cancelFor(editorID int) int {
	n := 0
	for id, t := range d.pending {
		if t.editorID == editorID {
			delete(d.pending, id)
			n++
		}
	}
	return n
}

// cancelAll drops every pending task and refuses new ones until reopen.
func (d *deferredTasks) cancelAll() {
	clear(d.pending)
	d.closed = true
}

func (d *deferredTasks) reopen() {
	d.closed = false
}

func (d *deferredTasks) len() int { return len(d.pending) }
