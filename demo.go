package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// demoTypeInterval paces the demo typist. Slow enough to read the sidebar
// between keystrokes.
const demoTypeInterval = 900 * time.Millisecond

// demoLineLimit resets a demo document once the typist has grown it this far.
const demoLineLimit = 60

type demoState struct {
	active   bool
	ws       *workspace
	original map[int]string // editor id → starting text
	step     int
	tickID   int
	saved    searchFunc // real search runner, restored on exit
}

var demoDocuments = []struct {
	name string
	text string
}{
	{"server.go", `package server

// TODO: make the listen address configurable
const addr = ":8080"

func Start() error {
	// FIXME: this leaks the listener on error
	ln, err := listen(addr)
	if err != nil {
		return err
	}
	// TODO: graceful shutdown
	// NOTE: handlers are registered in routes.go
	return serve(ln)
}
`},
	{"CHANGELOG.md", `# Changelog

## Unreleased

- NOTE: config keys were renamed, see README
- TODO: document the migration
- TODO: release notes for the CLI
- TODO: screenshots
- FIXME: the 0.3 entry lists the wrong date
`},
	{"", `scratch buffer, never saved

TODO TODO TODO TODO TODO TODO TODO TODO TODO TODO TODO
`},
	{"routes.go", `package server

// NOTE: order matters, the catch-all route goes last
func routes() {
	handle("/health", health)
	handle("/", index)
}
`},
}

// demoLines are appended by the typist, one per tick, round-robin across
// documents. Only edits to the active, saved document move the counts.
var demoLines = []string{
	"// TODO: add a test for this",
	"// NOTE: see the design doc",
	"// FIXME: off by one when empty",
	"x := compute() // TODO: cache",
	"// TODO: remove after the migration",
	"// FIXME: flaky when the cache is cold",
}

// demoWorkspace builds an in-memory workspace. The unnamed document stays
// untitled, so typing into it never changes the sidebar.
func demoWorkspace() (*workspace, map[int]string) {
	ws := newWorkspace()
	original := make(map[int]string)
	for _, d := range demoDocuments {
		doc := &document{text: d.text}
		if d.name == "" {
			doc.untitled = true
		} else {
			doc.path = "/demo/" + d.name
		}
		e := ws.open(doc)
		original[e.id] = d.text
		if ws.active == nil {
			ws.active = e
		}
	}
	return ws, original
}

func demoTick(id int) tea.Cmd {
	return tea.Tick(demoTypeInterval, func(time.Time) tea.Msg {
		return demoTypeMsg{id: id}
	})
}

func (m *model) enterDemoMode() tea.Cmd {
	m.demo.active = true
	m.demo.ws, m.demo.original = demoWorkspace()
	m.demo.step = 0
	m.demo.tickID++
	m.demo.saved = m.sync.search
	// Searching in demo mode is a no-op that still reports success.
	m.sync.search = func(string) error { return nil }
	m.sync.attach(m.demo.ws)
	m.prevWord = m.view.selectedWord()
	m.help.ShowAll = false
	m.open.on = false
	m.restoreTitle()
	m.refreshPreview()
	return demoTick(m.demo.tickID)
}

func (m *model) exitDemoMode() tea.Cmd {
	m.demo.active = false
	m.demo.ws = nil
	m.demo.original = nil
	m.demo.tickID++ // drop the in-flight tick
	if m.demo.saved != nil {
		m.sync.search = m.demo.saved
		m.demo.saved = nil
	}
	m.sync.attach(m.ws)
	m.prevWord = m.view.selectedWord()
	m.restoreTitle()
	m.refreshPreview()

	// Re-read from disk since the watcher was ignoring documents during demo
	var cmds []tea.Cmd
	for _, e := range m.ws.textEditors() {
		if p := e.path(); p != "" {
			cmds = append(cmds, loadDocument(e.id, p, eventTextSettled))
		}
	}
	return tea.Batch(cmds...)
}

// advanceDemo types one line into the next document and reports it as a
// settled text change.
func (m *model) advanceDemo() tea.Cmd {
	editors := m.demo.ws.textEditors()
	if len(editors) == 0 {
		m.demo.tickID++
		return demoTick(m.demo.tickID)
	}
	e := editors[m.demo.step%len(editors)]
	line := demoLines[m.demo.step%len(demoLines)]
	m.demo.step++

	if strings.Count(e.doc.text, "\n") >= demoLineLimit {
		e.doc.text = m.demo.original[e.id]
	}
	e.doc.text += line + "\n"

	m.demo.tickID++
	return tea.Batch(
		m.sync.dispatch(event{kind: eventTextSettled, editor: e}),
		demoTick(m.demo.tickID),
	)
}
