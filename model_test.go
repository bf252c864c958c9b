package main

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

type testDocs struct {
	dir string
	a   string // active on startup
	b   string
}

func testModel(t *testing.T) (model, testDocs) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	docs := testDocs{
		dir: dir,
		a:   filepath.Join(dir, "a.go"),
		b:   filepath.Join(dir, "b.go"),
	}
	writeFile(t, docs.a, "// TODO one\n// TODO two\n// FIXME three\n")
	writeFile(t, docs.b, "NOTE NOTE NOTE\n")

	ws, err := loadWorkspace([]string{docs.a, docs.b}, nil)
	if err != nil {
		t.Fatalf("loadWorkspace: %v", err)
	}
	cfg := config{SearchCommand: []string{}}
	m := newModel(ws, cfg, nil, nil)
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, docs
}

// send delivers msg and drops the follow-up command.
func send(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	m2, _ := m.Update(msg)
	return m2.(model)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(y int) tea.MouseMsg {
	return tea.MouseMsg{X: 2, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

// collect runs cmd once, flattening batches, and returns the messages it
// produced. Follow-up commands are not run, since most are timers.
func collect(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, collect(t, sub)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// execCmd runs a tea.Cmd synchronously and feeds resulting messages back into
// the model. Only the first level is followed.
func execCmd(t *testing.T, m *model, cmd tea.Cmd) {
	t.Helper()
	for _, msg := range collect(t, cmd) {
		m2, _ := m.Update(msg)
		*m = m2.(model)
	}
}

func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestStartupCountsActiveDocument(t *testing.T) {
	m, _ := testModel(t)
	counts := m.sync.countsSnapshot()
	if counts["TODO"] != 2 || counts["FIXME"] != 1 || counts["NOTE"] != 0 {
		t.Errorf("counts = %v", counts)
	}
	if got := rowWords(m.sync.children()); !slices.Equal(got, []string{"TODO", "FIXME", "NOTE"}) {
		t.Errorf("rows = %v", got)
	}
	if m.view.selectedWord() != "TODO" || m.prevWord != "TODO" {
		t.Errorf("selected = %q, prevWord = %q", m.view.selectedWord(), m.prevWord)
	}
	if len(m.view.list.Items()) != 3 {
		t.Errorf("list has %d items, want 3", len(m.view.list.Items()))
	}
}

func TestNavigateRecountsOnSelection(t *testing.T) {
	m, _ := testModel(t)
	m.ws.activeEditor().doc.text = "TODO FIXME FIXME FIXME"

	m = send(t, m, keyPress("j"))
	if m.prevWord != "FIXME" {
		t.Fatalf("prevWord = %q, want FIXME", m.prevWord)
	}
	if got := m.sync.countsSnapshot(); got["FIXME"] != 3 || got["TODO"] != 1 {
		t.Errorf("selection did not recount: %v", got)
	}
	// FIXME now leads, and the cursor follows the word
	if m.view.selectedWord() != "FIXME" || m.view.list.Index() != 0 {
		t.Errorf("selected %q at %d", m.view.selectedWord(), m.view.list.Index())
	}
}

func TestTabCyclesDocuments(t *testing.T) {
	m, docs := testModel(t)

	m = send(t, m, keyPress("tab"))
	if m.ws.activeEditor().path() != docs.b {
		t.Fatalf("active = %s, want b.go", m.ws.activeEditor().path())
	}
	if got := m.sync.countsSnapshot(); got["NOTE"] != 3 || got["TODO"] != 0 {
		t.Errorf("counts = %v", got)
	}

	m = send(t, m, keyPress("["))
	if m.ws.activeEditor().path() != docs.a {
		t.Errorf("active = %s, want a.go", m.ws.activeEditor().path())
	}
}

func TestCloseActiveDocument(t *testing.T) {
	m, docs := testModel(t)
	closed := m.ws.activeEditor()

	m = send(t, m, keyPress("w"))
	if len(m.ws.textEditors()) != 1 || m.ws.activeEditor().path() != docs.b {
		t.Fatalf("after close: active = %s", m.ws.activeEditor().path())
	}
	if m.sync.monitored(closed) {
		t.Error("closed editor still monitored")
	}
	if m.sync.countsSnapshot()["NOTE"] != 3 {
		t.Errorf("counts = %v", m.sync.countsSnapshot())
	}

	m = send(t, m, keyPress("w"))
	if m.ws.activeEditor() != nil || len(m.sync.countsSnapshot()) != 0 {
		t.Error("closing the last document should clear everything")
	}
	if !strings.Contains(m.View(), "No document open") {
		t.Error("empty workspace should show the placeholder")
	}
}

func TestOpenPromptAddsDocument(t *testing.T) {
	m, docs := testModel(t)
	c := filepath.Join(docs.dir, "c.md")
	writeFile(t, c, "FIXME FIXME")

	m = send(t, m, keyPress("o"))
	if !m.open.on {
		t.Fatal("o should open the prompt")
	}
	m = send(t, m, keyPress(c))
	m2, cmd := m.Update(keyPress("enter"))
	m = m2.(model)
	if m.open.on {
		t.Error("enter should close the prompt")
	}
	execCmd(t, &m, cmd)

	if len(m.ws.textEditors()) != 3 || m.ws.activeEditor().path() != c {
		t.Fatalf("active = %s, editors = %d", m.ws.activeEditor().path(), len(m.ws.textEditors()))
	}
	if !m.sync.monitored(m.ws.activeEditor()) {
		t.Error("opened editor not monitored")
	}
	if m.sync.countsSnapshot()["FIXME"] != 2 {
		t.Errorf("counts = %v", m.sync.countsSnapshot())
	}
	if !strings.HasPrefix(m.status.text, "Opened c.md") {
		t.Errorf("status = %q", m.status.text)
	}
}

func TestOpenAlreadyOpenSwitches(t *testing.T) {
	m, docs := testModel(t)
	doc, _ := readDocument(docs.b)
	m = send(t, m, docOpenedMsg{doc: doc})
	if len(m.ws.textEditors()) != 2 {
		t.Errorf("editors = %d, want 2", len(m.ws.textEditors()))
	}
	if m.ws.activeEditor().path() != docs.b {
		t.Errorf("active = %s, want b.go", m.ws.activeEditor().path())
	}
}

func TestOpenPromptEscCancels(t *testing.T) {
	m, _ := testModel(t)
	m = send(t, m, keyPress("o"))
	m = send(t, m, keyPress("q")) // typed into the prompt, not quit
	if !m.open.on || m.open.input.Value() != "q" {
		t.Fatalf("prompt on = %v, value = %q", m.open.on, m.open.input.Value())
	}
	m = send(t, m, keyPress("esc"))
	if m.open.on || len(m.ws.textEditors()) != 2 {
		t.Error("esc should cancel without opening")
	}
}

func TestDocLoadedRecounts(t *testing.T) {
	m, docs := testModel(t)
	e := m.ws.activeEditor()

	m = send(t, m, docLoadedMsg{editorID: e.id, path: docs.a, text: "TODO TODO TODO TODO", kind: eventTextSettled})
	if m.sync.countsSnapshot()["TODO"] != 4 {
		t.Errorf("counts = %v", m.sync.countsSnapshot())
	}
	if !strings.Contains(m.View(), "4 found") {
		t.Error("title should show the new total")
	}
}

func TestDocLoadedSaveSettles(t *testing.T) {
	m, docs := testModel(t)
	e := m.ws.activeEditor()

	m2, cmd := m.Update(docLoadedMsg{editorID: e.id, path: docs.a, text: "NOTE", kind: eventSaved})
	m = m2.(model)
	if m.sync.countsSnapshot()["TODO"] != 2 {
		t.Fatal("save should not recount before the settle delay")
	}
	fired, ok := findMsg[taskFiredMsg](collect(t, cmd))
	if !ok {
		t.Fatal("save should schedule a settle task")
	}
	m = send(t, m, fired)
	if got := m.sync.countsSnapshot(); got["NOTE"] != 1 || got["TODO"] != 0 {
		t.Errorf("after settle: %v", got)
	}
}

func TestDocLoadedMoveUpdatesPath(t *testing.T) {
	m, docs := testModel(t)
	e := m.ws.activeEditor()
	moved := filepath.Join(docs.dir, "moved.go")

	m = send(t, m, docLoadedMsg{editorID: e.id, path: moved, text: "FIXME", kind: eventPathChanged})
	if e.path() != moved || e.untitled() {
		t.Errorf("editor path = %s, untitled = %v", e.path(), e.untitled())
	}
	if m.sync.countsSnapshot()["FIXME"] != 1 {
		t.Errorf("counts = %v", m.sync.countsSnapshot())
	}
}

func TestDocMissingMarksUntitled(t *testing.T) {
	m, _ := testModel(t)
	e := m.ws.activeEditor()
	m = send(t, m, docMissingMsg{editorID: e.id})
	if !e.untitled() {
		t.Error("missing document should become untitled")
	}
	before := m.sync.countsSnapshot()
	m = send(t, m, docLoadedMsg{editorID: 999, text: "TODO"})
	if got := m.sync.countsSnapshot(); got["TODO"] != before["TODO"] {
		t.Error("unknown editor id should be ignored")
	}
}

func TestFsBatchWriteReloads(t *testing.T) {
	m, docs := testModel(t)
	writeFile(t, docs.a, "TODO\n")

	m2, cmd := m.Update(fsBatchMsg{events: []fsnotify.Event{{Name: docs.a, Op: fsnotify.Write}}})
	m = m2.(model)
	execCmd(t, &m, cmd)
	if got := m.sync.countsSnapshot(); got["TODO"] != 1 || got["FIXME"] != 0 {
		t.Errorf("counts = %v", got)
	}
}

func TestFsBatchInactiveWriteIgnored(t *testing.T) {
	m, docs := testModel(t)
	writeFile(t, docs.b, "TODO TODO TODO TODO TODO\n")

	m2, cmd := m.Update(fsBatchMsg{events: []fsnotify.Event{{Name: docs.b, Op: fsnotify.Write}}})
	m = m2.(model)
	execCmd(t, &m, cmd)
	if got := m.sync.countsSnapshot(); got["TODO"] != 2 {
		t.Errorf("inactive write changed counts: %v", got)
	}
	if m.ws.byPath(docs.b).text() != "TODO TODO TODO TODO TODO\n" {
		t.Error("inactive document text should still be refreshed")
	}
}

func TestFsBatchRemoveMarksUntitled(t *testing.T) {
	m, docs := testModel(t)
	if err := os.Remove(docs.a); err != nil {
		t.Fatal(err)
	}
	m = send(t, m, fsBatchMsg{events: []fsnotify.Event{{Name: docs.a, Op: fsnotify.Remove}}})
	if !m.ws.activeEditor().untitled() {
		t.Error("removed file should leave an untitled document")
	}

	// Edits to the now untitled document are ignored
	e := m.ws.activeEditor()
	e.doc.text = "NOTE"
	m.sync.dispatch(event{kind: eventTextSettled, editor: e})
	if got := m.sync.countsSnapshot(); got["TODO"] != 2 || got["NOTE"] != 0 {
		t.Errorf("untitled edit changed counts: %v", got)
	}
}

func TestConfigReloadReplacesWords(t *testing.T) {
	m, _ := testModel(t)

	m = send(t, m, configReloadedMsg{cfg: config{TrackedWords: []string{"NOTE", "one"}, SearchCommand: []string{}}})
	got := m.sync.countsSnapshot()
	if len(got) != 2 || got["one"] != 1 || got["NOTE"] != 0 {
		t.Errorf("counts = %v, want only NOTE and one", got)
	}
	if _, ok := got["TODO"]; ok {
		t.Error("old words should be gone")
	}
}

func TestConfigReloadThresholds(t *testing.T) {
	m, _ := testModel(t)
	m = send(t, m, configReloadedMsg{cfg: config{ThresholdHigh: intPtr(2), ThresholdMedium: intPtr(2), ThresholdLow: intPtr(1), SearchCommand: []string{}}})
	rows := m.sync.children()
	if rows[0].word != "TODO" || rows[0].tier != tierHigh {
		t.Errorf("first row = %+v", rows[0])
	}
}

func TestConfigReloadErrorWarns(t *testing.T) {
	m, _ := testModel(t)
	m = send(t, m, configReloadedMsg{cfg: newDefaultConfig(), err: os.ErrPermission})
	if !strings.Contains(m.status.text, "Warning") {
		t.Errorf("status = %q", m.status.text)
	}
}

func TestDoubleClickSearches(t *testing.T) {
	m, _ := testModel(t)
	var searched []string
	m.sync.search = func(word string) error {
		searched = append(searched, word)
		return nil
	}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m.sync.now = clock.now

	// Row 1 is FIXME
	m2, cmd := m.Update(click(listTop + 1))
	m = m2.(model)
	if m.view.selectedWord() != "FIXME" {
		t.Fatalf("clicked row selected %q", m.view.selectedWord())
	}
	if len(collect(t, cmd)) != 0 {
		t.Fatal("single click should not search")
	}

	clock.advance(200 * time.Millisecond)
	m2, cmd = m.Update(click(listTop + 1))
	m = m2.(model)
	done, ok := findMsg[searchDoneMsg](collect(t, cmd))
	if !ok || done.word != "FIXME" {
		t.Fatalf("double-click result = %+v", done)
	}
	if !slices.Equal(searched, []string{"FIXME"}) {
		t.Errorf("searched = %v", searched)
	}

	m = send(t, m, done)
	if m.status.text != "Copied: FIXME" {
		t.Errorf("status = %q", m.status.text)
	}
}

func TestClickOutsideRowsIgnored(t *testing.T) {
	m, _ := testModel(t)
	for _, y := range []int{0, listTop + 10} {
		m2, cmd := m.Update(click(y))
		m = m2.(model)
		if cmd != nil && len(collect(t, cmd)) != 0 {
			t.Errorf("click at %d produced messages", y)
		}
	}
	if m.view.selectedWord() != "TODO" {
		t.Errorf("selected = %q", m.view.selectedWord())
	}
}

func TestEnterSearchesSelected(t *testing.T) {
	m, _ := testModel(t)
	var searched string
	m.sync.search = func(word string) error {
		searched = word
		return nil
	}
	m2, cmd := m.Update(keyPress("enter"))
	m = m2.(model)
	if m.status.text != "Searching: TODO" {
		t.Errorf("status = %q", m.status.text)
	}
	if _, ok := findMsg[searchDoneMsg](collect(t, cmd)); !ok || searched != "TODO" {
		t.Errorf("searched = %q", searched)
	}
}

func TestSearchFailureLeavesCounts(t *testing.T) {
	m, _ := testModel(t)
	before := m.sync.countsSnapshot()
	m = send(t, m, searchFailedMsg{word: "TODO", err: os.ErrPermission})
	if !strings.HasPrefix(m.status.text, "Search failed") {
		t.Errorf("status = %q", m.status.text)
	}
	if got := m.sync.countsSnapshot(); got["TODO"] != before["TODO"] || len(got) != len(before) {
		t.Errorf("counts changed: %v -> %v", before, got)
	}
}

func TestDemoModeRoundTrip(t *testing.T) {
	m, docs := testModel(t)

	m = send(t, m, keyPress("d"))
	if !m.demo.active || m.workspace() == m.ws {
		t.Fatal("d should enter demo mode")
	}
	if got := m.sync.countsSnapshot(); got["TODO"] != 2 || got["FIXME"] != 1 || got["NOTE"] != 1 {
		t.Errorf("demo counts = %v", got)
	}
	if !strings.Contains(m.View(), "server.go") {
		t.Error("demo tabs should be visible")
	}

	// The real workspace is not touched while in demo mode
	m = send(t, m, keyPress("w"))
	if len(m.ws.textEditors()) != 2 {
		t.Error("closing in demo mode closed a real document")
	}
	m = send(t, m, keyPress("o"))
	if m.open.on {
		t.Error("open prompt should be disabled in demo mode")
	}

	m = send(t, m, keyPress("d"))
	if m.demo.active || m.workspace() != m.ws {
		t.Fatal("d should exit demo mode")
	}
	if m.ws.activeEditor().path() != docs.a || m.sync.countsSnapshot()["TODO"] != 2 {
		t.Errorf("real workspace not restored: %v", m.sync.countsSnapshot())
	}
}

func TestConfigReloadDuringDemoKeepsNewSearch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	m, docs := testModel(t)
	out := filepath.Join(docs.dir, "searched")

	m = send(t, m, keyPress("d"))
	m = send(t, m, configReloadedMsg{cfg: config{
		SearchCommand: []string{"sh", "-c", `printf %s "$1" > "$2"`, "sh", "{word}", out},
	}})
	if err := m.sync.search("NOTE"); err != nil {
		t.Fatalf("demo search: %v", err)
	}
	if _, err := os.Stat(out); err == nil {
		t.Fatal("demo mode should not run the real search command")
	}

	m = send(t, m, keyPress("d"))
	if err := m.sync.search("TODO"); err != nil {
		t.Fatalf("search after demo: %v", err)
	}
	if got := readFile(t, out); got != "TODO" {
		t.Errorf("search command saw %q, want TODO", got)
	}
}

func TestDemoTypistAdvances(t *testing.T) {
	m, _ := testModel(t)
	m.enterDemoMode()
	active := m.demo.ws.activeEditor()
	before := active.text()

	m = send(t, m, demoTypeMsg{id: m.demo.tickID})
	if active.text() == before {
		t.Error("typist should append to the first document")
	}
	if m.sync.countsSnapshot()["TODO"] != 3 {
		t.Errorf("counts = %v, want the typed TODO counted", m.sync.countsSnapshot())
	}

	// Stale ticks are dropped
	step := m.demo.step
	m = send(t, m, demoTypeMsg{id: m.demo.tickID - 1})
	if m.demo.step != step {
		t.Error("stale tick advanced the typist")
	}
}

func TestDemoUntitledDocumentNeverCounts(t *testing.T) {
	m, _ := testModel(t)
	m.enterDemoMode()
	m = send(t, m, keyPress("tab"))
	m = send(t, m, keyPress("tab"))
	if !m.demo.ws.activeEditor().untitled() {
		t.Fatal("third demo document should be untitled")
	}
	if len(m.sync.countsSnapshot()) != 0 {
		t.Errorf("untitled active should have no counts: %v", m.sync.countsSnapshot())
	}
}

func TestModalsToggle(t *testing.T) {
	m, _ := testModel(t)

	m = send(t, m, keyPress(","))
	if !m.settings.on {
		t.Fatal(", should open settings")
	}
	if v := m.View(); v == "" {
		t.Error("settings view is empty")
	}
	m = send(t, m, keyPress("j")) // scrolls, doesn't navigate
	if m.view.selectedWord() != "TODO" {
		t.Error("keys leaked through the settings modal")
	}
	m = send(t, m, keyPress("esc"))
	if m.settings.on {
		t.Error("esc should close settings")
	}

	m = send(t, m, keyPress("?"))
	if !m.help.ShowAll {
		t.Fatal("? should open help")
	}
	m = send(t, m, keyPress("?"))
	if m.help.ShowAll {
		t.Error("? should close help")
	}
}

func TestViewRendersPreview(t *testing.T) {
	m, _ := testModel(t)
	v := m.View()
	for _, want := range []string{"a.go", "b.go", "TODO", "2 lines match"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := newModel(nil, newDefaultConfig(), nil, nil)
	_ = m.View()
}

func TestStatusClearIgnoresStale(t *testing.T) {
	m, _ := testModel(t)
	m.setStatus("first", statusTimeout)
	stale := m.status.id
	m.setStatus("second", statusTimeout)

	m = send(t, m, statusClearMsg{id: stale})
	if m.status.text != "second" {
		t.Errorf("stale clear removed %q", m.status.text)
	}
	m = send(t, m, statusClearMsg{id: m.status.id})
	if m.status.text != "" {
		t.Errorf("status = %q, want cleared", m.status.text)
	}
}

func TestQuitTearsDown(t *testing.T) {
	m, _ := testModel(t)
	m2, cmd := m.Update(keyPress("q"))
	m = m2.(model)
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if len(m.sync.subs) != 0 {
		t.Errorf("subscriptions left after quit: %d", len(m.sync.subs))
	}
}

func TestTreeItem(t *testing.T) {
	m, _ := testModel(t)
	rows := m.sync.children()
	ti := m.sync.treeItem(rows[0])
	if ti.label != "TODO" || ti.identifier != "TODO" || ti.description != "2" || !ti.leaf {
		t.Errorf("treeItem = %+v", ti)
	}
	if ti.tooltip != "TODO: 2 occurrences (Minimal Usage)" {
		t.Errorf("tooltip = %q", ti.tooltip)
	}
	if ti.command != searchCommandName {
		t.Errorf("command = %q", ti.command)
	}
}

func BenchmarkUpdateJK(b *testing.B) {
	b.Setenv("XDG_CONFIG_HOME", b.TempDir())
	ws := newWorkspace()
	ws.setActive(ws.open(titledDoc("/bench/a.go", strings.Repeat("// TODO x\n// NOTE y\n", 500))))
	m := newModel(ws, newDefaultConfig(), nil, nil)
	m2, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	m = m2.(model)
	j, k := keyPress("j"), keyPress("k")
	b.ResetTimer()
	for range b.N {
		m2, _ = m.Update(j)
		m = m2.(model)
		m2, _ = m.Update(k)
		m = m2.(model)
	}
}
