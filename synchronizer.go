package main

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Synchronizer ────────────────────────────────────────────────────────────
//
// The synchronizer owns the count table and decides which workspace, config
// and view events cause a rescan. Every event goes through dispatchTable;
// each route names the guards it needs and the handler to run when they
// pass. All methods run on the Update loop, so there is no locking: a
// recount swaps in a whole new table.

const (
	saveSettleDelay   = 100 * time.Millisecond
	doubleClickWindow = 400 * time.Millisecond
)

type eventKind int

const (
	eventTextSettled eventKind = iota
	eventPathChanged
	eventSaved
	eventSaveSettled
	eventSelectionChanged
	eventTrackedWordsChanged
	eventThresholdChanged
	eventEditorAdded
	eventDocumentOpened
	eventEditorDestroyed
	eventActiveChanged
)

func (k eventKind) String() string {
	switch k {
	case eventTextSettled:
		return "text-settled"
	case eventPathChanged:
		return "path-changed"
	case eventSaved:
		return "saved"
	case eventSaveSettled:
		return "save-settled"
	case eventSelectionChanged:
		return "selection-changed"
	case eventTrackedWordsChanged:
		return "tracked-words-changed"
	case eventThresholdChanged:
		return "threshold-changed"
	case eventEditorAdded:
		return "editor-added"
	case eventDocumentOpened:
		return "document-opened"
	case eventEditorDestroyed:
		return "editor-destroyed"
	case eventActiveChanged:
		return "active-changed"
	default:
		return "unknown"
	}
}

// event is one external notification. Which fields are set depends on kind.
type event struct {
	kind   eventKind
	editor *editor   // editor-scoped events
	doc    *document // eventDocumentOpened
	word   string    // eventSelectionChanged
	key    string    // config events
}

type guard uint8

const (
	guardUntitled guard = 1 << iota // skip documents with no file yet
	guardActive                     // skip editors that aren't focused
)

type route struct {
	guards guard
	// scoped routes only accept events from editors with a live subscription.
	scoped bool
	handle func(s *synchronizer, ev event) tea.Cmd
}

var dispatchTable = map[eventKind]route{
	eventTextSettled:         {guards: guardUntitled | guardActive, scoped: true, handle: (*synchronizer).recountEditor},
	eventPathChanged:         {guards: guardUntitled | guardActive, scoped: true, handle: (*synchronizer).recountEditor},
	eventSaved:               {guards: guardUntitled, scoped: true, handle: (*synchronizer).scheduleSaveSettle},
	eventSaveSettled:         {guards: guardActive, scoped: true, handle: (*synchronizer).recountEditor},
	eventSelectionChanged:    {handle: (*synchronizer).selectionChanged},
	eventTrackedWordsChanged: {handle: (*synchronizer).recountActive},
	eventThresholdChanged:    {handle: (*synchronizer).recountActive},
	eventEditorAdded:         {handle: (*synchronizer).editorAdded},
	eventDocumentOpened:      {handle: (*synchronizer).documentOpened},
	eventEditorDestroyed:     {handle: (*synchronizer).editorDestroyed},
	eventActiveChanged:       {handle: (*synchronizer).activeChanged},
}

// editorSource is the workspace as the synchronizer sees it.
type editorSource interface {
	activeEditor() *editor
	textEditors() []*editor
}

// viewSink re-pulls rows from the synchronizer when reloaded.
type viewSink interface {
	reload()
}

// searchFunc performs the "reveal find UI and type word" side effect.
type searchFunc func(word string) error

// subscription records that an editor's notifications are being handled.
type subscription struct {
	editorID int
	since    time.Time
}

type selectionState struct {
	word string
	at   time.Time
}

type synchronizer struct {
	ws      editorSource
	cfg     config
	view    viewSink
	log     *slog.Logger
	search  searchFunc
	now     func() time.Time
	tasks   *deferredTasks
	subs    map[int]subscription
	counts  countTable
	invalid map[string]error
	sel     selectionState
}

func newSynchronizer(ws editorSource, cfg config, view viewSink, search searchFunc, log *slog.Logger) *synchronizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &synchronizer{
		ws:     ws,
		cfg:    cfg,
		view:   view,
		log:    log,
		search: search,
		now:    time.Now,
		tasks:  newDeferredTasks(),
		subs:   make(map[int]subscription),
		counts: countTable{},
	}
}

// ─── Operations ──────────────────────────────────────────────────────────────

// recount rescans e's full text. A nil editor clears the table.
func (s *synchronizer) recount(e *editor) {
	if e == nil {
		s.log.Debug("recount: no editor, clearing counts")
		s.counts, s.invalid = countTable{}, nil
		return
	}
	words := s.cfg.trackedWords()
	counts, invalid := countWords(e.text(), words)
	for w, err := range invalid {
		s.log.Warn("tracked word skipped", "word", w, "err", err)
	}
	s.counts, s.invalid = counts, invalid
	s.log.Debug("recount", "editor", e.id, "path", e.path(), "counts", counts)
}

func (s *synchronizer) refreshView() {
	if s.view != nil {
		s.view.reload()
	}
}

// children returns the sorted rows for the current table and thresholds.
func (s *synchronizer) children() []displayRow {
	return buildRows(s.counts, s.invalid, s.cfg.thresholds())
}

// countsSnapshot returns a copy of the current table.
func (s *synchronizer) countsSnapshot() countTable {
	out := make(countTable, len(s.counts))
	for w, n := range s.counts {
		out[w] = n
	}
	return out
}

func (s *synchronizer) setConfig(cfg config) {
	s.cfg = cfg
}

// dispatch routes ev through its guards and handler. The returned command
// carries any deferred or asynchronous follow-up.
func (s *synchronizer) dispatch(ev event) tea.Cmd {
	r, ok := dispatchTable[ev.kind]
	if !ok {
		s.log.Warn("unroutable event", "kind", ev.kind.String())
		return nil
	}
	attrs := []any{"kind", ev.kind.String()}
	if ev.editor != nil {
		attrs = append(attrs, "editor", ev.editor.id, "path", ev.editor.path(), "untitled", ev.editor.untitled())
	}
	if ev.key != "" {
		attrs = append(attrs, "key", ev.key)
	}
	s.log.Debug("event", attrs...)

	if r.scoped {
		if ev.editor == nil {
			return nil
		}
		if _, live := s.subs[ev.editor.id]; !live {
			s.log.Debug("skip: no subscription", "kind", ev.kind.String(), "editor", ev.editor.id)
			return nil
		}
	}
	if r.guards&guardUntitled != 0 && ev.editor.untitled() {
		s.log.Debug("skip: untitled document", "kind", ev.kind.String())
		return nil
	}
	if r.guards&guardActive != 0 && ev.editor != s.ws.activeEditor() {
		s.log.Debug("skip: inactive editor", "kind", ev.kind.String())
		return nil
	}
	return r.handle(s, ev)
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (s *synchronizer) recountEditor(ev event) tea.Cmd {
	s.recount(ev.editor)
	s.refreshView()
	return nil
}

// recountActive handles config changes: rescan whatever is focused now.
func (s *synchronizer) recountActive(event) tea.Cmd {
	e := s.ws.activeEditor()
	if e == nil {
		s.log.Debug("skip: no active editor")
		return nil
	}
	s.recount(e)
	s.refreshView()
	return nil
}

// scheduleSaveSettle waits for save-triggered reformatting to land. The
// active-editor check happens when the task fires, not now.
func (s *synchronizer) scheduleSaveSettle(ev event) tea.Cmd {
	return s.tasks.schedule(ev.editor, saveSettleDelay, taskSaveSettle)
}

// fire resolves a deferred task into its follow-up event.
func (s *synchronizer) fire(msg taskFiredMsg) tea.Cmd {
	t, ok := s.tasks.take(msg.id)
	if !ok {
		s.log.Debug("deferred task dropped", "task", msg.id)
		return nil
	}
	var target *editor
	for _, e := range s.ws.textEditors() {
		if e.id == t.editorID {
			target = e
			break
		}
	}
	if target == nil {
		return nil
	}
	switch t.kind {
	case taskSaveSettle:
		return s.dispatch(event{kind: eventSaveSettled, editor: target})
	}
	return nil
}

// selectionChanged watches for a double-click (two selections of the same
// row in quick succession) and optionally rescans the active document.
func (s *synchronizer) selectionChanged(ev event) tea.Cmd {
	var cmd tea.Cmd
	now := s.now()
	if ev.word != "" && ev.word == s.sel.word && now.Sub(s.sel.at) <= doubleClickWindow {
		s.log.Debug("double-click", "word", ev.word)
		cmd = s.triggerSearch(ev.word)
		s.sel = selectionState{}
	} else {
		s.sel = selectionState{word: ev.word, at: now}
	}

	if !s.cfg.recountOnSelection() {
		return cmd
	}
	active := s.ws.activeEditor()
	switch {
	case active == nil:
		s.log.Debug("skip: no active editor")
	case active.untitled():
		s.log.Debug("skip: untitled document", "kind", ev.kind.String())
	default:
		s.recount(active)
		s.refreshView()
	}
	return cmd
}

func (s *synchronizer) editorAdded(ev event) tea.Cmd {
	s.monitor(ev.editor)
	if ev.editor == nil || ev.editor != s.ws.activeEditor() {
		s.log.Debug("skip: inactive new editor")
		return nil
	}
	s.recount(ev.editor)
	s.refreshView()
	return nil
}

func (s *synchronizer) documentOpened(ev event) tea.Cmd {
	active := s.ws.activeEditor()
	if active == nil || ev.doc == nil || active.doc != ev.doc {
		return nil
	}
	s.recount(active)
	s.refreshView()
	return nil
}

func (s *synchronizer) editorDestroyed(ev event) tea.Cmd {
	s.release(ev.editor)
	s.sel = selectionState{}
	return nil
}

// activeChanged follows focus. Untitled documents have no meaningful counts,
// so switching to one clears the table instead of leaving stale rows.
func (s *synchronizer) activeChanged(event) tea.Cmd {
	// A double-click never spans documents.
	s.sel = selectionState{}
	active := s.ws.activeEditor()
	if active.untitled() {
		s.recount(nil)
	} else {
		s.recount(active)
	}
	s.refreshView()
	return nil
}

// ─── Lifecycle ───────────────────────────────────────────────────────────────

func (s *synchronizer) monitor(e *editor) {
	if e == nil {
		return
	}
	if _, ok := s.subs[e.id]; ok {
		return
	}
	s.subs[e.id] = subscription{editorID: e.id, since: s.now()}
	s.log.Debug("monitoring editor", "editor", e.id, "path", e.path(), "untitled", e.untitled())
}

func (s *synchronizer) release(e *editor) {
	if e == nil {
		return
	}
	delete(s.subs, e.id)
	n := s.tasks.cancelFor(e.id)
	s.log.Debug("editor destroyed", "editor", e.id, "path", e.path(), "cancelled_tasks", n)
}

func (s *synchronizer) monitored(e *editor) bool {
	if e == nil {
		return false
	}
	_, ok := s.subs[e.id]
	return ok
}

// activate monitors every open editor and counts the active one.
func (s *synchronizer) activate() {
	s.tasks.reopen()
	for _, e := range s.ws.textEditors() {
		s.monitor(e)
	}
	if active := s.ws.activeEditor(); active != nil {
		s.recount(active)
	}
	s.refreshView()
	s.log.Debug("activated", "editors", len(s.subs))
}

// teardown releases every subscription and cancels pending tasks.
func (s *synchronizer) teardown() {
	clear(s.subs)
	s.tasks.cancelAll()
	s.log.Debug("torn down")
}

// attach swaps the workspace (demo mode) and reactivates.
func (s *synchronizer) attach(ws editorSource) {
	s.teardown()
	s.ws = ws
	s.counts, s.invalid = countTable{}, nil
	s.sel = selectionState{}
	s.activate()
}

// ─── Search ──────────────────────────────────────────────────────────────────

type searchDoneMsg struct {
	word string
}

type searchFailedMsg struct {
	word string
	err  error
}

// triggerSearch runs the search side effect off the Update loop. Failures
// come back as searchFailedMsg and never touch the count table.
func (s *synchronizer) triggerSearch(word string) tea.Cmd {
	if word == "" || s.search == nil {
		return nil
	}
	run := s.search
	log := s.log
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = searchFailedMsg{word: word, err: panicError{r}}
			}
		}()
		if err := run(word); err != nil {
			log.Warn("search failed", "word", word, "err", err)
			return searchFailedMsg{word: word, err: err}
		}
		return searchDoneMsg{word: word}
	}
}
