package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

// ─── Key Map ─────────────────────────────────────────────────────────────────

type keyMap struct {
	Navigate   key.Binding
	NextEditor key.Binding
	PrevEditor key.Binding
	Search     key.Binding
	Copy       key.Binding
	Open       key.Binding
	Close      key.Binding
	Edit       key.Binding
	ScrollDown key.Binding
	ScrollUp   key.Binding
	Help       key.Binding
	Settings   key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
	Demo       key.Binding
}

func newKeyMap(cfg config) keyMap {
	search := "search"
	if len(cfg.searchCommand()) == 0 {
		search = "copy word"
	}
	return keyMap{
		Navigate:   key.NewBinding(key.WithKeys("j", "k"), key.WithHelp("j/k", "navigate")),
		NextEditor: key.NewBinding(key.WithKeys("tab", "]"), key.WithHelp("tab/]", "next document")),
		PrevEditor: key.NewBinding(key.WithKeys("shift+tab", "["), key.WithHelp("[", "previous document")),
		Search:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", search)),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy summary")),
		Open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open file")),
		Close:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "close document")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", commandLabel(cfg.editorCommand()))),
		ScrollDown: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "page down")),
		ScrollUp:   key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "page up")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Settings:   key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
		Demo:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "demo mode")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.NextEditor, k.Open, k.Edit, k.Copy, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Actions
		{k.Search, k.Copy, k.Open, k.Close, k.Edit, k.Settings},
		// Navigation / app
		{k.Navigate, k.NextEditor, k.PrevEditor, k.ScrollDown, k.ScrollUp, k.Demo, k.Help, k.Quit},
	}
}

// ─── Sidebar ─────────────────────────────────────────────────────────────────

// sidebar is the count list. It is shared by pointer between model copies so
// the synchronizer can reload it in place.
type sidebar struct {
	list list.Model
	src  interface{ children() []displayRow }
}

// reload re-pulls rows and keeps the cursor on the same word when it is
// still tracked.
func (v *sidebar) reload() {
	word := v.selectedWord()
	rows := v.src.children()
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = r
	}
	v.list.SetItems(items)
	v.selectWord(word)
}

func (v *sidebar) selectedRow() (displayRow, bool) {
	r, ok := v.list.SelectedItem().(displayRow)
	return r, ok
}

func (v *sidebar) selectedWord() string {
	if r, ok := v.selectedRow(); ok {
		return r.word
	}
	return ""
}

// selectWord moves the cursor to word, or clamps the current index when the
// word is gone.
func (v *sidebar) selectWord(word string) {
	for i, item := range v.list.Items() {
		if r, ok := item.(displayRow); ok && r.word == word {
			v.list.Select(i)
			return
		}
	}
	if n := len(v.list.Items()); n > 0 && v.list.Index() >= n {
		v.list.Select(n - 1)
	}
}

// ─── Model ───────────────────────────────────────────────────────────────────

const (
	statusTimeout = 3 * time.Second
	previewLimit  = 1000
	listTop       = 3 // border + title line + title padding
)

type statusBarState struct {
	text    string
	id      int
	spinner spinner.Model
}

type settingsState struct {
	on       bool
	viewport viewport.Model
}

type openPromptState struct {
	on    bool
	input textinput.Model
}

type copiedState struct {
	words map[string]bool // shared with the delegate
	id    int
}

type model struct {
	// Layout
	view         *sidebar
	viewport     viewport.Model
	keys         keyMap
	help         help.Model
	width        int
	height       int
	ready        bool   // true after first WindowSizeMsg
	glamourStyle string // "dark" or "light" based on terminal background
	previewKey   string // editor+word the preview was last scrolled for

	// Documents and counting
	ws         *workspace
	sync       *synchronizer
	cfg        config
	watcher    *fsnotify.Watcher
	log        *debugLog
	forceDebug bool   // --debug keeps logging on regardless of config
	prevWord   string // selection as of the last Update, for change detection

	// Modals and transient state
	open     openPromptState
	settings settingsState
	copied   copiedState
	demo     demoState
	status   statusBarState
}

func newModel(ws *workspace, cfg config, watcher *fsnotify.Watcher, dlog *debugLog) model {
	if ws == nil {
		ws = newWorkspace()
	}
	if dlog == nil {
		dlog = discardLog()
	}
	view := &sidebar{}
	sync := newSynchronizer(ws, cfg, view, newSearchRunner(cfg), dlog.logger)
	view.src = sync

	copied := make(map[string]bool)
	l := list.New(nil, rowDelegate{sync: sync, copied: copied}, 0, 0)
	l.Title = "wordc"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().Padding(0, 0, 0, 0)
	l.Styles.TitleBar = lipgloss.NewStyle().Padding(0, 1, 1, 2)
	l.KeyMap.Quit.SetKeys("q") // don't quit on esc
	view.list = l

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorDim)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorDim)
	h.Styles.FullKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Width(12)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(colorFull)
	h.Styles.FullSeparator = lipgloss.NewStyle()

	s := spinner.New()
	s.Spinner = spinner.Pulse
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "path or ~/path"
	ti.CharLimit = 4096
	ti.Width = 40

	style := "dark"
	if !lipgloss.HasDarkBackground() {
		style = "light"
	}

	m := model{
		view:         view,
		viewport:     viewport.New(0, 0),
		keys:         newKeyMap(cfg),
		help:         h,
		glamourStyle: style,
		ws:           ws,
		sync:         sync,
		cfg:          cfg,
		watcher:      watcher,
		log:          dlog,
		open:         openPromptState{input: ti},
		settings:     settingsState{viewport: viewport.New(0, 0)},
		copied:       copiedState{words: copied},
		status:       statusBarState{spinner: s},
	}
	sync.activate()
	m.prevWord = view.selectedWord()
	m.restoreTitle()
	m.refreshPreview()
	return m
}

func (m model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.watcher != nil {
		cmds = append(cmds, watchFiles(m.watcher))
	}
	if m.demo.active {
		cmds = append(cmds, demoTick(m.demo.tickID))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// workspace returns the documents currently on screen.
func (m model) workspace() *workspace {
	if m.demo.active {
		return m.demo.ws
	}
	return m.ws
}

// setStatus shows a transient message in the status bar with a spinner animation.
// If duration > 0, the message auto-clears after that time.
func (m *model) setStatus(text string, duration time.Duration) tea.Cmd {
	m.status.id++
	m.status.text = text
	id := m.status.id
	var cmds []tea.Cmd
	cmds = append(cmds, m.status.spinner.Tick)
	if duration > 0 {
		cmds = append(cmds, tea.Tick(duration, func(time.Time) tea.Msg {
			return statusClearMsg{id: id}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *model) clearStatus() {
	m.status.text = ""
}

func (m *model) restoreTitle() {
	brand := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	ghost := lipgloss.NewStyle().Foreground(colorDim)

	left := brand.Render("wordc")
	maxW := m.view.list.Width() - 3 // TitleBar padding: left (2) + right (1)
	if m.demo.active {
		baseW := lipgloss.Width(left)
		// Pick the longest demo hint that still fits
		for _, hint := range []string{"demo · press d to exit", "demo · d", "demo"} {
			if baseW+1+len(hint) <= maxW {
				left += " " + ghost.Render(hint)
				break
			}
		}
	}

	counts := m.sync.countsSnapshot()
	total := 0
	for _, n := range counts {
		total += n
	}
	right := ghost.Render(fmt.Sprintf("%d found", total))
	if avail := maxW - lipgloss.Width(left) - lipgloss.Width(right); avail > 0 && len(counts) > 0 {
		m.view.list.Title = left + strings.Repeat(" ", avail) + right
	} else {
		m.view.list.Title = left
	}
}

func (m model) previewW() int {
	return m.width - (m.width * 40 / 100) - 2
}

// refreshPreview re-renders the matching-lines pane. The scroll position is
// kept while the same word of the same document stays selected.
func (m *model) refreshPreview() {
	e := m.workspace().activeEditor()
	word := m.view.selectedWord()
	id := 0
	if e != nil {
		id = e.id
	}
	previewKey := fmt.Sprintf("%t/%d/%s", m.demo.active, id, word)

	off := m.viewport.YOffset
	m.viewport.SetContent(renderPreview(e, word, m.previewW()))
	if previewKey != m.previewKey {
		m.previewKey = previewKey
		m.viewport.GotoTop()
	} else {
		m.viewport.SetYOffset(off)
	}
}

// quit tears the synchronizer down before exiting so no deferred task can
// fire into a dead program.
func (m *model) quit() tea.Cmd {
	m.sync.teardown()
	return tea.Quit
}

// ─── Workspace Actions ───────────────────────────────────────────────────────

func (m *model) cycleEditor(delta int) tea.Cmd {
	ws := m.workspace()
	before := ws.activeEditor()
	after := ws.cycle(delta)
	if after == before {
		return nil
	}
	return m.sync.dispatch(event{kind: eventActiveChanged, editor: after})
}

func (m *model) closeActive() tea.Cmd {
	ws := m.workspace()
	e := ws.activeEditor()
	if e == nil {
		return nil
	}
	next := ws.close(e)
	cmds := []tea.Cmd{
		m.sync.dispatch(event{kind: eventEditorDestroyed, editor: e}),
		m.sync.dispatch(event{kind: eventActiveChanged, editor: next}),
	}
	if !m.demo.active {
		syncWatches(m.watcher, watchDirs(m.ws))
	}
	return tea.Batch(cmds...)
}

// addDocument opens doc in a new editor and focuses it. A path that is
// already open just switches to its editor.
func (m *model) addDocument(doc *document) tea.Cmd {
	ws := m.workspace()
	if existing := ws.byPath(doc.path); existing != nil {
		if existing == ws.activeEditor() {
			return nil
		}
		ws.setActive(existing)
		return m.sync.dispatch(event{kind: eventActiveChanged, editor: existing})
	}
	e := ws.open(doc)
	ws.setActive(e)
	cmds := []tea.Cmd{
		m.sync.dispatch(event{kind: eventEditorAdded, editor: e}),
		m.sync.dispatch(event{kind: eventDocumentOpened, doc: doc}),
	}
	if !m.demo.active {
		syncWatches(m.watcher, watchDirs(m.ws))
	}
	return tea.Batch(cmds...)
}

func (m *model) editActive() tea.Cmd {
	if m.demo.active {
		return m.setStatus("Editing is disabled in demo mode", statusTimeout)
	}
	e := m.ws.activeEditor()
	if e == nil || e.path() == "" {
		return m.setStatus("No file to edit", statusTimeout)
	}
	cmd := m.cfg.editorCommand()
	args := expandCommand(cmd, "{file}", e.path())
	if !isTerminalEditor(cmd) {
		return runBackgroundEditor(args)
	}
	id, path := e.id, e.path()
	return tea.ExecProcess(shellCommand(args...), func(err error) tea.Msg {
		if err != nil {
			return errMsg{fmt.Errorf("editor failed: %w", err)}
		}
		return loadDocument(id, path, eventTextSettled)()
	})
}

func (m *model) copySelected() tea.Cmd {
	r, ok := m.view.selectedRow()
	if !ok {
		return nil
	}
	if err := clipboard.WriteAll(r.tooltip); err != nil {
		return func() tea.Msg { return errMsg{fmt.Errorf("clipboard: %w", err)} }
	}
	clear(m.copied.words)
	m.copied.words[r.word] = true
	m.copied.id++
	id := m.copied.id
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return copiedClearMsg{id: id}
	})
}

func (m *model) searchSelected() tea.Cmd {
	word := m.view.selectedWord()
	cmd := m.sync.triggerSearch(word)
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.setStatus("Searching: "+word, 0))
}

// selectRowAt handles a click on the list pane. Every click is a selection
// event, even on the already-selected row, so two quick clicks register as a
// double-click.
func (m *model) selectRowAt(y int) tea.Cmd {
	row := y - listTop
	if row < 0 {
		return nil
	}
	p := m.view.list.Paginator
	idx := p.Page*p.PerPage + row
	items := m.view.list.Items()
	if row >= p.PerPage || idx >= len(items) {
		return nil
	}
	m.view.list.Select(idx)
	word := m.view.selectedWord()
	m.prevWord = word
	return m.sync.dispatch(event{kind: eventSelectionChanged, word: word})
}

// ─── File Events ─────────────────────────────────────────────────────────────

func (m *model) handleFsBatch(msg fsBatchMsg) tea.Cmd {
	var cmds []tea.Cmd
	editors := m.ws.textEditors()
	if m.demo.active {
		editors = nil // documents are re-read when demo mode ends
	}
	changes, cfgChanged := classifyFsEvents(msg.events, editors, configFiles())
	for _, c := range changes {
		switch c.kind {
		case changeWritten:
			cmds = append(cmds, loadDocument(c.editor.id, c.path, eventTextSettled))
		case changeSaved:
			cmds = append(cmds, loadDocument(c.editor.id, c.path, eventSaved))
		case changeCreated, changeMoved:
			cmds = append(cmds, loadDocument(c.editor.id, c.path, eventPathChanged))
		case changeRemoved:
			c.editor.doc.untitled = true
			m.log.logger.Debug("document removed", "editor", c.editor.id, "path", c.path)
		}
	}
	if cfgChanged {
		cmds = append(cmds, reloadConfig)
	}
	if m.watcher != nil {
		cmds = append(cmds, watchFiles(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m *model) handleDocLoaded(msg docLoadedMsg) tea.Cmd {
	e := m.ws.byID(msg.editorID)
	if e == nil {
		return nil
	}
	moved := e.doc.path != msg.path
	e.doc.text = msg.text
	e.doc.path = msg.path
	e.doc.info = msg.info
	e.doc.untitled = false
	if moved {
		syncWatches(m.watcher, watchDirs(m.ws))
	}
	if m.demo.active {
		return nil
	}
	return m.sync.dispatch(event{kind: msg.kind, editor: e})
}

func (m *model) applyConfig(cfg config) tea.Cmd {
	keys := changedKeys(m.cfg, cfg)
	m.cfg = cfg
	m.keys = newKeyMap(cfg)
	m.sync.setConfig(cfg)
	if m.demo.active {
		m.demo.saved = newSearchRunner(cfg) // restored by exitDemoMode
	} else {
		m.sync.search = newSearchRunner(cfg)
	}
	m.log.setEnabled(cfg.DebugLogs || m.forceDebug)
	m.log.logger.Debug("config reloaded", "changed", keys)

	var cmds []tea.Cmd
	for _, k := range keys {
		switch k {
		case keyTrackedWords:
			cmds = append(cmds, m.sync.dispatch(event{kind: eventTrackedWordsChanged, key: k}))
		case keyThresholdLow, keyThresholdMedium, keyThresholdHigh:
			cmds = append(cmds, m.sync.dispatch(event{kind: eventThresholdChanged, key: k}))
		}
	}
	if m.settings.on {
		m.refreshSettingsView()
	}
	return tea.Batch(cmds...)
}

// ─── Key Handling ────────────────────────────────────────────────────────────

func (m model) handleOpenInput(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.open.on = false
		m.open.input.Blur()
		return m, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(m.open.input.Value())
		m.open.on = false
		m.open.input.Blur()
		if path == "" {
			return m, nil
		}
		return m, openDocument(path)
	}
	var cmd tea.Cmd
	m.open.input, cmd = m.open.input.Update(msg)
	return m, cmd
}

// handleKeyMsg processes keyboard input, returning handled=true for keys that
// should short-circuit Update and handled=false for keys that fall through to
// list.Update for default navigation.
func (m model) handleKeyMsg(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, m.quit(), true
	}

	if m.open.on {
		mod, cmd := m.handleOpenInput(msg)
		return mod, cmd, true
	}

	// Settings modal
	if m.settings.on {
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Settings), msg.Type == tea.KeyEsc:
			m.settings.on = false
		case key.Matches(msg, m.keys.ScrollDown):
			m.settings.viewport.HalfViewDown()
		case key.Matches(msg, m.keys.ScrollUp):
			m.settings.viewport.HalfViewUp()
		case msg.String() == "j", msg.String() == "down":
			m.settings.viewport.LineDown(1)
		case msg.String() == "k", msg.String() == "up":
			m.settings.viewport.LineUp(1)
		}
		return m, nil, true
	}

	// Help modal: swallow everything except ?, esc, q
	if m.help.ShowAll {
		switch {
		case key.Matches(msg, m.keys.Help) || msg.Type == tea.KeyEsc:
			m.help.ShowAll = false
		case key.Matches(msg, m.keys.Quit):
			return m, m.quit(), true
		}
		return m, nil, true
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
		return m, nil, true
	case key.Matches(msg, m.keys.Settings):
		m.settings.on = true
		m.refreshSettingsView()
		return m, nil, true
	case key.Matches(msg, m.keys.Demo):
		var cmd tea.Cmd
		if m.demo.active {
			cmd = m.exitDemoMode()
		} else {
			cmd = m.enterDemoMode()
		}
		return m, cmd, true
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil, true
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil, true
	case key.Matches(msg, m.keys.NextEditor):
		return m, m.cycleEditor(1), true
	case key.Matches(msg, m.keys.PrevEditor):
		return m, m.cycleEditor(-1), true
	case key.Matches(msg, m.keys.Search):
		return m, m.searchSelected(), true
	case key.Matches(msg, m.keys.Copy):
		return m, m.copySelected(), true
	case key.Matches(msg, m.keys.Open):
		if m.demo.active {
			return m, m.setStatus("Opening files is disabled in demo mode", statusTimeout), true
		}
		m.open.on = true
		m.open.input.SetValue("")
		m.open.input.Focus()
		return m, textinput.Blink, true
	case key.Matches(msg, m.keys.Close):
		return m, m.closeActive(), true
	case key.Matches(msg, m.keys.Edit):
		return m, m.editActive(), true
	}

	// Not handled, fall through to list.Update for default navigation
	return m, nil, false
}

// ─── Update ──────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		mod, cmd, handled := m.handleKeyMsg(msg)
		m = mod // Always apply model changes
		if handled {
			m.prevWord = m.view.selectedWord()
			m.restoreTitle()
			m.refreshPreview()
			return m, cmd
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || m.help.ShowAll || m.settings.on {
			return m, nil
		}
		listW := m.width * 40 / 100
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if msg.X < listW {
				m.view.list.CursorUp()
			} else {
				m.viewport.LineUp(3)
			}
		case tea.MouseButtonWheelDown:
			if msg.X < listW {
				m.view.list.CursorDown()
			} else {
				m.viewport.LineDown(3)
			}
		case tea.MouseButtonLeft:
			if msg.X < listW {
				cmds = append(cmds, m.selectRowAt(msg.Y))
			}
		default:
			return m, nil
		}
		if w := m.view.selectedWord(); w != m.prevWord {
			m.prevWord = w
			cmds = append(cmds, m.sync.dispatch(event{kind: eventSelectionChanged, word: w}))
		}
		m.restoreTitle()
		m.refreshPreview()
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		listW := m.width * 40 / 100
		innerListW := listW - 2
		innerPreviewW := m.previewW()
		innerH := m.height - 3 // -2 for borders, -1 for hint bar

		if innerListW < 10 {
			innerListW = 10
		}
		if innerPreviewW < 10 {
			innerPreviewW = 10
		}
		if innerH < 5 {
			innerH = 5
		}

		m.view.list.SetSize(innerListW, innerH-1)
		m.viewport.Width = innerPreviewW
		m.viewport.Height = innerH - 2 // tab strip + separator
		m.restoreTitle()
		m.refreshPreview()
		if m.settings.on {
			m.refreshSettingsView()
		}
		return m, nil

	case fsBatchMsg:
		return m, m.handleFsBatch(msg)

	case docLoadedMsg:
		cmds = append(cmds, m.handleDocLoaded(msg))

	case docMissingMsg:
		if e := m.ws.byID(msg.editorID); e != nil {
			e.doc.untitled = true
		}

	case docOpenedMsg:
		cmds = append(cmds, m.addDocument(msg.doc))
		cmds = append(cmds, m.setStatus("Opened "+msg.doc.name(), statusTimeout))

	case configReloadedMsg:
		cmds = append(cmds, m.applyConfig(msg.cfg))
		if msg.err != nil {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("Warning: %v (using defaults)", msg.err), statusTimeout))
		}

	case taskFiredMsg:
		cmds = append(cmds, m.sync.fire(msg))

	case searchDoneMsg:
		text := "Searched: " + msg.word
		if len(m.cfg.searchCommand()) == 0 && !m.demo.active {
			text = "Copied: " + msg.word
		}
		cmds = append(cmds, m.setStatus(text, statusTimeout))

	case searchFailedMsg:
		cmds = append(cmds, m.setStatus(fmt.Sprintf("Search failed: %v", msg.err), statusTimeout))

	case editorLaunchedMsg:
		cmds = append(cmds, m.setStatus("Editor launched", statusTimeout))

	case demoTypeMsg:
		if !m.demo.active || msg.id != m.demo.tickID {
			return m, nil
		}
		cmds = append(cmds, m.advanceDemo())

	case copiedClearMsg:
		if msg.id == m.copied.id {
			clear(m.copied.words)
		}
		return m, nil

	case spinner.TickMsg:
		if m.status.text != "" {
			var cmd tea.Cmd
			m.status.spinner, cmd = m.status.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case statusClearMsg:
		if msg.id == m.status.id {
			m.clearStatus()
		}
		return m, nil

	case errMsg:
		var pe panicError
		if errors.As(msg.err, &pe) {
			m.log.logger.Error("recovered panic", "err", msg.err)
		}
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err), statusTimeout)
	}

	_, isKey := msg.(tea.KeyMsg)
	if isKey {
		var cmd tea.Cmd
		m.view.list, cmd = m.view.list.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Keyboard navigation is a selection change. Rows moving under the
	// cursor after a reload are not.
	if w := m.view.selectedWord(); w != m.prevWord {
		m.prevWord = w
		if isKey {
			cmds = append(cmds, m.sync.dispatch(event{kind: eventSelectionChanged, word: w}))
		}
	}

	m.restoreTitle()
	m.refreshPreview()
	return m, tea.Batch(cmds...)
}
