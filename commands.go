package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long the watcher waits after the first event of a burst
// before draining the rest. Editors write in several syscalls; this is the
// "stopped changing" debounce for on-disk documents.
const settleDelay = 100 * time.Millisecond

// ─── Commands ────────────────────────────────────────────────────────────────

// loadDocument re-reads a document from disk and reports it as kind.
func loadDocument(editorID int, path string, kind eventKind) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return docMissingMsg{editorID: editorID}
			}
			return errMsg{fmt.Errorf("could not read %s: %w", filepath.Base(path), err)}
		}
		info, _ := statDocument(path)
		return docLoadedMsg{editorID: editorID, path: path, text: string(data), info: info, kind: kind}
	}
}

// openDocument reads path for a new editor.
func openDocument(path string) tea.Cmd {
	return func() tea.Msg {
		doc, err := readDocument(expandHome(path))
		if err != nil {
			return errMsg{err}
		}
		return docOpenedMsg{doc: doc}
	}
}

func reloadConfig() tea.Msg {
	cfg, err := loadConfig()
	return configReloadedMsg{cfg: cfg, err: err}
}

// runBackgroundEditor launches the editor in the background (for GUI editors).
// Returns editorLaunchedMsg immediately. A goroutine waits for the process
// to prevent zombies; the file watcher picks up any changes.
func runBackgroundEditor(args []string) tea.Cmd {
	return func() tea.Msg {
		c := shellCommand(args...)
		if err := c.Start(); err != nil {
			return errMsg{fmt.Errorf("editor start: %w", err)}
		}
		go func() { _ = c.Wait() }()
		return editorLaunchedMsg{}
	}
}

// newSearchRunner builds the search side effect from config. With no
// command configured the word goes to the clipboard instead.
func newSearchRunner(cfg config) searchFunc {
	tmpl := cfg.searchCommand()
	if len(tmpl) == 0 {
		return clipboard.WriteAll
	}
	return func(word string) error {
		args := expandCommand(tmpl, "{word}", word)
		c := exec.Command(args[0], args[1:]...)
		var stderr bytes.Buffer
		c.Stderr = &stderr
		if err := c.Run(); err != nil {
			if detail := strings.TrimSpace(stderr.String()); detail != "" {
				return fmt.Errorf("%s: %w: %s", commandLabel(args), err, detail)
			}
			return fmt.Errorf("%s: %w", commandLabel(args), err)
		}
		return nil
	}
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// contractHome replaces the user's home directory prefix with "~/" for display.
func contractHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rel
	}
	return path
}

// ─── Watching ────────────────────────────────────────────────────────────────

// watchFiles waits for filesystem activity in the watched directories and
// returns it as one batch. After the first event it sleeps settleDelay and
// drains whatever else arrived, coalescing an editor's burst of writes.
func watchFiles(watcher *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op == fsnotify.Chmod {
					continue
				}
				batch := []fsnotify.Event{ev}
				time.Sleep(settleDelay)
			drain:
				for {
					select {
					case extra, ok := <-watcher.Events:
						if !ok {
							break drain
						}
						if extra.Op != fsnotify.Chmod {
							batch = append(batch, extra)
						}
					default:
						break drain
					}
				}
				return fsBatchMsg{events: batch}
			case _, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

type changeKind int

const (
	changeWritten changeKind = iota // contents rewritten in place
	changeSaved                     // replaced by rename (atomic save)
	changeCreated                   // an untitled document's file appeared
	changeMoved                     // renamed to path
	changeRemoved                   // file is gone
)

type docChange struct {
	kind   changeKind
	editor *editor
	path   string
}

// classifyFsEvents turns a drained batch into per-editor changes. It also
// reports whether any of configPaths was touched.
//
// Editors save in two ways: rewriting the file in place (Write) or writing
// a temp file and renaming it over the original (Create on the original
// name). A Rename of a document's file paired with a Create of an untracked
// file in the same directory is a move; an unpaired Rename or Remove means
// the file is gone.
func classifyFsEvents(batch []fsnotify.Event, editors []*editor, configPaths []string) (changes []docChange, configChanged bool) {
	ops := make(map[string]fsnotify.Op)
	var order []string
	for _, ev := range batch {
		name := filepath.Clean(ev.Name)
		if _, ok := ops[name]; !ok {
			order = append(order, name)
		}
		ops[name] |= ev.Op
		if slices.Contains(configPaths, name) {
			configChanged = true
		}
	}

	tracked := make(map[string]bool)
	for _, e := range editors {
		if p := e.path(); p != "" {
			tracked[p] = true
		}
	}
	claimed := make(map[string]bool)

	for _, e := range editors {
		p := e.path()
		op, ok := ops[p]
		if p == "" || !ok {
			continue
		}
		switch {
		case e.untitled():
			if op.Has(fsnotify.Create) || op.Has(fsnotify.Write) {
				changes = append(changes, docChange{kind: changeCreated, editor: e, path: p})
			}
		case op.Has(fsnotify.Create):
			changes = append(changes, docChange{kind: changeSaved, editor: e, path: p})
		case op.Has(fsnotify.Rename), op.Has(fsnotify.Remove):
			dest := ""
			for _, name := range order {
				if !op.Has(fsnotify.Rename) {
					break
				}
				if tracked[name] || claimed[name] || filepath.Dir(name) != filepath.Dir(p) {
					continue
				}
				if o := ops[name]; o == fsnotify.Create || o == fsnotify.Create|fsnotify.Write {
					dest = name
					break
				}
			}
			if dest != "" {
				claimed[dest] = true
				changes = append(changes, docChange{kind: changeMoved, editor: e, path: dest})
			} else {
				changes = append(changes, docChange{kind: changeRemoved, editor: e, path: p})
			}
		case op.Has(fsnotify.Write):
			changes = append(changes, docChange{kind: changeWritten, editor: e, path: p})
		}
	}
	return changes, configChanged
}

// watchDirs lists the directories the watcher should cover: every
// document's directory plus the config directory.
func watchDirs(ws *workspace) []string {
	dirs := ws.dirs()
	if dir, err := configDir(); err == nil && !slices.Contains(dirs, dir) {
		dirs = append(dirs, dir)
	}
	return dirs
}

// syncWatches adds and removes watches so exactly want is covered, releasing
// directories whose last editor closed. Missing directories are skipped.
func syncWatches(watcher *fsnotify.Watcher, want []string) {
	if watcher == nil {
		return
	}
	have := watcher.WatchList()
	for _, d := range have {
		if !slices.Contains(want, d) {
			_ = watcher.Remove(d)
		}
	}
	for _, d := range want {
		if !slices.Contains(have, d) {
			_ = watcher.Add(d)
		}
	}
}
