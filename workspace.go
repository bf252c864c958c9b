package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ─── Workspace ───────────────────────────────────────────────────────────────
//
// The workspace stands in for a host editor: every opened file is an editor
// with one document, and exactly one editor (or none) is active. It is only
// ever touched from the Update loop.

// document is a text buffer. An untitled document has no file on disk yet:
// either it came from stdin (path == "") or its path doesn't exist.
type document struct {
	path     string
	text     string
	untitled bool
	info     docInfo
}

// docInfo is file metadata shown alongside the preview. Zero for documents
// that have never been on disk.
type docInfo struct {
	size     int64
	modified time.Time
	created  time.Time
}

func (d *document) name() string {
	if d == nil {
		return ""
	}
	if d.path == "" {
		return "untitled"
	}
	return filepath.Base(d.path)
}

type editor struct {
	id  int
	doc *document
}

func (e *editor) text() string {
	if e == nil || e.doc == nil {
		return ""
	}
	return e.doc.text
}

func (e *editor) untitled() bool {
	return e == nil || e.doc == nil || e.doc.untitled
}

func (e *editor) path() string {
	if e == nil || e.doc == nil {
		return ""
	}
	return e.doc.path
}

type workspace struct {
	editors []*editor
	active  *editor
	nextID  int
}

func newWorkspace() *workspace {
	return &workspace{}
}

// open appends an editor for doc. It does not change the active editor.
func (w *workspace) open(doc *document) *editor {
	w.nextID++
	e := &editor{id: w.nextID, doc: doc}
	w.editors = append(w.editors, e)
	return e
}

func (w *workspace) activeEditor() *editor { return w.active }

func (w *workspace) textEditors() []*editor {
	return slices.Clone(w.editors)
}

func (w *workspace) setActive(e *editor) {
	if e == nil || slices.Contains(w.editors, e) {
		w.active = e
	}
}

// cycle activates the editor delta positions away from the active one,
// wrapping around. Returns the new active editor.
func (w *workspace) cycle(delta int) *editor {
	if len(w.editors) == 0 {
		return nil
	}
	idx := slices.Index(w.editors, w.active)
	if idx < 0 {
		idx = 0
	} else {
		idx = ((idx+delta)%len(w.editors) + len(w.editors)) % len(w.editors)
	}
	w.active = w.editors[idx]
	return w.active
}

// close removes e. If e was active, its right neighbor (or left, at the end)
// becomes active. Returns the active editor after closing.
func (w *workspace) close(e *editor) *editor {
	idx := slices.Index(w.editors, e)
	if idx < 0 {
		return w.active
	}
	w.editors = slices.Delete(w.editors, idx, idx+1)
	if w.active == e {
		switch {
		case len(w.editors) == 0:
			w.active = nil
		case idx < len(w.editors):
			w.active = w.editors[idx]
		default:
			w.active = w.editors[len(w.editors)-1]
		}
	}
	return w.active
}

func (w *workspace) byID(id int) *editor {
	for _, e := range w.editors {
		if e.id == id {
			return e
		}
	}
	return nil
}

func (w *workspace) byPath(path string) *editor {
	if path == "" {
		return nil
	}
	for _, e := range w.editors {
		if e.path() == path {
			return e
		}
	}
	return nil
}

// dirs returns the distinct parent directories of every document with a
// path, in editor order.
func (w *workspace) dirs() []string {
	var out []string
	for _, e := range w.editors {
		if p := e.path(); p != "" {
			if d := filepath.Dir(p); !slices.Contains(out, d) {
				out = append(out, d)
			}
		}
	}
	return out
}

// ─── Loading ─────────────────────────────────────────────────────────────────

// readDocument loads path into a document. A missing file is not an error:
// it becomes an untitled document that turns titled once the file appears.
func readDocument(path string) (*document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &document{path: abs, untitled: true}, nil
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	info, _ := statDocument(abs)
	return &document{path: abs, text: string(data), info: info}, nil
}

func readStdinDocument(r io.Reader) (*document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read stdin: %w", err)
	}
	return &document{text: string(data), untitled: true}, nil
}

// expandArgs resolves file arguments. Arguments containing glob meta
// characters are expanded with doublestar (so ** crosses directories);
// plain paths pass through even if they don't exist yet.
func expandArgs(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, a := range args {
		if a == "-" || !strings.ContainsAny(a, "*?[{") {
			add(a)
			continue
		}
		matches, err := doublestar.FilepathGlob(a, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", a, err)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// loadWorkspace opens one editor per argument; the first becomes active.
func loadWorkspace(args []string, stdin io.Reader) (*workspace, error) {
	paths, err := expandArgs(args)
	if err != nil {
		return nil, err
	}
	ws := newWorkspace()
	for _, p := range paths {
		var doc *document
		if p == "-" {
			doc, err = readStdinDocument(stdin)
		} else {
			doc, err = readDocument(p)
		}
		if err != nil {
			return nil, err
		}
		e := ws.open(doc)
		if ws.active == nil {
			ws.active = e
		}
	}
	return ws, nil
}
