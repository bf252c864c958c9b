package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ─── Config ──────────────────────────────────────────────────────────────────

// config mirrors the on-disk file. Pointer fields distinguish "absent" from
// an explicit zero; absent keys resolve through the active preset.
type config struct {
	Preset             string   `json:"preset,omitempty" toml:"preset,omitempty"`                             // "standard" (default) or "legacy"
	TrackedWords       []string `json:"tracked_words,omitempty" toml:"tracked_words,omitempty"`               // words (regex patterns) to count
	ThresholdLow       *int     `json:"threshold_low,omitempty" toml:"threshold_low,omitempty"`               // count >= low → low tier
	ThresholdMedium    *int     `json:"threshold_medium,omitempty" toml:"threshold_medium,omitempty"`         // count >= medium → medium tier
	ThresholdHigh      *int     `json:"threshold_high,omitempty" toml:"threshold_high,omitempty"`             // count >= high → high tier
	DebugLogs          bool     `json:"debug_logs,omitempty" toml:"debug_logs,omitempty"`                     // structured event log to debug.log
	RecountOnSelection *bool    `json:"recount_on_selection,omitempty" toml:"recount_on_selection,omitempty"` // selecting a row rescans the active document
	SearchCommand      []string `json:"search_command,omitempty" toml:"search_command,omitempty"`             // enter / double-click; {word} placeholder
	Editor             []string `json:"editor,omitempty" toml:"editor,omitempty"`                             // e: open active document
}

type presetDefaults struct {
	words      []string
	thresholds thresholds
}

// defaultsFor returns the default table for a preset. Must be a function
// (not a var) so callers can't mutate the shared word slice.
func defaultsFor(preset string) presetDefaults {
	if preset == "legacy" {
		return presetDefaults{
			words:      []string{"TODO", "FIX", "NOTE"},
			thresholds: thresholds{low: 5, medium: 10, high: 15},
		}
	}
	return presetDefaults{
		words:      []string{"TODO", "FIXME", "NOTE"},
		thresholds: thresholds{low: 3, medium: 7, high: 10},
	}
}

func newDefaultConfig() config {
	return config{}
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// trackedWords returns the configured words with empties and duplicates
// dropped (first occurrence wins), or the preset default when none remain.
func (c config) trackedWords() []string {
	seen := make(map[string]bool, len(c.TrackedWords))
	var words []string
	for _, w := range c.TrackedWords {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if len(words) == 0 {
		return defaultsFor(c.Preset).words
	}
	return words
}

func (c config) thresholds() thresholds {
	def := defaultsFor(c.Preset).thresholds
	return thresholds{
		low:    intOr(c.ThresholdLow, def.low),
		medium: intOr(c.ThresholdMedium, def.medium),
		high:   intOr(c.ThresholdHigh, def.high),
	}
}

func (c config) recountOnSelection() bool {
	if c.RecountOnSelection == nil {
		return true
	}
	return *c.RecountOnSelection
}

// searchCommand returns the search side-effect command. A nil setting means
// the platform default; an explicit empty list disables it (clipboard only).
func (c config) searchCommand() []string {
	if c.SearchCommand != nil {
		return c.SearchCommand
	}
	return defaultSearchCommand()
}

func defaultSearchCommand() []string {
	if runtime.GOOS != "darwin" {
		return nil
	}
	return []string{
		"osascript",
		"-e", "on run argv",
		"-e", `tell application "System Events" to keystroke "f" using command down`,
		"-e", "delay 0.1",
		"-e", `tell application "System Events" to keystroke (item 1 of argv)`,
		"-e", "end run",
		"{word}",
	}
}

func (c config) editorCommand() []string {
	if len(c.Editor) > 0 {
		return c.Editor
	}
	if ed := os.Getenv("EDITOR"); ed != "" {
		return splitShellWords(ed)
	}
	return []string{"vi"}
}

// ─── Diffing ─────────────────────────────────────────────────────────────────

const (
	keyTrackedWords    = "tracked_words"
	keyThresholdLow    = "threshold_low"
	keyThresholdMedium = "threshold_medium"
	keyThresholdHigh   = "threshold_high"
	keyDebugLogs       = "debug_logs"
)

// changedKeys lists the effective settings that differ between two configs,
// in a fixed order. A preset switch shows up as the keys it affects.
func changedKeys(old, cur config) []string {
	var keys []string
	if !slices.Equal(old.trackedWords(), cur.trackedWords()) {
		keys = append(keys, keyTrackedWords)
	}
	ot, ct := old.thresholds(), cur.thresholds()
	if ot.low != ct.low {
		keys = append(keys, keyThresholdLow)
	}
	if ot.medium != ct.medium {
		keys = append(keys, keyThresholdMedium)
	}
	if ot.high != ct.high {
		keys = append(keys, keyThresholdHigh)
	}
	if old.DebugLogs != cur.DebugLogs {
		keys = append(keys, keyDebugLogs)
	}
	return keys
}

// ─── Files ───────────────────────────────────────────────────────────────────

func configDir() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(cfgDir, "wordc"), nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func tomlConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig reads config.toml if present, else config.json. Missing files
// yield defaults with a nil error; a corrupt file yields defaults plus an
// error describing it so the caller can warn.
func loadConfig() (config, error) {
	if path, err := tomlConfigPath(); err == nil {
		data, err := os.ReadFile(path)
		if err == nil {
			cfg := newDefaultConfig()
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return newDefaultConfig(), fmt.Errorf("corrupt config %s: %w", path, err)
			}
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return newDefaultConfig(), fmt.Errorf("read config: %w", err)
		}
	}
	path, err := configPath()
	if err != nil {
		return newDefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newDefaultConfig(), nil
		}
		return newDefaultConfig(), fmt.Errorf("read config: %w", err)
	}
	cfg := newDefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return newDefaultConfig(), fmt.Errorf("corrupt config %s: %w", path, err)
	}
	return cfg, nil
}

func saveConfig(path string, cfg config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	// Atomic write: a crash mid-write can't leave a truncated config that
	// gets silently replaced with defaults.
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// explicitConfig spells out every default so --init-config writes a file
// users can edit without looking anything up.
func explicitConfig(cfg config) config {
	th := cfg.thresholds()
	rs := cfg.recountOnSelection()
	out := cfg
	out.TrackedWords = cfg.trackedWords()
	out.ThresholdLow = &th.low
	out.ThresholdMedium = &th.medium
	out.ThresholdHigh = &th.high
	out.RecountOnSelection = &rs
	if out.SearchCommand == nil {
		out.SearchCommand = cfg.searchCommand()
	}
	return out
}

// ─── Commands ────────────────────────────────────────────────────────────────

// splitShellWords splits a string into words, respecting single and double quotes.
// Unquoted whitespace separates words. Quotes are consumed (not included in output).
func splitShellWords(s string) []string {
	var words []string
	var cur strings.Builder
	inSingle := false
	inDouble := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == '\\' && inDouble && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case (c == ' ' || c == '\t') && !inSingle && !inDouble:
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// expandCommand replaces placeholder in the command template with value.
// If no argument contains the placeholder, value is appended as a trailing
// argument.
func expandCommand(args []string, placeholder, value string) []string {
	hasPlaceholder := false
	for _, a := range args {
		if strings.Contains(a, placeholder) {
			hasPlaceholder = true
			break
		}
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = strings.ReplaceAll(a, placeholder, value)
	}
	if !hasPlaceholder {
		out = append(out, value)
	}
	return out
}

// isTerminalEditor returns true if the command appears to be a terminal-based editor.
func isTerminalEditor(cmd []string) bool {
	if len(cmd) == 0 {
		return false
	}
	switch filepath.Base(cmd[0]) {
	case "vim", "vi", "nvim", "nano", "emacs", "hx", "micro":
		return true
	}
	return false
}

// commandLabel returns the base name of the first element in a command slice.
func commandLabel(cmd []string) string {
	if len(cmd) == 0 {
		return "unknown"
	}
	return filepath.Base(cmd[0])
}

// shellQuote returns a quoted shell string appropriate for the current platform.
func shellQuote(s string) string {
	if runtime.GOOS == "windows" {
		// cmd.exe double-quote escaping: double any internal quotes.
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}

// shellCommand builds an exec.Cmd that runs args through the user's shell.
// On Unix, uses $SHELL -ic for interactive mode (aliases, rc files).
// On Windows, uses cmd.exe /C.
func shellCommand(args ...string) *exec.Cmd {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	if runtime.GOOS == "windows" {
		return exec.Command("cmd", append([]string{"/C"}, quoted...)...)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "sh"
	}
	return exec.Command(shell, "-ic", strings.Join(quoted, " "))
}

// configFiles lists both config locations so the watcher can recognize them.
func configFiles() []string {
	var paths []string
	if p, err := configPath(); err == nil {
		paths = append(paths, p)
	}
	if p, err := tomlConfigPath(); err == nil {
		paths = append(paths, p)
	}
	return paths
}

// activeConfigPath returns the file loadConfig reads from: config.toml when
// it exists, config.json otherwise.
func activeConfigPath() (string, error) {
	if p, err := tomlConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return configPath()
}
