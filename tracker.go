package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ─── Tracker ─────────────────────────────────────────────────────────────────
//
// Tracked words are compiled as ECMAScript regular expressions and are NOT
// escaped: "TODO?" matches "TOD" and "TODO", and "C++" fails to compile.
// That is a sharp edge users can exploit (e.g. "FIX(ME)?") or be bitten by.
// regexp2 also accepts .NET inline options in ECMAScript mode, so "(?i)todo"
// compiles and counts case-insensitively instead of being flagged invalid.

// patternTimeout bounds a single word's scan so a pathological pattern
// can't stall the Update loop.
const patternTimeout = 2 * time.Second

// countTable maps each tracked word to its occurrence count. A table always
// holds exactly one entry per tracked word of the scan that produced it.
type countTable map[string]int

// countWords scans text once per word and returns a fresh table. Words whose
// pattern fails to compile (or times out) keep a count of 0 and are reported
// in invalid; they never abort the remaining words.
func countWords(text string, words []string) (counts countTable, invalid map[string]error) {
	counts = make(countTable, len(words))
	for _, w := range words {
		counts[w] = 0
	}
	for _, w := range words {
		n, err := countPattern(text, w)
		if err != nil {
			if invalid == nil {
				invalid = make(map[string]error)
			}
			invalid[w] = err
			continue
		}
		counts[w] = n
	}
	return counts, invalid
}

// countPattern returns the number of non-overlapping, left-to-right matches
// of pattern in text. Zero-length matches are not occurrences, so empty
// text always counts 0.
func countPattern(text, pattern string) (int, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return 0, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = patternTimeout
	n := 0
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		if m.Length > 0 {
			n++
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return 0, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return n, nil
}

// lineMatch is one line of text with the rune spans a pattern matched in it.
type lineMatch struct {
	num   int // 1-based
	text  string
	spans [][2]int // [start, end) rune offsets
}

// matchLines finds the lines of text containing a non-empty match of
// pattern, stopping after limit lines. Matching is per line, so a pattern
// that spans a newline finds nothing here even though countPattern counts it.
func matchLines(text, pattern string, limit int) ([]lineMatch, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = patternTimeout
	var out []lineMatch
	for i, line := range strings.Split(text, "\n") {
		if len(out) >= limit {
			break
		}
		var spans [][2]int
		m, err := re.FindStringMatch(line)
		for m != nil && err == nil {
			if m.Length > 0 {
				spans = append(spans, [2]int{m.Index, m.Index + m.Length})
			}
			m, err = re.FindNextMatch(m)
		}
		if err != nil {
			return out, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		if len(spans) > 0 {
			out = append(out, lineMatch{num: i + 1, text: line, spans: spans})
		}
	}
	return out, nil
}

// ─── Severity ────────────────────────────────────────────────────────────────

type tier int

const (
	tierNone tier = iota
	tierLow
	tierMedium
	tierHigh
)

func (t tier) String() string {
	switch t {
	case tierHigh:
		return "high"
	case tierMedium:
		return "medium"
	case tierLow:
		return "low"
	default:
		return "none"
	}
}

// usage is the tier name shown in tooltips.
func (t tier) usage() string {
	switch t {
	case tierHigh:
		return "High"
	case tierMedium:
		return "Medium"
	case tierLow:
		return "Low"
	default:
		return "Minimal"
	}
}

type thresholds struct {
	low    int
	medium int
	high   int
}

// classify maps a count to its tier. Boundaries are inclusive upward.
func classify(count int, th thresholds) tier {
	switch {
	case count >= th.high:
		return tierHigh
	case count >= th.medium:
		return tierMedium
	case count >= th.low:
		return tierLow
	default:
		return tierNone
	}
}

// ─── Rows ────────────────────────────────────────────────────────────────────

// displayRow is one sidebar entry, derived fresh on every render.
type displayRow struct {
	word    string
	count   int
	tier    tier
	tooltip string
	label   string
	invalid bool
}

func (r displayRow) FilterValue() string { return r.word }

func tooltipFor(word string, count int, t tier) string {
	return fmt.Sprintf("%s: %d occurrences (%s Usage)", word, count, t.usage())
}

// buildRows derives sorted display rows from a table and the current
// thresholds.
func buildRows(counts countTable, invalid map[string]error, th thresholds) []displayRow {
	rows := make([]displayRow, 0, len(counts))
	for word, count := range counts {
		t := classify(count, th)
		_, bad := invalid[word]
		rows = append(rows, displayRow{
			word:    word,
			count:   count,
			tier:    t,
			tooltip: tooltipFor(word, count, t),
			label:   strconv.Itoa(count),
			invalid: bad,
		})
	}
	sortRows(rows)
	return rows
}

// sortRows orders by count descending, then word ascending using
// locale-aware collation.
func sortRows(rows []displayRow) {
	c := collate.New(language.Und)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		if cmp := c.CompareString(rows[i].word, rows[j].word); cmp != 0 {
			return cmp < 0
		}
		return rows[i].word < rows[j].word
	})
}
