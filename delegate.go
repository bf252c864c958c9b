package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Custom Delegate ─────────────────────────────────────────────────────────

var (
	highStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	mediumStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	lowStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	noneStyle    = lipgloss.NewStyle().Foreground(colorDim)
	countStyle   = lipgloss.NewStyle().Foreground(colorDim)
	invalidStyle = lipgloss.NewStyle().Foreground(colorRed)
	selectedBar  = lipgloss.NewStyle().Foreground(colorAccent).SetString("│ ")
	normalBar    = lipgloss.NewStyle().SetString("  ")
)

// tierIcon returns the badge for a tier. The glyphs differ per tier so the
// list stays readable without color.
func tierIcon(t tier) string {
	switch t {
	case tierHigh:
		return highStyle.Render("▲")
	case tierMedium:
		return mediumStyle.Render("◆")
	case tierLow:
		return lowStyle.Render("●")
	default:
		return noneStyle.Render("·")
	}
}

// treeItem is the sidebar's description of one row: what a host tree view
// would be handed for it.
type treeItem struct {
	label       string
	icon        string
	tooltip     string
	description string
	identifier  string
	leaf        bool
	command     string
}

const searchCommandName = "search for selected word"

func (s *synchronizer) treeItem(r displayRow) treeItem {
	return treeItem{
		label:       r.word,
		icon:        tierIcon(r.tier),
		tooltip:     r.tooltip,
		description: r.label,
		identifier:  r.word,
		leaf:        true,
		command:     searchCommandName,
	}
}

type rowDelegate struct {
	sync   *synchronizer
	copied map[string]bool // words with "Copied!" inline indicator
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, ok := item.(displayRow)
	if !ok {
		return
	}
	ti := d.sync.treeItem(r)

	bar := normalBar
	if index == m.Index() {
		bar = selectedBar
	}

	maxW := m.Width() - 3 // -2 for bar prefix, -1 for right padding
	if maxW < 10 {
		maxW = 10
	}

	var right string
	switch {
	case d.copied[r.word]:
		right = lipgloss.NewStyle().Foreground(colorAccent).Render("Copied!")
	case r.invalid:
		right = invalidStyle.Render("invalid pattern") + " " + countStyle.Render(ti.description)
	default:
		right = countStyle.Render(ti.description)
	}
	rightW := lipgloss.Width(right)

	iconW := lipgloss.Width(ti.icon)
	avail := maxW - iconW - rightW - 2 // spaces around the label
	label := truncateForWidth(ti.label, avail)
	if r.invalid {
		label = invalidStyle.Render(label)
	} else if index == m.Index() {
		label = lipgloss.NewStyle().Bold(true).Render(label)
	}
	pad := ""
	if gap := avail - lipgloss.Width(label); gap > 0 {
		pad = strings.Repeat(" ", gap)
	}

	fmt.Fprintf(w, "%s%s %s%s %s", bar, ti.icon, label, pad, right)
}
