package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// ─── Colors ──────────────────────────────────────────────────────────────────

var (
	colorBlack   = lipgloss.Color("0")
	colorAccent  = lipgloss.Color("5")  // magenta: brand, focused borders, keys
	colorDim     = lipgloss.Color("8")  // gray: secondary text, unfocused borders
	colorFull    = lipgloss.Color("7")  // white: full help descriptions
	colorRed     = lipgloss.Color("9")  // high tier, invalid patterns
	colorGreen   = lipgloss.Color("10") // low tier
	colorYellow  = lipgloss.Color("11") // medium tier
	colorMagenta = lipgloss.Color("13") // status bar messages
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	focusedBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent)
	unfocusedBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	paneTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	helpTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	helpBoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 3)
	statusTextStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMagenta)
	dimStyle        = lipgloss.NewStyle().Foreground(colorDim)
	tabStyle        = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	activeTabStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	matchStyle      = lipgloss.NewStyle().Bold(true).Reverse(true)
	lineNumStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

func truncateForWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}
	limit := maxWidth - 1
	var b strings.Builder
	width := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if width+rw > limit {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String() + "…"
}

// ─── Preview ─────────────────────────────────────────────────────────────────

// renderPreview lists the active document's lines that contain word, with
// line numbers and the matches highlighted.
func renderPreview(e *editor, word string, width int) string {
	switch {
	case e == nil:
		return dimStyle.Render("No document open.\n\no  open a file")
	case e.untitled() && e.text() == "":
		return dimStyle.Render("Untitled document.\n\nWords are counted once it is saved.")
	case word == "":
		return dimStyle.Render("No tracked words.")
	}

	lines, err := matchLines(e.text(), word, previewLimit)
	if err != nil && len(lines) == 0 {
		return lipgloss.NewStyle().Foreground(colorRed).Render(err.Error())
	}
	if len(lines) == 0 {
		return dimStyle.Render(fmt.Sprintf("No lines match %q.", word))
	}

	numW := len(fmt.Sprint(lines[len(lines)-1].num))
	textW := width - numW - 2
	var b strings.Builder
	header := fmt.Sprintf("%d lines match %q", len(lines), word)
	if len(lines) == previewLimit {
		header = fmt.Sprintf("first %d lines matching %q", previewLimit, word)
	}
	if meta := docMeta(e.doc.info); meta != "" {
		header += " · " + meta
	}
	b.WriteString(dimStyle.Render(header))
	b.WriteString("\n\n")
	for i, lm := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(lineNumStyle.Render(fmt.Sprintf("%*d", numW, lm.num)))
		b.WriteString("  ")
		b.WriteString(highlightLine(lm, textW))
	}
	return b.String()
}

// shortDate shows MM-DD for the current year, full YYYY-MM-DD otherwise.
func shortDate(t time.Time) string {
	currentYear := strconv.Itoa(time.Now().Year())
	d := t.Format("2006-01-02")
	if strings.HasPrefix(d, currentYear+"-") {
		d = d[len(currentYear)+1:]
	}
	return d
}

// docMeta summarizes file metadata for the preview header.
func docMeta(info docInfo) string {
	if info.modified.IsZero() {
		return ""
	}
	var size string
	switch {
	case info.size >= 1<<20:
		size = fmt.Sprintf("%.1f MB", float64(info.size)/(1<<20))
	case info.size >= 1<<10:
		size = fmt.Sprintf("%.1f KB", float64(info.size)/(1<<10))
	default:
		size = fmt.Sprintf("%d B", info.size)
	}
	return fmt.Sprintf("%s · created %s · modified %s", size, shortDate(info.created), shortDate(info.modified))
}

// highlightLine renders a matched line cut to maxW cells, styling the matched
// spans. Tabs become single spaces so the cell count stays predictable.
func highlightLine(lm lineMatch, maxW int) string {
	runes := []rune(strings.ReplaceAll(lm.text, "\t", " "))
	cut := len(runes)
	width := 0
	for i, r := range runes {
		rw := lipgloss.Width(string(r))
		if width+rw > maxW-1 {
			cut = i
			break
		}
		width += rw
	}
	var b strings.Builder
	pos := 0
	for _, sp := range lm.spans {
		start, end := min(sp[0], cut), min(sp[1], cut)
		if start < pos || start >= end {
			continue
		}
		b.WriteString(string(runes[pos:start]))
		b.WriteString(matchStyle.Render(string(runes[start:end])))
		pos = end
	}
	b.WriteString(string(runes[pos:cut]))
	if cut < len(runes) {
		b.WriteString("…")
	}
	return b.String()
}

// tabStrip renders one tab per editor, the active one highlighted. Untitled
// documents carry a "*" like an unsaved buffer.
func (m model) tabStrip(width int) string {
	ws := m.workspace()
	editors := ws.textEditors()
	if len(editors) == 0 {
		return paneTitleStyle.Render("no documents")
	}
	var parts []string
	for _, e := range editors {
		name := e.doc.name()
		if e.untitled() {
			name += "*"
		}
		if e == ws.activeEditor() {
			parts = append(parts, activeTabStyle.Render(name))
		} else {
			parts = append(parts, tabStyle.Render(name))
		}
	}
	strip := strings.Join(parts, dimStyle.Render("│"))
	if lipgloss.Width(strip) <= width {
		return strip
	}
	// Too wide: just the active tab and its position.
	idx := 0
	for i, e := range editors {
		if e == ws.activeEditor() {
			idx = i
		}
	}
	active := ws.activeEditor()
	label := fmt.Sprintf("%s (%d/%d)", active.doc.name(), idx+1, len(editors))
	return activeTabStyle.Render(truncateForWidth(label, width-2))
}

// ─── Settings ────────────────────────────────────────────────────────────────

func (m *model) settingsDims() (modalW, modalH, contentW, contentH int) {
	modalW = m.width - 4
	if modalW > 96 {
		modalW = 96
	}
	if modalW < 32 {
		modalW = 32
	}

	modalH = m.height - 4
	if modalH > 36 {
		modalH = 36
	}
	if modalH < 10 {
		modalH = 10
	}

	// helpBoxStyle has 1-col borders + 3-col horizontal padding per side.
	contentW = modalW - 8
	if contentW < 20 {
		contentW = 20
	}

	// Two lines reserved for header and footer hint.
	contentH = modalH - 6
	if contentH < 3 {
		contentH = 3
	}
	return modalW, modalH, contentW, contentH
}

func renderMarkdownBody(markdown, style string, width int) string {
	pw := width
	if pw < 20 {
		pw = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(pw),
	)
	if err != nil {
		return markdown
	}
	rendered, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}

func (m *model) refreshSettingsView() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, _, contentW, contentH := m.settingsDims()
	m.settings.viewport.Width = contentW
	m.settings.viewport.Height = contentH
	path, _ := activeConfigPath()
	m.settings.viewport.SetContent(renderMarkdownBody(settingsMarkdown(m.cfg, path), m.glamourStyle, contentW))
	m.settings.viewport.GotoTop()
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// settingsMarkdown describes the effective configuration, defaults filled in.
func settingsMarkdown(cfg config, path string) string {
	var b strings.Builder
	if path != "" {
		fmt.Fprintf(&b, "Edit `%s`. Changes apply as soon as the file is saved.\n\n", contractHome(path))
	}

	b.WriteString("| setting | value |\n|---|---|\n")
	preset := cfg.Preset
	if preset == "" {
		preset = "standard"
	}
	words := make([]string, 0, len(cfg.trackedWords()))
	for _, w := range cfg.trackedWords() {
		words = append(words, "`"+mdCell(w)+"`")
	}
	th := cfg.thresholds()
	search := "copy to clipboard"
	if cmd := cfg.searchCommand(); len(cmd) > 0 {
		search = "`" + commandLabel(cmd) + "`"
	}
	fmt.Fprintf(&b, "| preset | %s |\n", preset)
	fmt.Fprintf(&b, "| %s | %s |\n", keyTrackedWords, strings.Join(words, ", "))
	fmt.Fprintf(&b, "| %s | %d |\n", keyThresholdLow, th.low)
	fmt.Fprintf(&b, "| %s | %d |\n", keyThresholdMedium, th.medium)
	fmt.Fprintf(&b, "| %s | %d |\n", keyThresholdHigh, th.high)
	fmt.Fprintf(&b, "| recount_on_selection | %t |\n", cfg.recountOnSelection())
	fmt.Fprintf(&b, "| search_command | %s |\n", search)
	fmt.Fprintf(&b, "| editor | `%s` |\n", commandLabel(cfg.editorCommand()))
	fmt.Fprintf(&b, "| %s | %t |\n", keyDebugLogs, cfg.DebugLogs)

	b.WriteString("\n## Tiers\n\n")
	fmt.Fprintf(&b, "- **High**: %d or more\n", th.high)
	fmt.Fprintf(&b, "- **Medium**: %d to %d\n", th.medium, th.high-1)
	fmt.Fprintf(&b, "- **Low**: %d to %d\n", th.low, th.medium-1)
	fmt.Fprintf(&b, "- **Minimal**: under %d\n", th.low)

	b.WriteString("\nTracked words are regular expressions: `FIX(ME)?` counts both spellings, ")
	b.WriteString("and a word that fails to compile is shown as an invalid pattern.\n")
	if lp, err := logPath(); err == nil {
		fmt.Fprintf(&b, "\nDebug log: `%s`\n", contractHome(lp))
	}
	return b.String()
}

// ─── View ────────────────────────────────────────────────────────────────────

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// 40/60 split: list pane gets 40% of terminal width, preview gets the rest.
	listW := m.width * 40 / 100
	previewW := m.width - listW

	innerH := m.height - 3 // -2 for borders, -1 for hint bar

	leftStyle := focusedBorder.Width(listW - 2).Height(innerH)
	rightStyle := unfocusedBorder.Width(previewW - 2).Height(innerH)

	active := m.workspace().activeEditor()
	var leftContent string
	hint := lipgloss.NewStyle().Foreground(colorDim).Width(listW - 4).Align(lipgloss.Center)
	switch {
	case active == nil:
		msg := "No document open\n\no  open a file"
		if !m.demo.active {
			msg += "\nd  try demo mode"
		}
		leftContent = lipgloss.Place(listW-2, innerH, lipgloss.Center, lipgloss.Center, hint.Render(msg))
	case active.untitled() && len(m.view.list.Items()) == 0:
		leftContent = lipgloss.Place(listW-2, innerH, lipgloss.Center, lipgloss.Center,
			hint.Render("Untitled document\n\nSave it to count words\n\ntab  next document"))
	default:
		leftContent = m.view.list.View()
	}

	rightContent := m.tabStrip(previewW-2) + "\n" +
		dimStyle.Render(strings.Repeat("─", max(previewW-2, 0))) + "\n" +
		m.viewport.View()

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(leftContent),
		rightStyle.Render(rightContent),
	)

	var statusBar string
	switch {
	case m.open.on:
		statusBar = " " + lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("open: ") +
			m.open.input.View() + "  " + dimStyle.Render("enter open | esc cancel")
	case m.status.text != "":
		statusBar = " " + m.status.spinner.View() + " " + statusTextStyle.Render(truncateForWidth(m.status.text, m.width-4))
	default:
		statusBar = " " + m.help.ShortHelpView(m.keys.ShortHelp())
	}
	base := panes + "\n" + statusBar

	if m.settings.on {
		modalW, _, contentW, _ := m.settingsDims()
		header := helpTitleStyle.Render("Settings")
		footer := lipgloss.NewStyle().Foreground(colorDim).
			Render(",/esc close  ·  j/k or space/B scroll")
		body := lipgloss.NewStyle().MaxWidth(contentW).Render(
			header + "\n" + m.settings.viewport.View() + "\n" + footer,
		)
		overlay := helpBoxStyle.MaxWidth(modalW).Render(body)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay,
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(colorBlack),
		)
	}

	if m.help.ShowAll {
		content := helpTitleStyle.Render("Keybindings") + "\n" + m.help.FullHelpView(m.keys.FullHelp())

		// Keep the help modal comfortably narrow on wide terminals while still
		// fitting on small screens.
		modalMaxW := m.width - 4
		if modalMaxW > 76 {
			modalMaxW = 76
		}
		if modalMaxW < 20 {
			modalMaxW = 20
		}

		// helpBoxStyle uses 1-cell borders and 3-cell horizontal padding.
		contentMaxW := modalMaxW - 8
		if contentMaxW < 12 {
			contentMaxW = 12
		}

		content = lipgloss.NewStyle().MaxWidth(contentMaxW).Render(content)
		overlay := helpBoxStyle.MaxWidth(modalMaxW).Render(content)
		base = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay,
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(colorBlack),
		)
	}

	return base
}
