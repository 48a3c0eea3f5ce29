package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arun279/notebook-sources/internal/domain"
	"github.com/arun279/notebook-sources/internal/tui/styles"
)

const sidebarWidth = 34

func (m Model) View() string {
	if !m.Ready {
		return "Loading…"
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.Height - lipgloss.Height(header) - lipgloss.Height(footer) - 2

	sidebar := m.renderSidebar(bodyHeight)
	records := m.renderRecords(bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, records)

	view := lipgloss.JoinVertical(lipgloss.Left, header, body, footer)

	switch m.State {
	case StateSwitcher:
		return m.overlay(view, m.switcher.View())
	case StatePrompt:
		return m.overlay(view, m.renderPrompt())
	case StateConfirmDelete:
		return m.overlay(view, m.renderConfirm())
	}
	return view
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render(" nbsrc ")
	sub := styles.DimStyle.Render("notebook source collections")
	return lipgloss.NewStyle().Padding(0, 1).Render(title + " " + sub)
}

func (m Model) renderSidebar(height int) string {
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render("Collections"))
	b.WriteString("\n")

	if len(m.collections) == 0 {
		b.WriteString(styles.DimStyle.Render("none yet — press n"))
	}

	spinner := styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]
	for i, c := range m.collections {
		indicator := " "
		if c.Refreshing {
			indicator = styles.AccentStyle.Render(spinner)
		}

		counts := fmt.Sprintf("%d/%d", c.CompletedRecords, c.TotalRecords)
		line := fmt.Sprintf("%s %s %s", indicator,
			truncate(c.DisplayTitle(), sidebarWidth-len(counts)-8),
			styles.DimStyle.Render(counts))

		switch {
		case i == m.colCursor && !m.focusRecords:
			line = styles.SelectedRowStyle.Render("▸" + line)
		case c.ID == m.activeCol:
			line = styles.AccentStyle.Render(" " + line)
		default:
			line = " " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	border := styles.InactiveBorder
	if !m.focusRecords {
		border = styles.ActiveBorder
	}
	return border.Width(sidebarWidth).Height(height).Padding(0, 1).Render(b.String())
}

func (m Model) renderRecords(height int) string {
	width := m.Width - sidebarWidth - 6
	var b strings.Builder

	switch {
	case m.State == StateFilter:
		b.WriteString(m.filterInput.View())
	case m.filterQuery != "":
		b.WriteString(styles.AccentStyle.Render("/" + m.filterQuery))
		b.WriteString(styles.DimStyle.Render("  (esc clears)"))
	default:
		b.WriteString(styles.SubtitleStyle.Render(m.recordsTitle()))
	}
	b.WriteString("\n")

	visible := m.visibleRecords()
	if m.activeCol == "" {
		b.WriteString(styles.DimStyle.Render("open a collection to view records"))
	} else if len(visible) == 0 {
		b.WriteString(styles.DimStyle.Render("no records"))
	}

	maxRows := height - 3
	start := 0
	if m.recCursor >= maxRows {
		start = m.recCursor - maxRows + 1
	}

	for i := start; i < len(visible) && i-start < maxRows; i++ {
		r := visible[i]

		box := styles.UnselectedChar
		if m.Selection.IsSelected(r.ID) {
			box = styles.AccentStyle.Render(styles.SelectedChar)
		}

		line := fmt.Sprintf("%s %s %s %s", box, statusGlyph(r.Status),
			truncate(r.DisplayTitle(), width-24),
			styles.DimStyle.Render(r.Host()))

		if i == m.recCursor && m.focusRecords {
			line = styles.SelectedRowStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	border := styles.InactiveBorder
	if m.focusRecords {
		border = styles.ActiveBorder
	}
	return border.Width(width).Height(height).Padding(0, 1).Render(b.String())
}

func (m Model) recordsTitle() string {
	if m.activeCol == "" {
		return "Records"
	}
	title := "Records — " + m.collectionTitle(m.activeCol)
	if n := m.Selection.Len(); n > 0 {
		title += styles.AccentStyle.Render(fmt.Sprintf("  %d selected", n))
	}
	return title
}

func (m Model) renderFooter() string {
	var parts []string

	// Outstanding jobs with their freshest polled progress.
	for _, job := range m.Registry.Jobs() {
		label := "parse"
		if job.Kind == domain.JobScrape {
			label = "scrape"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s",
			styles.AccentStyle.Render(label),
			m.progressBar.ViewAs(job.Progress/100),
			styles.DimStyle.Render(fmt.Sprintf("%.0f%%", job.Progress))))
	}

	if m.StatusMsg != "" {
		style := styles.SuccessStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		parts = append(parts, style.Render(m.StatusMsg))
	}

	if len(parts) == 0 {
		parts = append(parts, styles.DimStyle.Render(
			"space select · s scrape · n new · r refresh · d download · / filter · ? help"))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "   "))
}

func (m Model) renderPrompt() string {
	title := "New collection"
	if m.prompt == promptRename {
		title = "Rename collection"
	}
	content := styles.TitleStyle.Render(title) + "\n\n" + m.promptInput.View()
	return styles.ActiveBorder.Padding(1, 2).Width(min(m.Width-8, 72)).Render(content)
}

func (m Model) renderConfirm() string {
	content := styles.TitleStyle.Render("Delete collection?") + "\n\n" +
		m.collectionTitle(m.confirmTgt) + "\n\n" +
		styles.DimStyle.Render("y confirm · n cancel")
	return styles.ActiveBorder.Padding(1, 2).Render(content)
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"j/k", "move"},
		{"h/l", "switch pane"},
		{"enter", "open collection"},
		{"space", "select record"},
		{"a", "select all / none"},
		{"s", "scrape selected"},
		{"n", "new collection from URL"},
		{"r", "refresh collection"},
		{"R", "rename collection"},
		{"x", "delete collection"},
		{"d", "download artifacts"},
		{"/", "filter records"},
		{"ctrl+p", "collection switcher"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			styles.AccentStyle.Render(fmt.Sprintf("%-7s", row[0])), row[1]))
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("esc to close"))

	box := styles.ActiveBorder.Padding(1, 2).Render(b.String())
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
}

// overlay centers a modal over the base view.
func (m Model) overlay(base, modal string) string {
	_ = base
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, modal)
}

func statusGlyph(s domain.RecordStatus) string {
	switch s {
	case domain.StatusScraping:
		return styles.ScrapingStyle.Render(styles.ScrapingChar)
	case domain.StatusScraped:
		return styles.ScrapedStyle.Render(styles.ScrapedChar)
	case domain.StatusFailed:
		return styles.FailedStyle.Render(styles.FailedChar)
	case domain.StatusPaywalled:
		return styles.PaywalledStyle.Render(styles.PaywalledChar)
	default:
		return styles.PendingStyle.Render(styles.PendingChar)
	}
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
