package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/arun279/notebook-sources/internal/domain"
	"github.com/arun279/notebook-sources/internal/search"
	"github.com/arun279/notebook-sources/internal/tui/styles"
)

// Switcher is the fuzzy collection-switcher modal.
type Switcher struct {
	input       textinput.Model
	collections []domain.Collection
	filteredIdx []int
	cursor      int
	visible     bool
	width       int
	prevQuery   string
}

// NewSwitcher creates a new switcher component
func NewSwitcher() Switcher {
	ti := textinput.New()
	ti.Placeholder = "Switch collection..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return Switcher{input: ti}
}

// Show makes the switcher visible over the given collections.
func (s *Switcher) Show(collections []domain.Collection) {
	s.visible = true
	s.collections = collections
	s.input.Focus()
	s.input.SetValue("")
	s.prevQuery = ""
	s.cursor = 0
	s.resetFilter()
}

// Hide closes the switcher.
func (s *Switcher) Hide() {
	s.visible = false
	s.input.Blur()
}

// Visible reports whether the switcher is shown.
func (s *Switcher) Visible() bool { return s.visible }

// SetWidth sets the render width.
func (s *Switcher) SetWidth(w int) {
	s.width = w
	if w > 10 {
		s.input.Width = w - 6
	}
}

// Selected returns the collection under the cursor, if any.
func (s *Switcher) Selected() (domain.Collection, bool) {
	if len(s.filteredIdx) == 0 || s.cursor >= len(s.filteredIdx) {
		return domain.Collection{}, false
	}
	return s.collections[s.filteredIdx[s.cursor]], true
}

// Update handles input while visible.
func (s *Switcher) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if query := s.input.Value(); query != s.prevQuery {
		s.prevQuery = query
		s.applyFilter(query)
	}
	return cmd
}

// MoveUp moves the cursor up.
func (s *Switcher) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
	}
}

// MoveDown moves the cursor down.
func (s *Switcher) MoveDown() {
	if s.cursor < len(s.filteredIdx)-1 {
		s.cursor++
	}
}

func (s *Switcher) resetFilter() {
	s.filteredIdx = make([]int, len(s.collections))
	for i := range s.collections {
		s.filteredIdx[i] = i
	}
}

func (s *Switcher) applyFilter(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.resetFilter()
		s.cursor = 0
		return
	}

	titles := make([]string, len(s.collections))
	for i, c := range s.collections {
		titles[i] = strings.ToLower(c.DisplayTitle())
	}

	matches := fuzzy.Find(strings.ToLower(query), titles)

	s.filteredIdx = make([]int, len(matches))
	for i, match := range matches {
		s.filteredIdx[i] = match.Index
	}

	// No title hits: rank against titles and source URLs instead, so a
	// pasted URL fragment still finds its collection.
	if len(s.filteredIdx) == 0 {
		byID := make(map[string]int, len(s.collections))
		for i, c := range s.collections {
			byID[c.ID] = i
		}
		for _, m := range search.RankCollections(query, s.collections) {
			s.filteredIdx = append(s.filteredIdx, byID[m.Collection.ID])
		}
	}
	s.cursor = 0
}

// View renders the switcher modal.
func (s *Switcher) View() string {
	if !s.visible {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.input.View())
	b.WriteString("\n\n")

	if len(s.filteredIdx) == 0 {
		b.WriteString(styles.DimStyle.Render("No matches"))
	}

	for i, idx := range s.filteredIdx {
		if i >= 8 {
			b.WriteString(styles.DimStyle.Render(fmt.Sprintf("… %d more", len(s.filteredIdx)-i)))
			break
		}
		c := s.collections[idx]
		line := fmt.Sprintf("%s  %s", c.DisplayTitle(),
			styles.DimStyle.Render(fmt.Sprintf("%d/%d", c.CompletedRecords, c.TotalRecords)))
		if i == s.cursor {
			line = styles.SelectedRowStyle.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	box := styles.ActiveBorder.Padding(0, 1).Width(s.width)
	return box.Render(b.String())
}
