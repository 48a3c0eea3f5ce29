package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Amber      = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Blue       = lipgloss.Color("#3B82F6")
	Purple     = lipgloss.Color("#8B5CF6")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Amber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateDark)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Amber).
			Padding(0, 1)
)

// Record status characters (unstyled)
const (
	PendingChar   = "·"
	ScrapingChar  = "◐"
	ScrapedChar   = "✓"
	FailedChar    = "✗"
	PaywalledChar = "⊘"
	SelectedChar  = "▣"
	UnselectedChar = "□"
)

// Record status indicator styles
var (
	PendingStyle   = lipgloss.NewStyle().Foreground(DimGray)
	ScrapingStyle  = lipgloss.NewStyle().Foreground(Amber)
	ScrapedStyle   = lipgloss.NewStyle().Foreground(Green)
	FailedStyle    = lipgloss.NewStyle().Foreground(Red)
	PaywalledStyle = lipgloss.NewStyle().Foreground(Purple)
)

// SpinnerFrames for inline refresh indicators
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
