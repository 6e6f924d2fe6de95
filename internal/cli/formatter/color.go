package formatter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/boardsync/internal/domain"
)

// Pastel palette matching the default user colours.
var (
	ColorGreen  = lipgloss.Color("#98D8C8")
	ColorYellow = lipgloss.Color("#F7DC6F")
	ColorRed    = lipgloss.Color("#FF6B6B")
	ColorBlue   = lipgloss.Color("#45B7D1")
	ColorPurple = lipgloss.Color("#BB8FCE")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#F8B4D9")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// Header renders a section title over a rule of the same width.
func Header(text string) string {
	upper := strings.ToUpper(text)
	rule := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(rule))
}

func Dim(text string) string { return StyleDim.Render(text) }

func Bold(text string) string { return StyleBold.Render(text) }

// Badge renders name in the given hex colour.
func Badge(name, hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Bold(true).Render(name)
}

// AssigneeColor blends the colours of every assignee, as shown on a task
// card with several owners.
func AssigneeColor(r domain.Roster, userIDs []string) string {
	return domain.MixColors(r.ColorsOf(userIDs))
}

// ProgressBar renders pct in a fixed-width bar.
func ProgressBar(pct, width int) string {
	pct = min(max(pct, 0), 100)
	filled := pct * width / 100
	style := StyleYellow
	switch {
	case pct >= 100:
		style = StyleGreen
	case pct == 0:
		style = StyleDim
	}
	return style.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %3d%%", pct)
}

var iconGlyphs = map[string]string{
	domain.IconEnergy: "⚡",
	domain.IconEffort: "💪",
	domain.IconCalm:   "🌿",
	domain.IconDaily:  "🔁",
}

// Icons renders icon tags as glyphs in a stable order.
func Icons(tags []string) string {
	var out []string
	for _, tag := range []string{domain.IconEnergy, domain.IconEffort, domain.IconCalm, domain.IconDaily} {
		if slices.Contains(tags, tag) {
			out = append(out, iconGlyphs[tag])
		}
	}
	return strings.Join(out, " ")
}
