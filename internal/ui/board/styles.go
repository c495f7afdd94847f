package board

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/BuzzLyutic/kanban-board/internal/model"
)

var (
	colorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	colorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	colorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite).
	Background(colorBlue).
	Padding(0, 1)

var columnStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBorder).
	Padding(0, 1)

var activeColumnStyle = columnStyle.BorderForeground(colorBlue)

var taskStyle = lipgloss.NewStyle().PaddingLeft(2)

// selectedStyle - выбранная задача: отступ меньше на ширину рамки слева.
var selectedStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(colorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(colorBlue)

var (
	errorStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	mutedStyle = lipgloss.NewStyle().Foreground(colorGray)
)

func statusStyle(s model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch s {
	case model.StatusTodo:
		return base.Foreground(colorBlue)
	case model.StatusInProgress:
		return base.Foreground(colorYellow)
	case model.StatusReview:
		return base.Foreground(colorMagenta)
	case model.StatusDone:
		return base.Foreground(colorGreen)
	}
	return base.Foreground(colorGray)
}

func priorityMark(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(colorRed).Render("!!")
	case model.PriorityLow:
		return mutedStyle.Render("..")
	}
	return lipgloss.NewStyle().Foreground(colorYellow).Render("! ")
}
