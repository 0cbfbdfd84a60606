package boardtui

import "github.com/charmbracelet/lipgloss"

var (
	borderASCII = lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Bold(true).Padding(0, 1)
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")).Padding(0, 1)
	helpBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("236"))

	laneStyle        = lipgloss.NewStyle().Border(borderASCII).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	laneValidStyle   = laneStyle.BorderForeground(lipgloss.Color("2"))
	laneInvalidStyle = laneStyle.BorderForeground(lipgloss.Color("1"))
	laneTitleStyle   = lipgloss.NewStyle().Bold(true)

	cardTitleStyle    = lipgloss.NewStyle().Bold(true)
	cardSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	dropMarkerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	dialogStyle      = lipgloss.NewStyle().Border(borderASCII).BorderForeground(lipgloss.Color("33")).Padding(1, 2)
	labelStyle       = lipgloss.NewStyle().Bold(true)
	labelActiveStyle = labelStyle.Foreground(lipgloss.Color("33"))

	valueMuted         = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)
