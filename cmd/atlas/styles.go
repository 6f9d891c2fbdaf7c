package main

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#00FFFF")
	colorGreen  = lipgloss.Color("#04B575")
	colorYellow = lipgloss.Color("#FFCC00")
	colorRed    = lipgloss.Color("#FF4444")
	colorGray   = lipgloss.Color("#666666")
	colorWhite  = lipgloss.Color("#FAFAFA")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	connectedDotStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	connectingDotStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	idleDotStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	modelLabelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	candidateTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWhite)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	levelGreenStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	levelYellowStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	levelGrayStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	footerKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	dividerStyle = lipgloss.NewStyle().
			Foreground(colorGray)
)
