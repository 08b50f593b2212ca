package main

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	muted       = lipgloss.Color("#6b7a90")

	labelStyle  = lipgloss.NewStyle().Foreground(muted)
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(destructive)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)
