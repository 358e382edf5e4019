package main

import "github.com/charmbracelet/lipgloss"

// Semantic colors
var (
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
	Muted       = lipgloss.Color("#8a94a6")
)

var (
	successStyle  = lipgloss.NewStyle().Foreground(Success)
	warnStyle     = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(Destructive).Bold(true)
	redirectStyle = lipgloss.NewStyle().Foreground(Info)
	mutedStyle    = lipgloss.NewStyle().Foreground(Muted)
	kindStyle     = lipgloss.NewStyle().Bold(true)
	actorStyle    = lipgloss.NewStyle().Foreground(Info)
)
