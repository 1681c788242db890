package tui

import "github.com/charmbracelet/lipgloss"

var (
	sentenceStyle   = lipgloss.NewStyle().Bold(true)
	completeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	matchedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Underline(true)
	hintLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	translatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Italic(true)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	frameStyle      = lipgloss.NewStyle().Padding(1, 2)
)
