package logger

import (
	charmlog "github.com/charmbracelet/log"
	"github.com/charmbracelet/lipgloss"
)

func getDefaultStyles() *charmlog.Styles {
	styles := charmlog.DefaultStyles()
	styles.Levels[charmlog.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBU").
		Foreground(lipgloss.Color("63"))
	styles.Levels[charmlog.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("86"))
	styles.Levels[charmlog.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Foreground(lipgloss.Color("192"))
	styles.Levels[charmlog.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERRO").
		Foreground(lipgloss.Color("204")).
		Bold(true)
	styles.Key = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	return styles
}
