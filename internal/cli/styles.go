package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#38bdf8")
	success = lipgloss.Color("#10B981")
	danger  = lipgloss.Color("#EF4444")
	muted   = lipgloss.Color("#6B7280")

	codeStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(success)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(danger)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
)

func printCode(code string) {
	fmt.Println(mutedStyle.Render("room code") + codeStyle.Render(code))
}

func printSuccess(format string, args ...any) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

func printError(format string, args ...any) {
	fmt.Println(errorStyle.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(mutedStyle.Render(fmt.Sprintf(format, args...)))
}
