package style

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	Bold    = lipgloss.NewStyle().Bold(true)
	Dim     = lipgloss.NewStyle().Faint(true)
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
)

// PrintWarning prints a yellow warning line to stderr.
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(os.Stderr, Warning.Render("warning: "+fmt.Sprintf(format, args...)))
}

// PrintError prints a bold-red error line to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, Error.Render("error: "+fmt.Sprintf(format, args...)))
}
