// internal/prompt/styles.go
package prompt

import "github.com/charmbracelet/lipgloss"

var (
	questionMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true).Render("?")
	messageStyle  = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
	answerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func header(message string) string {
	return questionMark + " " + messageStyle.Render(message)
}
