package clipboard

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var manualCopyStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

var manualCopyHint = lipgloss.NewStyle().
	Faint(true)

// SelectText prints text as a framed block the user can select and copy
// by hand. Write errors are ignored.
func SelectText(w io.Writer, text string) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, manualCopyHint.Render("Copy the text below manually:"))
	fmt.Fprintln(w, manualCopyStyle.Render(text))
}
