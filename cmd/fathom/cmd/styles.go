package cmd

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// styles holds the lipgloss styles used for terminal output. When stdout is
// not a TTY, every style renders as plain text.
type styles struct {
	Path    lipgloss.Style
	Score   lipgloss.Style
	Source  lipgloss.Style
	Snippet lipgloss.Style
	Header  lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles() styles {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		plain := lipgloss.NewStyle()
		return styles{
			Path: plain, Score: plain, Source: plain,
			Snippet: plain, Header: plain, Muted: plain,
		}
	}
	return styles{
		Path:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Source:  lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		Snippet: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Header:  lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	}
}
