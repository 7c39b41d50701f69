package arcade

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Banner renders the startup box printed by the examples and the CLI.
func Banner(title, addr, mode string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("99")).
		Padding(0, 2)
	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)

	lines := []string{
		heading.Render(title),
		"",
		label.Render("Backend") + "http://" + addr,
		label.Render("Socket") + "ws://" + addr + "/ws/game",
		label.Render("Mode") + mode,
	}
	if mode == "demo" {
		lines = append(lines, "", "Send messages in the frontend to see the demo!")
	}
	return border.Render(strings.Join(lines, "\n"))
}
