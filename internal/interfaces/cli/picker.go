package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gswitch.dev/cli/internal/interfaces/di"
)

var (
	pickerTitleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	pickerSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pickerHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginTop(1)
)

// runPicker shows an interactive profile list and returns the chosen
// name, or "" when the user cancels.
func runPicker(container *di.Container) (string, error) {
	names, err := container.Profiles.Names()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no profiles stored yet; create one with 'gsw profile save'")
	}

	model := pickerModel{names: names}
	program := tea.NewProgram(model)
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("profile picker failed: %w", err)
	}
	return final.(pickerModel).choice, nil
}

type pickerModel struct {
	names  []string
	cursor int
	choice string
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter":
		m.choice = m.names[m.cursor]
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Select a profile to apply") + "\n"
	for i, name := range m.names {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+name) + "\n"
		} else {
			s += "  " + name + "\n"
		}
	}
	s += pickerHelpStyle.Render("enter: apply  ·  q: cancel")
	return s
}
