package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/sandnet-ctl/internal/environment"
)

// envItem implements list.Item for environment display.
type envItem struct {
	env    *environment.Environment
	active bool
}

func (i envItem) Title() string {
	if i.active {
		return i.env.Name + " (active)"
	}
	return i.env.Name
}

func (i envItem) Description() string {
	return fmt.Sprintf("%s | control :%d | events :%d | %s",
		i.env.Kind, i.env.ControlPort, i.env.EventPort, truncatePath(i.env.WorkDir, 30))
}

func (i envItem) FilterValue() string {
	return i.env.Name
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// PickerModel is the bubbletea model for the environment picker.
type PickerModel struct {
	list     list.Model
	selected string
	quitting bool
}

// NewPicker creates an environment picker. The active environment, if
// any, is marked in the listing.
func NewPicker(envs []*environment.Environment, active string) PickerModel {
	items := make([]list.Item, len(envs))
	for i, env := range envs {
		items[i] = envItem{env: env, active: env.Name == active}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "sandnet-ctl - Select Environment"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return PickerModel{list: l}
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(envItem); ok {
				m.selected = item.env.Name
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Select  [/] Filter  [q] Quit")
	return m.list.View() + "\n" + help
}

// Selected returns the chosen environment name, empty if the picker was
// dismissed.
func (m PickerModel) Selected() string {
	return m.selected
}

// RunPicker runs the interactive environment picker and returns the
// chosen environment name, empty if dismissed.
func RunPicker(envs []*environment.Environment, active string) (string, error) {
	m := NewPicker(envs, active)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	return finalModel.(PickerModel).Selected(), nil
}

// SimpleList is a non-interactive environment listing for scripts and
// dumb terminals.
func SimpleList(envs []*environment.Environment, active string) string {
	var sb strings.Builder

	sb.WriteString("sandnet-ctl - Environments\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(envs) == 0 {
		sb.WriteString("No environments defined.\n")
		sb.WriteString("Create one with: sandnet-ctl env create <name>\n")
		return sb.String()
	}

	for i, env := range envs {
		marker := " "
		if env.Name == active {
			marker = "▶"
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s (%s)\n", i+1, marker, env.Name, env.Kind))
		sb.WriteString(fmt.Sprintf("   Control: %d | Events: %d | Ledger: %s\n\n",
			env.ControlPort, env.EventPort, truncatePath(env.WorkDir, 40)))
	}

	return sb.String()
}
