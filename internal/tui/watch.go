package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/sandnet-ctl/internal/control"
)

// maxFeed is the number of lifecycle events kept on screen.
const maxFeed = 12

// maxTail is the number of validator output lines kept on screen.
const maxTail = 10

var (
	runningBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	erroredBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	stoppedBadge = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type statusMsg *control.Status

type eventMsg control.Event

type lineMsg string

type feedClosedMsg struct{}

type tickMsg time.Time

// WatchModel is the bubbletea model for the live watch view.
type WatchModel struct {
	coord  *control.Coordinator
	events <-chan control.Event
	lines  <-chan string

	status   *control.Status
	feed     []string
	tail     []string
	quitting bool
}

// NewWatch creates a watch model over the coordinator's event stream.
// lines may be nil when no process output is available.
func NewWatch(coord *control.Coordinator, events <-chan control.Event, lines <-chan string) WatchModel {
	return WatchModel{coord: coord, events: events, lines: lines}
}

func (m WatchModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshStatus(), m.nextEvent(), m.tick()}
	if m.lines != nil {
		cmds = append(cmds, m.nextLine())
	}
	return tea.Batch(cmds...)
}

func (m WatchModel) refreshStatus() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return statusMsg(m.coord.Status(ctx))
	}
}

func (m WatchModel) nextEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return feedClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m WatchModel) nextLine() tea.Cmd {
	return func() tea.Msg {
		line, ok := <-m.lines
		if !ok {
			return feedClosedMsg{}
		}
		return lineMsg(line)
	}
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case statusMsg:
		m.status = msg
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshStatus(), m.tick())

	case eventMsg:
		m.feed = append(m.feed, formatEvent(control.Event(msg)))
		if len(m.feed) > maxFeed {
			m.feed = m.feed[len(m.feed)-maxFeed:]
		}
		return m, m.nextEvent()

	case lineMsg:
		m.tail = append(m.tail, string(msg))
		if len(m.tail) > maxTail {
			m.tail = m.tail[len(m.tail)-maxTail:]
		}
		return m, m.nextLine()

	case feedClosedMsg:
		return m, nil
	}

	return m, nil
}

func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("sandnet-ctl - Watch") + "\n")
	sb.WriteString(m.renderStatus() + "\n\n")

	sb.WriteString(sectionStyle.Render("Events") + "\n")
	if len(m.feed) == 0 {
		sb.WriteString(dimStyle.Render("  (none yet)") + "\n")
	}
	for _, line := range m.feed {
		sb.WriteString("  " + line + "\n")
	}

	if m.lines != nil {
		sb.WriteString("\n" + sectionStyle.Render("Validator output") + "\n")
		if len(m.tail) == 0 {
			sb.WriteString(dimStyle.Render("  (quiet)") + "\n")
		}
		for _, line := range m.tail {
			sb.WriteString("  " + dimStyle.Render(line) + "\n")
		}
	}

	sb.WriteString("\n" + helpStyle.Render("[q] Quit"))
	return sb.String()
}

func (m WatchModel) renderStatus() string {
	if m.status == nil {
		return dimStyle.Render("loading status...")
	}

	var badge string
	switch m.status.State {
	case control.StateRunning:
		badge = runningBadge.Render("● running")
	case control.StateErrored:
		badge = erroredBadge.Render("✗ errored")
	default:
		badge = stoppedBadge.Render("○ " + string(m.status.State))
	}

	parts := []string{badge}
	if m.status.Environment != nil {
		parts = append(parts, m.status.Environment.Label())
	}
	if m.status.SlotKnown {
		parts = append(parts, fmt.Sprintf("slot %d", m.status.Slot))
	}
	if m.status.Pid > 0 {
		parts = append(parts, fmt.Sprintf("pid %d", m.status.Pid))
	}
	if !m.status.StartedAt.IsZero() {
		parts = append(parts, "up "+time.Since(m.status.StartedAt).Truncate(time.Second).String())
	}
	if m.status.LastError != "" {
		parts = append(parts, erroredBadge.Render(m.status.LastError))
	}
	return strings.Join(parts, "  ")
}

func formatEvent(ev control.Event) string {
	stamp := ev.Time.Format("15:04:05")
	switch ev.Type {
	case control.EventStarting:
		return fmt.Sprintf("%s starting %s", stamp, ev.Environment)
	case control.EventStarted:
		return fmt.Sprintf("%s started %s", stamp, ev.Environment)
	case control.EventStopping:
		return fmt.Sprintf("%s stopping %s", stamp, ev.Environment)
	case control.EventStopped:
		return fmt.Sprintf("%s stopped %s", stamp, ev.Environment)
	case control.EventCrashed:
		return fmt.Sprintf("%s crashed %s (exit %d)", stamp, ev.Environment, ev.ExitCode)
	case control.EventErrored:
		return fmt.Sprintf("%s errored %s: %s", stamp, ev.Environment, ev.Message)
	case control.EventClockMoved:
		return fmt.Sprintf("%s clock -> slot %d", stamp, ev.Slot)
	case control.EventSnapshotted:
		return fmt.Sprintf("%s snapshot %.12s at slot %d", stamp, ev.SnapshotID, ev.Slot)
	case control.EventRestored:
		return fmt.Sprintf("%s restored %s from %.12s (slot %d)", stamp, ev.Environment, ev.SnapshotID, ev.Slot)
	case control.EventSwitched:
		return fmt.Sprintf("%s switched to %s", stamp, ev.Environment)
	default:
		return fmt.Sprintf("%s %s %s", stamp, ev.Type, ev.Environment)
	}
}

// RunWatch runs the live watch view until the user quits or ctx is
// cancelled.
func RunWatch(ctx context.Context, coord *control.Coordinator, lines <-chan string) error {
	events, cancel := coord.Events().Subscribe()
	defer cancel()

	m := NewWatch(coord, events, lines)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
