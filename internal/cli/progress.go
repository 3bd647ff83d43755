package cli

import (
	"fmt"
	"os"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/krishija/campusintel/internal/fanout"
)

const pollInterval = 250 * time.Millisecond

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers polling the tracker.
type tickMsg time.Time

// trackerModel is the bubbletea model for a fan-out batch.
type trackerModel struct {
	label    string
	tracker  *fanout.Tracker
	progress progress.Model
	theme    Theme
	done     bool
	quitting bool
}

func newTrackerModel(label string, tracker *fanout.Tracker) trackerModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return trackerModel{
		label:    label,
		tracker:  tracker,
		progress: prog,
		theme:    defaultTheme,
	}
}

func (m trackerModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.progress.Init())
}

func (m trackerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		if m.tracker.Finished() {
			m.done = true
			return m, tea.Quit
		}
		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m trackerModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m trackerModel) renderContent() string {
	done, failed, total, current := m.tracker.Progress()

	if m.done {
		line := m.theme.completedStyle().Render(fmt.Sprintf("✓ %s: %d/%d", m.label, done, total))
		if failed > 0 {
			line += m.theme.errorStyle().Render(fmt.Sprintf(" (%d degraded)", failed))
		}
		return line + "\n"
	}
	if m.quitting {
		return m.theme.hintStyle().Render("\nWaiting for running research to finish...\n")
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.label))
	bar := m.progress.ViewAs(m.tracker.Fraction())
	counts := fmt.Sprintf("%d/%d", done, total)
	if current != "" {
		counts += " " + m.theme.hintStyle().Render(current)
	}
	return fmt.Sprintf("%s %s %s\n", status, bar, counts)
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// runWithProgress runs work in the background while rendering a progress
// bar bound to tracker. Without a TTY it just waits; a UI failure never
// aborts the research itself.
func runWithProgress(label string, tracker *fanout.Tracker, work func() error) error {
	errCh := make(chan error, 1)
	go func() { errCh <- work() }()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return <-errCh
	}

	p := tea.NewProgram(newTrackerModel(label, tracker))
	if _, err := p.Run(); err != nil {
		logger.Debug("progress UI failed", "error", err)
	}
	return <-errCh
}
