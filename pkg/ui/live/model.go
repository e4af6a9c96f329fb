package live

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skillsetz/careercraft/pkg/stream"
)

var (
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	metricStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// Options configures the live UI model.
type Options struct {
	// Width fixes the progress bar width. 0 keeps the default until
	// the first window size message.
	Width int
}

// Model renders one analysis session using Bubble Tea.
type Model struct {
	updates  <-chan stream.State
	state    stream.State
	spinner  spinner.Model
	progress progress.Model
	cancel   func() bool
	quitting bool
}

// NewModel constructs the UI model for a session update stream. cancel
// runs when the user quits mid-stream and reports whether a session
// was bound to cancel.
func NewModel(updates <-chan stream.State, opts Options, cancel func() bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(progress.WithDefaultGradient())
	if opts.Width > 0 {
		p.Width = opts.Width
	}

	return Model{
		updates:  updates,
		state:    stream.NewState(),
		spinner:  s,
		progress: p,
		cancel:   cancel,
	}
}

// UpdateMsg wraps a session state snapshot for Bubble Tea.
type UpdateMsg struct {
	State stream.State
}

// waitForUpdate blocks until the next state snapshot is available.
func waitForUpdate(updates <-chan stream.State) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		state, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return UpdateMsg{State: state}
	}
}

// Init starts the spinner and waits for the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), m.spinner.Tick)
}

// Update consumes key presses, snapshots, and spinner ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			if m.cancel == nil || !m.cancel() {
				return m, tea.Quit
			}
			// The cancelled session delivers a terminal snapshot,
			// which ends the UI through the update channel.
			return m, nil
		}
		return m, nil
	case tea.WindowSizeMsg:
		if width := typed.Width - 6; width > 10 {
			m.progress.Width = min(width, 60)
		}
		return m, nil
	case UpdateMsg:
		m.state = typed.State
		return m, waitForUpdate(m.updates)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	}
	return m, nil
}

// View renders the session state.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString("\n  " + m.headline() + "\n\n")
	b.WriteString("  " + m.progress.ViewAs(float64(m.state.Progress)/100) + "\n\n")

	if m.state.IsStreaming && m.state.Status != nil && m.state.Status.Message != "" {
		b.WriteString(statusStyle.Render("  "+m.state.Status.Message) + "\n\n")
	}

	if len(m.state.Metrics) > 0 {
		keys := make([]string, 0, len(m.state.Metrics))
		for key := range m.state.Metrics {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			label := strings.ReplaceAll(key, "_", " ")
			b.WriteString(fmt.Sprintf("  %-24s %s\n", label,
				metricStyle.Render(formatMetricValue(m.state.Metrics[key]))))
		}
		b.WriteString("\n")
	}

	if m.state.IsStreaming {
		b.WriteString(hintStyle.Render("  press q to cancel") + "\n")
	}
	return b.String()
}

func (m Model) headline() string {
	switch {
	case m.state.Error != "":
		return failStyle.Render(m.state.Error)
	case !m.state.IsStreaming:
		return okStyle.Render("Analysis complete")
	case m.quitting:
		return m.spinner.View() + " Cancelling..."
	default:
		return m.spinner.View() + " Analyzing your dream job..."
	}
}

// formatMetricValue renders scores as plain integers; anything
// non-numeric (the eligibility verdict) passes through.
func formatMetricValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.Itoa(int(n))
	case int:
		return strconv.Itoa(n)
	default:
		return fmt.Sprint(v)
	}
}
