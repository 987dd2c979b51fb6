package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"yt-music-sync/internal/model"
	"yt-music-sync/internal/status"
)

var (
	watchTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	watchOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	watchWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	watchPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	watchHeaderStyle = lipgloss.NewStyle().Bold(true)
)

const watchLogWindow = 12

type watchTickMsg struct{}

type watchModel struct {
	state   *status.State
	spinner spinner.Model
	width   int
	height  int

	// started flips once the worker picks the task up; the dashboard quits
	// when the run leaves the running phase after that.
	started bool
	final   status.Snapshot
}

func newWatchModel(st *status.State) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	return watchModel{state: st, spinner: sp}
}

func runWatch(st *status.State) error {
	p := tea.NewProgram(newWatchModel(st))
	_, err := p.Run()
	return err
}

func watchTickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, watchTickCmd())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case watchTickMsg:
		snap := m.state.Snapshot()
		if snap.IsRunning {
			m.started = true
		} else if m.started {
			m.final = snap
			return m, tea.Quit
		}
		return m, watchTickCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "c":
			m.state.RequestCancel()
			return m, nil
		}
	}
	return m, nil
}

func (m watchModel) View() string {
	snap := m.state.Snapshot()
	if !snap.IsRunning && m.started {
		snap = m.final
	}
	width := m.width
	if width <= 0 {
		width = 100
	}

	header := watchTitleStyle.Render("ytm-sync run") + "\n" +
		watchMutedStyle.Render("c: request cancel | q: quit view (the run keeps going)")

	lines := []string{
		watchHeaderStyle.Render("Status"),
		"",
		fmt.Sprintf("phase:      %s", renderPhase(snap.Phase)),
		fmt.Sprintf("collection: %s", orDash(snap.CurrentCollection)),
		fmt.Sprintf("item:       %s", orDash(snap.CurrentItem)),
	}
	if snap.Total > 0 {
		lines = append(lines, fmt.Sprintf("progress:   %d/%d", snap.Progress, snap.Total))
	}
	if snap.CancelRequested && snap.IsRunning {
		lines = append(lines, watchWarnStyle.Render("cancel requested, finishing the current operation..."))
	}
	if snap.IsRunning {
		lines[2] = fmt.Sprintf("phase:      %s %s", m.spinner.View(), renderPhase(snap.Phase))
	}
	panel := watchPanelStyle.Width(width - 2).Render(strings.Join(lines, "\n"))

	logs := snap.Logs
	if len(logs) > watchLogWindow {
		logs = logs[len(logs)-watchLogWindow:]
	}
	logLines := make([]string, 0, len(logs)+1)
	logLines = append(logLines, watchHeaderStyle.Render("Log"))
	for _, e := range logs {
		line := fmt.Sprintf("%s [%s] %s", e.Timestamp, e.Level, e.Message)
		switch e.Level {
		case "ERROR":
			line = watchErrorStyle.Render(line)
		case "WARN":
			line = watchWarnStyle.Render(line)
		}
		logLines = append(logLines, line)
	}
	if len(logs) == 0 {
		logLines = append(logLines, watchMutedStyle.Render("waiting for the worker..."))
	}
	logPanel := watchPanelStyle.Width(width - 2).Render(strings.Join(logLines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, panel, logPanel)
}

func renderPhase(phase string) string {
	switch phase {
	case model.PhaseRunning:
		return watchOKStyle.Render(phase)
	case model.PhaseError:
		return watchErrorStyle.Render(phase)
	case model.PhaseCancelled:
		return watchWarnStyle.Render(phase)
	case model.PhaseCompleted:
		return watchOKStyle.Render(phase)
	default:
		return phase
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
