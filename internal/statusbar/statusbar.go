// Package statusbar implements the status footer: a minimal bubbletea
// program that observes a running cluster (spec.md's "Status footer" design
// note) by polling Supervisor.GetCluster and sampling each agent's
// subprocess via internal/metrics. It never drives cluster behavior — it
// only reads.
package statusbar

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/zeroshot/zeroshot/internal/agent"
	"github.com/zeroshot/zeroshot/internal/config"
	"github.com/zeroshot/zeroshot/internal/metrics"
	"github.com/zeroshot/zeroshot/internal/orchestrator"
)

const (
	pollInterval   = 500 * time.Millisecond
	sampleInterval = 5 * pollInterval
	sampleWindow   = 150 * time.Millisecond
	nameColumn     = 20
)

// IsTerminal reports whether stdout is an interactive terminal. The
// status footer is skipped entirely otherwise, per spec.md's "headless
// implementation may omit it" note.
func IsTerminal() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Run starts the status footer program for clusterID and blocks until ctx
// is canceled. Intended to run in its own goroutine alongside a cluster.
func Run(ctx context.Context, sup *orchestrator.Supervisor, clusterID string, theme config.ThemeConfig) error {
	m := newModel(sup, clusterID, theme)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithoutSignalHandler())
	_, err := p.Run()
	return err
}

type model struct {
	sup       *orchestrator.Supervisor
	clusterID string
	theme     config.ThemeConfig
	probe     *metrics.Probe

	agents      []agent.Status
	clusterDone bool
	samples     map[string]metrics.Sample
	tick        int
}

func newModel(sup *orchestrator.Supervisor, clusterID string, theme config.ThemeConfig) model {
	return model{
		sup:       sup,
		clusterID: clusterID,
		theme:     theme,
		probe:     metrics.NewProbe(),
		samples:   make(map[string]metrics.Sample),
	}
}

type tickMsg struct{}

type sampleMsg struct {
	agentID string
	sample  metrics.Sample
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		info, ok := m.sup.GetCluster(m.clusterID)
		if !ok || info.State == orchestrator.StateStopped {
			m.clusterDone = true
			return m, tea.Quit
		}
		m.agents = info.Agents
		m.tick++

		cmds := []tea.Cmd{tickCmd()}
		if m.tick%5 == 0 {
			for _, a := range m.agents {
				if a.ChildPID != 0 {
					cmds = append(cmds, m.sampleCmd(a.AgentID, a.ChildPID))
				}
			}
		}
		return m, tea.Batch(cmds...)

	case sampleMsg:
		m.samples[msg.agentID] = msg.sample
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) sampleCmd(agentID string, pid int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sampleWindow+50*time.Millisecond)
		defer cancel()
		sample, err := m.probe.Sample(ctx, pid, sampleWindow)
		if err != nil {
			return nil
		}
		return sampleMsg{agentID: agentID, sample: sample}
	}
}

func (m model) View() string {
	if m.clusterDone {
		return ""
	}
	if len(m.agents) == 0 {
		return dimStyle().Render("zeroshot: waiting for agents...") + "\n"
	}

	rows := make([]string, 0, len(m.agents))
	for _, a := range m.agents {
		rows = append(rows, m.renderAgentRow(a))
	}
	return strings.Join(rows, "\n") + "\n"
}

func (m model) renderAgentRow(a agent.Status) string {
	name := runewidth.Truncate(a.AgentID, nameColumn, "…")
	name = name + strings.Repeat(" ", max(0, nameColumn-runewidth.StringWidth(name)))

	stateStr := stateStyle(a.State).Render(string(a.State))
	metricsStr := ""
	if s, ok := m.samples[a.AgentID]; ok {
		metricsStr = fmt.Sprintf(" cpu=%.0f%% rss=%dMB", s.CPUPercent, s.RSSBytes/(1024*1024))
	}

	return fmt.Sprintf("%s %s%s", nameStyle().Render(name), stateStr, dimStyle().Render(metricsStr))
}

func nameStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func dimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Faint(true)
}

func stateStyle(s agent.State) lipgloss.Style {
	switch s {
	case agent.StateError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	case agent.StateExecuting:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	}
}
