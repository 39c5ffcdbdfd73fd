package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/gvm/internal/jvm"
	"github.com/mabhi256/gvm/internal/tui"
	"github.com/mabhi256/gvm/utils"
)

const (
	sampleInterval = 500 * time.Millisecond
	historyLimit   = 240 // two minutes of samples
)

type tickMsg time.Time

type Model struct {
	vm   *jvm.VM
	done <-chan error

	currentTab TabType
	width      int
	height     int

	latest   Snapshot
	history  []Snapshot
	finished bool

	keys KeyMap
}

func initialModel(vm *jvm.VM, done <-chan error) *Model {
	return &Model{
		vm:         vm,
		done:       done,
		currentTab: OverviewTab,
		keys:       DefaultKeyMap(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(sampleInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		select {
		case <-m.done:
			m.finished = true
		default:
		}

		var prev *Snapshot
		if len(m.history) > 0 {
			prev = &m.history[len(m.history)-1]
		}
		m.latest = sample(m.vm, prev, m.finished)
		m.history = append(m.history, m.latest)
		if len(m.history) > historyLimit {
			m.history = m.history[1:]
		}

		// stop polling once the program is done or the sampler sentinel fired
		if m.finished || m.vm.Stats.Stopped() {
			return m, nil
		}
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab1):
			m.currentTab = OverviewTab
		case key.Matches(msg, m.keys.Tab2):
			m.currentTab = OpcodesTab
		case key.Matches(msg, m.keys.Tab3):
			m.currentTab = HeapTab

		case key.Matches(msg, m.keys.Left):
			utils.CycleEnumPtr(&m.currentTab, -1, HeapTab)
		case key.Matches(msg, m.keys.Right):
			utils.CycleEnumPtr(&m.currentTab, 1, HeapTab)
		}
	}

	return m, nil
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Starting monitor..."
	}

	header := m.renderTabBar()

	var body string
	switch m.currentTab {
	case OpcodesTab:
		body = m.renderOpcodesTab()
	case HeapTab:
		body = m.renderHeapTab()
	default:
		body = m.renderOverviewTab()
	}

	help := tui.HelpBarStyle.Width(m.width).
		Render("1-3/←→ switch tabs · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m *Model) renderTabBar() string {
	labels := []string{"Overview", "Opcodes", "Heap"}
	rendered := make([]string, 0, len(labels))
	for i, label := range labels {
		if TabType(i) == m.currentTab {
			rendered = append(rendered, tui.TabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tui.TabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, rendered...)
}

// Run drives the monitor until the user quits; done is signalled by the
// goroutine running the Java program.
func Run(vm *jvm.VM, done <-chan error) error {
	p := tea.NewProgram(initialModel(vm, done), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
