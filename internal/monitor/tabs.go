package monitor

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/mabhi256/gvm/internal/tui"
	"github.com/mabhi256/gvm/utils"
)

func (m *Model) renderOverviewTab() string {
	s := m.latest

	status := tui.GoodStyle.Render("running")
	if s.Done {
		status = tui.MutedStyle.Render("finished")
	}

	lines := []string{
		fmt.Sprintf("%s %s", tui.TitleStyle.Render("Status"), status),
		fmt.Sprintf("Uptime           %s", utils.FormatDuration(s.Uptime)),
		fmt.Sprintf("Instructions     %d", s.Instructions),
		fmt.Sprintf("Rate             %.0f instr/s", s.Rate),
		fmt.Sprintf("Classes loaded   %d", s.Classes),
		fmt.Sprintf("Heap             %s of %s",
			utils.MemorySize(s.HeapUsed*8), utils.MemorySize(s.HeapCapacity*8)),
	}
	info := tui.BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	rateChart := m.renderRateSparkline()
	return lipgloss.JoinVertical(lipgloss.Left, info, rateChart)
}

func (m *Model) renderRateSparkline() string {
	if len(m.history) < 2 {
		return tui.MutedStyle.Render("Collecting execution rate data...")
	}

	width := max(m.width-6, 20)
	sl := sparkline.New(width, 6)
	for _, s := range m.history {
		sl.Push(s.Rate)
	}
	sl.Draw()

	title := tui.InfoStyle.Render("Instruction rate")
	return lipgloss.JoinVertical(lipgloss.Left, title, sl.View())
}

func (m *Model) renderOpcodesTab() string {
	rows := m.vm.Stats.TopOpcodes(15)
	if len(rows) == 0 {
		return tui.MutedStyle.Render("No instructions executed yet")
	}

	maxCount := rows[0].Count
	barWidth := max(min(m.width-40, 40), 10)

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, tui.TitleStyle.Render("Most executed opcodes"))
	for _, row := range rows {
		ratio := float64(row.Count) / float64(maxCount)
		bar := tui.CreateProgressBar(ratio, barWidth, tui.InfoColor)
		lines = append(lines, fmt.Sprintf("%-16s %s %d", row.Name, bar, row.Count))
	}
	return tui.BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) renderHeapTab() string {
	s := m.latest

	ratio := 0.0
	if s.HeapCapacity > 0 {
		ratio = float64(s.HeapUsed) / float64(s.HeapCapacity)
	}
	color := tui.GoodColor
	switch {
	case ratio > 0.9:
		color = tui.CriticalColor
	case ratio > 0.7:
		color = tui.WarningColor
	}

	label := fmt.Sprintf("%s / %s",
		utils.MemorySize(s.HeapUsed*8), utils.MemorySize(s.HeapCapacity*8))
	gauge := tui.CreateProgressBarWithLabel(ratio, max(m.width-8, 20), color, label)

	graph := m.renderHeapGraph()
	note := tui.MutedStyle.Render("The arena is bump-allocated and never shrinks")

	return lipgloss.JoinVertical(lipgloss.Left,
		tui.TitleStyle.Render("Arena usage"), gauge, "", graph, note)
}

func (m *Model) renderHeapGraph() string {
	if len(m.history) < 2 {
		return tui.MutedStyle.Render("Collecting heap usage data...")
	}

	width := max(m.width-10, 40)
	chart := timeserieslinechart.New(width, 10)
	for _, s := range m.history {
		chart.Push(timeserieslinechart.TimePoint{
			Time:  s.Taken,
			Value: utils.MemorySize(s.HeapUsed * 8).MB(),
		})
	}
	chart.SetStyle(lipgloss.NewStyle().Foreground(tui.GoodColor))
	chart.DrawBraille()

	legend := lipgloss.NewStyle().Foreground(tui.GoodColor).Render("■ Used MB")
	return lipgloss.JoinVertical(lipgloss.Left, legend, "", chart.View())
}
