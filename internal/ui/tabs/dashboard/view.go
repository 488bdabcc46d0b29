package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/ui/components"
	"github.com/j-veylop/codepulse/internal/ui/styles"
)

const (
	maxBreakdownRows  = 5
	maxBreakdownLabel = 20
)

// View renders the dashboard tab.
func (m *Model) View() string {
	if m.loading && m.summary == nil {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}
	if m.errorMsg != "" && m.summary == nil {
		return m.renderError()
	}
	if m.summary == nil || !m.summary.HasData() {
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderTotals(),
		m.renderProgress(),
		m.renderDailyChart(),
		m.renderBreakdowns(),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		styles.HelpStyle.Render(fmt.Sprintf("No coding activity recorded for %s.", m.state.GetTimeRange())),
		styles.HelpStyle.Render("Heartbeats sent with `pulse send` appear here once imported."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	user := m.state.GetUser()
	if len(user) > 40 {
		user = user[:37] + "..."
	}
	title := styles.TitleStyle.Render("Coding time: " + user)

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.state.GetTimeRange()))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if s := m.summary; s != nil && !s.From.IsZero() {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("%s → %s (%s)",
			s.From.Format("Jan 2, 2006"),
			s.To.Add(-1).Format("Jan 2, 2006"),
			s.Timezone,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func statCell(value, label string, style lipgloss.Style) string {
	return lipgloss.NewStyle().Width(18).Render(lipgloss.JoinVertical(lipgloss.Left,
		style.Render(value),
		styles.StatLabelStyle.Render(label),
	))
}

func (m *Model) renderTotals() string {
	s := m.summary
	cardWidth := max(m.width-6, 40)

	best := "none"
	if s.BestDay.Date != "" {
		best = fmt.Sprintf("%s (%s)", components.FormatHours(s.BestDay.Hours), s.BestDay.Date)
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		statCell(components.FormatHours(s.TotalHours), "total", styles.StatValueStyle),
		statCell(components.FormatHours(s.DailyAverage), "daily average", styles.StatValueStyle),
		statCell(fmt.Sprintf("%d", s.ActiveDays), "active days", styles.StatValueStyle),
		statCell(fmt.Sprintf("%d", s.HeartbeatCount), "heartbeats", styles.StatValueStyle),
	)

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Summary"),
		row,
		"",
		styles.HelpStyle.Render("Best day: ")+best,
	))
}

func (m *Model) renderProgress() string {
	s := m.summary
	cardWidth := max(m.width-6, 40)

	streak := styles.StreakStyle.Render(fmt.Sprintf("🔥 %d day streak", s.Streak.Current))
	longest := styles.HelpStyle.Render(fmt.Sprintf("  longest %d", s.Streak.Longest))

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.CardTitleStyle.Render("Progress"),
		streak+longest,
		"",
		m.levelBar.View(s.Level, cardWidth-6),
	))
}

func (m *Model) renderDailyChart() string {
	s := m.summary
	cardWidth := max(m.width-6, 40)

	rows := []string{styles.CardTitleStyle.Render("Daily Hours")}

	daily := s.DailyHours()
	if len(daily) < 2 {
		rows = append(rows, styles.HelpStyle.Render("  Select a longer range to see the daily chart"))
	} else {
		chart := components.RenderLineChart(daily, max(cardWidth-14, 30), 8,
			fmt.Sprintf("%s to %s", s.Days[0].Date, s.Days[len(s.Days)-1].Date))
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}
		rows = append(rows, "", "  "+components.RenderSparkline(daily, min(len(daily), cardWidth-10)))
	}

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderBreakdowns() string {
	cardWidth := max(m.width-6, 40)

	var cards []string
	for _, d := range models.Dimensions {
		breakdown := m.summary.Breakdowns[d]
		if len(breakdown) == 0 {
			continue
		}
		if len(breakdown) > maxBreakdownRows {
			breakdown = breakdown[:maxBreakdownRows]
		}

		values := make([]float64, len(breakdown))
		labels := make([]string, len(breakdown))
		shares := make([]string, len(breakdown))
		for i, b := range breakdown {
			values[i] = b.Hours
			labels[i] = b.Name
			shares[i] = styles.GetShareStyle(b.Percent).Render(fmt.Sprintf("%5.1f%%", b.Percent))
		}

		chart := components.RenderBarChart(values, labels, cardWidth-16, maxBreakdownLabel)
		lines := strings.Split(chart, "\n")
		for i := range lines {
			if i < len(shares) {
				lines[i] = shares[i] + " " + lines[i]
			}
		}

		cards = append(cards, styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.CardTitleStyle.Render(d.String()),
			strings.Join(lines, "\n"),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}
