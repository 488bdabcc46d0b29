package leaderboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codepulse/internal/ui/components"
	"github.com/j-veylop/codepulse/internal/ui/styles"
)

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// View renders the leaderboard tab.
func (m *Model) View() string {
	if m.loading && !m.loaded {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	var sections []string
	sections = append(sections, m.renderTitle())

	switch {
	case m.errorMsg != "" && !m.loaded:
		sections = append(sections, fmt.Sprintf("%s %s",
			styles.ErrorTextStyle.Render("Error:"),
			m.errorMsg,
		))
	case len(m.entries) == 0:
		sections = append(sections, m.renderEmptyState())
	default:
		sections = append(sections, m.renderPodium(), m.renderTable())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Leaderboard")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)
	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.state.GetTimeRange()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)
	subtitle := styles.HelpStyle.Render(fmt.Sprintf("%d users ranked", len(m.entries)))

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

// renderPodium highlights the top three.
func (m *Model) renderPodium() string {
	var parts []string
	for _, e := range m.entries {
		if e.Rank > 3 {
			break
		}
		label := fmt.Sprintf("%s %s %s", medals[e.Rank], e.User, components.FormatHours(e.Hours))
		parts = append(parts, styles.GetRankStyle(e.Rank).Render(label))
	}
	return strings.Join(parts, "   ") + "\n"
}

func (m *Model) renderTable() string {
	cardWidth := max(m.width-6, 60)
	return styles.CardStyle.Width(cardWidth).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	cardWidth := max(m.width-6, 40)

	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.HelpStyle.Render("No users have activity in this range."),
		"",
		styles.HelpStyle.Render("Press 't' to widen the range or 'i' to import the spool."),
	)

	return styles.CardStyle.
		Width(cardWidth).
		Align(lipgloss.Center).
		Render(content)
}
