package info

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codepulse/internal/ui/styles"
	"github.com/j-veylop/codepulse/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderStoreCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, store status and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 90)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration")}

	if cfg := m.config; cfg != nil {
		notifications := "off"
		if cfg.Notifications {
			notifications = "on"
		}
		timezone := cfg.Timezone
		if cfg.Location != nil {
			timezone = cfg.Location.String()
		}

		rows = append(rows,
			m.renderConfigRow("User", cfg.User),
			m.renderConfigRow("Database", cfg.DatabasePath),
			m.renderConfigRow("Spool", cfg.SpoolPath),
			m.renderConfigRow("Throttle State", cfg.StatePath),
			m.renderConfigRow("Timezone", timezone),
			m.renderConfigRow("Heartbeat Every", cfg.HeartbeatInterval.String()),
			m.renderConfigRow("Idle Gap", cfg.Estimator.SessionGap.String()),
			m.renderConfigRow("Gap Credit", cfg.Estimator.HeartbeatCredit.String()),
			m.renderConfigRow("Max Diff", cfg.Estimator.MaxHeartbeatDiff.String()),
			m.renderConfigRow("Cache TTL", cfg.StatsCacheTTL.String()),
			m.renderConfigRow("Notifications", notifications),
		)
		if cfg.LanguagesPath != "" {
			rows = append(rows, m.renderConfigRow("Languages", cfg.LanguagesPath))
		}
		rows = append(rows, "", styles.HelpStyle.Render("Press 'c' to copy the spool path"))
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderStoreCard() string {
	rows := []string{styles.CardTitleStyle.Render("Store")}

	switch {
	case m.statusErr != nil:
		rows = append(rows, styles.ErrorTextStyle.Render(m.statusErr.Error()))
	case m.status == nil:
		rows = append(rows, styles.HelpStyle.Render("Status not loaded"))
	default:
		st := m.status
		rows = append(rows,
			m.renderConfigRow("Schema Version", fmt.Sprintf("%d", st.SchemaVersion)),
			m.renderConfigRow("Users", fmt.Sprintf("%d", st.Users)),
			m.renderConfigRow("Your Heartbeats", fmt.Sprintf("%d", st.Heartbeats)),
		)

		if run := st.LastIngest; run != nil {
			rows = append(rows,
				m.renderConfigRow("Last Import", run.FinishedAt.Local().Format(time.DateTime)),
				m.renderConfigRow("Last Batch", fmt.Sprintf("%d lines, %d new, %d skipped", run.Lines, run.Inserted, run.Skipped)),
			)
		} else {
			rows = append(rows, m.renderConfigRow("Last Import", "never"))
		}
	}

	if last := m.state.GetLastUpdated(); !last.IsZero() {
		rows = append(rows, m.renderConfigRow("Stats Refreshed", last.Format(time.TimeOnly)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About codepulse"),
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
