package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/codepulse/internal/config"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/services"
	"github.com/j-veylop/codepulse/internal/ui/components"
	"github.com/j-veylop/codepulse/internal/ui/styles"
)

const (
	terminalWidth  = 80
	breakdownRows  = 5
	breakdownLabel = 24
)

var labelStyle = lipgloss.NewStyle().Width(14).Foreground(styles.TextMuted)

func row(label, value string) string {
	return labelStyle.Render(label) + " " + value + "\n"
}

// renderSummary prints a summary the way the dashboard tab lays it out.
func renderSummary(s *models.Summary, width int) string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("%s · %s", s.User, s.Range)))
	b.WriteString("\n")

	if !s.HasData() {
		b.WriteString(styles.HelpStyle.Render("No coding activity recorded in this range."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(row("Total", styles.StatValueStyle.Render(components.FormatHours(s.TotalHours))))
	b.WriteString(row("Daily average", components.FormatHours(s.DailyAverage)))
	b.WriteString(row("Active days", fmt.Sprintf("%d", s.ActiveDays)))
	if s.BestDay.Date != "" {
		b.WriteString(row("Best day", fmt.Sprintf("%s (%s)", components.FormatHours(s.BestDay.Hours), s.BestDay.Date)))
	}
	b.WriteString(row("Streak", styles.StreakStyle.Render(fmt.Sprintf("%d days", s.Streak.Current))+
		styles.HelpStyle.Render(fmt.Sprintf(" (longest %d)", s.Streak.Longest))))
	b.WriteString(components.NewLevelBar().View(s.Level, width))
	b.WriteString("\n")

	if daily := s.DailyHours(); len(daily) > 1 {
		b.WriteString("\n")
		b.WriteString(components.RenderLineChart(daily, width-12, 6, "hours per day"))
		b.WriteString("\n")
	}

	for _, d := range models.Dimensions {
		rows := s.Breakdowns[d]
		if len(rows) == 0 {
			continue
		}
		if len(rows) > breakdownRows {
			rows = rows[:breakdownRows]
		}

		values := make([]float64, len(rows))
		labels := make([]string, len(rows))
		for i, r := range rows {
			values[i] = r.Hours
			labels[i] = r.Name
		}

		b.WriteString("\n")
		b.WriteString(styles.SubTitleStyle.Render(d.String()))
		b.WriteString("\n")
		b.WriteString(components.RenderBarChart(values, labels, width, breakdownLabel))
		b.WriteString("\n")
	}

	return b.String()
}

func renderStreak(user string, streak models.Streak, level models.LevelInfo, width int) string {
	var b strings.Builder
	b.WriteString(row("User", user))
	b.WriteString(row("Streak", styles.StreakStyle.Render(fmt.Sprintf("%d days", streak.Current))))
	b.WriteString(row("Longest", fmt.Sprintf("%d days", streak.Longest)))
	b.WriteString(components.NewLevelBar().View(level, width))
	b.WriteString("\n")
	return b.String()
}

func renderLeaderboard(entries []models.LeaderboardEntry, r models.TimeRange, current string) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Leaderboard · " + r.String()))
	b.WriteString("\n")

	if len(entries) == 0 {
		b.WriteString(styles.HelpStyle.Render("No users have activity in this range."))
		b.WriteString("\n")
		return b.String()
	}

	header := fmt.Sprintf("%-4s %-24s %10s %8s %5s", "#", "User", "Time", "Streak", "Lv")
	b.WriteString(styles.TableHeaderStyle.Render(header))
	b.WriteString("\n")

	for _, e := range entries {
		line := fmt.Sprintf("%-4d %-24s %10s %8d %5d",
			e.Rank, ansi.Truncate(e.User, 24, "…"), components.FormatHours(e.Hours), e.Streak.Current, e.Level)
		if e.User == current {
			line = styles.TableSelectedStyle.Render(line)
		} else {
			line = styles.GetRankStyle(e.Rank).Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func renderStatus(cfg *config.Config, st services.Status) string {
	var b strings.Builder
	b.WriteString(row("Database", cfg.DatabasePath))
	b.WriteString(row("Spool", cfg.SpoolPath))
	b.WriteString(row("Schema", fmt.Sprintf("v%d", st.SchemaVersion)))
	b.WriteString(row("Users", fmt.Sprintf("%d", st.Users)))
	b.WriteString(row("Heartbeats", fmt.Sprintf("%d (%s)", st.Heartbeats, cfg.User)))
	if run := st.LastIngest; run != nil {
		b.WriteString(row("Last import", fmt.Sprintf("%s, %d new, %d skipped",
			run.FinishedAt.Local().Format(time.DateTime), run.Inserted, run.Skipped)))
	} else {
		b.WriteString(row("Last import", "never"))
	}
	return b.String()
}
