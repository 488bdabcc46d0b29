package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/ui/styles"
)

// LevelBar renders progress towards the next level.
type LevelBar struct {
	progress progress.Model
}

// NewLevelBar creates a level bar with the theme gradient.
func NewLevelBar() LevelBar {
	return LevelBar{
		progress: progress.New(
			progress.WithScaledGradient("#7D56F4", "#5FAFFF"),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
	}
}

// View renders the level badge, the bar and the XP counter within width cells.
func (l LevelBar) View(info models.LevelInfo, width int) string {
	badge := styles.LevelStyle.Render(fmt.Sprintf("Lv %d", info.Level))
	xp := styles.HelpStyle.Render(fmt.Sprintf("%d/%d XP", info.XP, info.NextLevelXP))

	l.progress.Width = max(width-lipgloss.Width(badge)-lipgloss.Width(xp)-2, 10)

	return lipgloss.JoinHorizontal(lipgloss.Center,
		badge, " ",
		l.progress.ViewAs(min(max(info.Progress, 0), 1)),
		" ", xp,
	)
}
