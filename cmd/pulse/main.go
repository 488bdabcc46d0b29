// Package main is the entry point for codepulse. Without a subcommand it runs
// the dashboard TUI; subcommands send heartbeats and print statistics.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/codepulse/internal/app"
	"github.com/j-veylop/codepulse/internal/config"
	"github.com/j-veylop/codepulse/internal/logger"
	"github.com/j-veylop/codepulse/internal/services"
	"github.com/j-veylop/codepulse/internal/ui/tabs/dashboard"
	"github.com/j-veylop/codepulse/internal/ui/tabs/info"
	"github.com/j-veylop/codepulse/internal/ui/tabs/leaderboard"
)

const startupImportTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var user string

	root := &cobra.Command{
		Use:   "pulse",
		Short: "codepulse - coding time tracker",
		Long: `codepulse turns editor heartbeats into coding time, streaks and levels.

Editors call 'pulse send' on file activity. Heartbeats are spooled to disk
and imported into a local SQLite database by the dashboard or 'pulse import'.

Configuration is read from .env (current directory, ~/.config/codepulse/.env
or ~/.codepulse/.env) and the environment: DATABASE_PATH, SPOOL_PATH,
STATE_PATH, PULSE_USER, PULSE_TIMEZONE, HEARTBEAT_INTERVAL, SESSION_GAP,
HEARTBEAT_CREDIT, MAX_HEARTBEAT_DIFF, STATS_CACHE_TTL, LANGUAGES_PATH,
NOTIFICATIONS, LOG_LEVEL and LOG_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(user)
		},
	}
	root.PersistentFlags().StringVarP(&user, "user", "u", "", "user to act as (default PULSE_USER)")

	root.AddCommand(
		newSendCmd(&user),
		newImportCmd(),
		newStatsCmd(&user),
		newStreakCmd(&user),
		newLeaderboardCmd(&user),
		newPruneCmd(&user),
		newStatusCmd(&user),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads configuration, applies the --user override and points
// the logger at LOG_PATH.
func loadConfig(user string) (*config.Config, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if user != "" {
		cfg.User = user
	}

	closer, err := logger.Init(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}

// withManager runs fn with a manager that is closed afterwards.
func withManager(user string, fn func(*config.Config, *services.Manager) error) error {
	cfg, closer, err := loadConfig(user)
	if err != nil {
		return err
	}
	defer closer.Close()

	mgr, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			logger.Warn("error closing services", "error", closeErr)
		}
	}()

	return fn(cfg, mgr)
}

func runTUI(user string) error {
	cfg, closer, err := loadConfig(user)
	if err != nil {
		return err
	}
	defer closer.Close()

	// The TUI owns the terminal, so logs must not go to stderr.
	if cfg.LogPath == "" {
		logger.Logger = logger.Discard()
	}

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), startupImportTimeout)
	if _, err := svcManager.Import(ctx); err != nil {
		logger.Warn("startup import failed", "error", err)
	}
	cancel()

	if err := svcManager.Watch(); err != nil {
		return err
	}

	model := app.NewModel(svcManager, cfg.User)

	state := model.GetState()
	model.SetTabs([]app.Tab{
		dashboard.New(state, svcManager),
		leaderboard.New(state, svcManager),
		info.New(state, cfg, svcManager),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
