package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/codepulse/internal/config"
	"github.com/j-veylop/codepulse/internal/models"
	"github.com/j-veylop/codepulse/internal/services"
	"github.com/j-veylop/codepulse/internal/tracker"
	"github.com/j-veylop/codepulse/internal/version"
)

const (
	sendTimeout   = 10 * time.Second
	importTimeout = time.Minute
)

func newSendCmd(user *string) *cobra.Command {
	var hb models.Heartbeat
	var at string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "send --entity <file>",
		Short: "Record a heartbeat for a file (called by editor plugins)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(hb.Entity) == "" {
				return errors.New("--entity is required")
			}
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --time: %w", err)
				}
				hb.Time = t
			}

			cfg, closer, err := loadConfig(*user)
			if err != nil {
				return err
			}
			defer closer.Close()

			langs, err := tracker.LoadLanguages(cfg.LanguagesPath)
			if err != nil {
				return err
			}

			emitter := tracker.NewEmitter(tracker.EmitterConfig{
				SpoolPath: cfg.SpoolPath,
				StatePath: cfg.StatePath,
				User:      cfg.User,
				Interval:  cfg.HeartbeatInterval,
				Languages: langs,
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
			defer cancel()

			sent, err := emitter.Send(ctx, hb)
			if err != nil {
				return err
			}
			if !quiet {
				status := "throttled"
				if sent {
					status = "sent"
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&hb.Entity, "entity", "", "file being edited")
	cmd.Flags().StringVar(&hb.Project, "project", "", "project name (default: parent directory)")
	cmd.Flags().StringVar(&hb.Language, "language", "", "language (default: detected from the file name)")
	cmd.Flags().StringVar(&hb.Editor, "editor", "", "editor name")
	cmd.Flags().BoolVar(&hb.IsWrite, "write", false, "the file was saved")
	cmd.Flags().StringVar(&at, "time", "", "heartbeat time in RFC 3339 (default: now)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Import spooled heartbeats into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager("", func(_ *config.Config, mgr *services.Manager) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), importTimeout)
				defer cancel()

				res, err := mgr.Import(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d heartbeats from %d batches (%d lines, %d skipped)\n",
					res.Inserted, res.Batches, res.Lines, res.Skipped)
				return nil
			})
		},
	}
}

func newStatsCmd(user *string) *cobra.Command {
	var rangeFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print coding time for a range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseTimeRange(rangeFlag)
			if err != nil {
				return err
			}

			return withManager(*user, func(cfg *config.Config, mgr *services.Manager) error {
				summary, err := mgr.Summary(cfg.User, r)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(summary)
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary, terminalWidth))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "7d", "time range: today, 7d, 30d or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newStreakCmd(user *string) *cobra.Command {
	return &cobra.Command{
		Use:   "streak",
		Short: "Print the current streak and level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(*user, func(cfg *config.Config, mgr *services.Manager) error {
				streak, err := mgr.Streak(cfg.User)
				if err != nil {
					return err
				}
				level, err := mgr.Level(cfg.User)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderStreak(cfg.User, streak, level, terminalWidth))
				return nil
			})
		},
	}
}

func newLeaderboardCmd(user *string) *cobra.Command {
	var rangeFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank users by coding time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := models.ParseTimeRange(rangeFlag)
			if err != nil {
				return err
			}

			return withManager(*user, func(cfg *config.Config, mgr *services.Manager) error {
				entries, err := mgr.Leaderboard(r, limit)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderLeaderboard(entries, r, cfg.User))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "7d", "time range: today, 7d, 30d or all")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of users to show (0 = all)")
	return cmd
}

func newPruneCmd(user *string) *cobra.Command {
	var before string
	var vacuum bool

	cmd := &cobra.Command{
		Use:   "prune --before <YYYY-MM-DD>",
		Short: "Delete heartbeats recorded before a local date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if before == "" {
				return errors.New("--before is required")
			}

			return withManager(*user, func(cfg *config.Config, mgr *services.Manager) error {
				cutoff, err := time.ParseInLocation(time.DateOnly, before, cfg.Location)
				if err != nil {
					return fmt.Errorf("invalid --before: %w", err)
				}

				deleted, err := mgr.Database().DeleteHeartbeatsBefore(cfg.User, cutoff)
				if err != nil {
					return err
				}
				mgr.Stats().Invalidate(cfg.User)

				if vacuum {
					if err := mgr.Database().Vacuum(); err != nil {
						return err
					}
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d heartbeats of %s before %s\n", deleted, cfg.User, before)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "first local date to keep")
	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "compact the database afterwards")
	return cmd
}

func newStatusCmd(user *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database and spool status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(*user, func(cfg *config.Config, mgr *services.Manager) error {
				st, err := mgr.Status()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), renderStatus(cfg, st))
				return nil
			})
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
