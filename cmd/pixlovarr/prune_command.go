// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/config"
	"github.com/autobrr/pixlovarr/internal/notifications"
	"github.com/autobrr/pixlovarr/internal/prune"
	"github.com/autobrr/pixlovarr/internal/tags"
)

func RunPruneCommand(configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove tagged movies past their retention window",
		Long: `Walks the Radarr library once, removing monitored-tag movies whose
download age crossed the retention window and warning users shortly
before removal. Meant to run from cron or a systemd timer.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), *configPath, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate without deleting or tagging anything")

	return cmd
}

func runPrune(ctx context.Context, configPath string, dryRun bool) error {
	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	cfg.SetupLogger()

	if dryRun {
		cfg.Config.Prune.DryRun = true
	}

	if !cfg.Config.Prune.Enabled {
		return errors.New("prune is disabled in the config")
	}
	if !cfg.Config.Radarr.Enabled || cfg.Config.Radarr.URL == "" || cfg.Config.Radarr.APIKey == "" {
		return errors.New("prune requires a configured radarr backend")
	}

	radarr := arr.NewRadarr(cfg.Config.Radarr.URL, cfg.Config.Radarr.APIKey)
	push := notifications.NewPush(cfg.Config.Push)

	engine := prune.New(cfg.Config, radarr, tags.NewResolver(radarr), push)

	res, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	for _, line := range res.Log {
		log.Info().Msg(line)
	}

	logPath := pruneLogPath(cfg)
	if err := writePruneLog(logPath, res.Log); err != nil {
		log.Warn().Err(err).Str("path", logPath).Msg("failed to write prune run log")
	}

	// Deletions already happened; a failed report must not turn the
	// run into a nonzero exit.
	if err := mailPruneReport(cfg, res); err != nil {
		log.Error().Err(err).Msg("failed to mail prune report")
	}

	return nil
}

func pruneLogPath(cfg *config.AppConfig) string {
	if cfg.Config.Prune.LogPath != "" {
		return cfg.Config.Prune.LogPath
	}
	return filepath.Join(filepath.Dir(cfg.GetDatabasePath()), "pixlovarr_prune.log")
}

// writePruneLog replaces the run report file with this run's lines.
func writePruneLog(path string, lines []string) error {
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}

// mailPruneReport sends the run log to the admin mailbox, honoring the
// only-when-active gate so idle runs stay silent.
func mailPruneReport(cfg *config.AppConfig, res prune.Result) error {
	if !cfg.Config.Mail.Enabled {
		return nil
	}
	if cfg.Config.Mail.OnlyWhenActive && res.Removed == 0 && res.Planned == 0 {
		return nil
	}

	subject := fmt.Sprintf("Pixlovarr - Pruned %d movies and %d planned for removal", res.Removed, res.Planned)
	body := "Hi,\n\nAttached is the prunelog of this run.\n\nRegards,\nPixlovarr"
	attachment := []byte(strings.Join(res.Log, "\n") + "\n")

	mailer := notifications.NewMail(cfg.Config.Mail)
	if err := mailer.Send(subject, body, "pixlovarr_prune.log", attachment); err != nil {
		return fmt.Errorf("failed to mail prune report: %w", err)
	}
	return nil
}
