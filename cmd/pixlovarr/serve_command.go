// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/pixlovarr/internal/approval"
	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/bot"
	"github.com/autobrr/pixlovarr/internal/bot/wizard"
	"github.com/autobrr/pixlovarr/internal/buildinfo"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/config"
	"github.com/autobrr/pixlovarr/internal/database"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/models"
	"github.com/autobrr/pixlovarr/internal/policy"
	"github.com/autobrr/pixlovarr/internal/ranking"
	"github.com/autobrr/pixlovarr/internal/tags"
)

func RunServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Config.Validate(); err != nil {
		return err
	}
	cfg.SetupLogger()

	log.Info().Msgf("starting pixlovarr %s", buildinfo.Version)
	log.Debug().
		Str("botToken", domain.RedactString(cfg.Config.Bot.Token)).
		Bool("sonarr", cfg.Config.Sonarr.Enabled).
		Bool("radarr", cfg.Config.Radarr.Enabled).
		Msg("configuration loaded")

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		return err
	}
	defer db.Close()

	users := models.NewUserStore(db.Conn())
	history := models.NewHistoryStore(db.Conn())

	msgr := chat.NewTelegram(cfg.Config.Bot.Token)

	params := bot.Params{
		Config:    cfg.Config,
		Messenger: msgr,
		Users:     users,
		History:   history,
		Policy:    policy.New(cfg.Config, users),
		Approval:  approval.NewService(users, msgr, cfg.Config.Bot.AdminUserID),
		Rankings:  ranking.NewIMDB(),
	}

	// Interface fields stay nil for disabled backends so handlers can
	// reply "not enabled" instead of erroring.
	var wizSeries wizard.SeriesBackend
	var wizMovies wizard.MovieBackend

	if cfg.Config.Sonarr.Enabled {
		sonarr := arr.NewSonarr(cfg.Config.Sonarr.URL, cfg.Config.Sonarr.APIKey)
		params.Series = sonarr
		params.SeriesTags = tags.NewResolver(sonarr)
		wizSeries = sonarr
		pingBackend(ctx, "sonarr", sonarr)
	}
	if cfg.Config.Radarr.Enabled {
		radarr := arr.NewRadarr(cfg.Config.Radarr.URL, cfg.Config.Radarr.APIKey)
		params.Movies = radarr
		params.MovieTags = tags.NewResolver(radarr)
		wizMovies = radarr
		pingBackend(ctx, "radarr", radarr)
	}

	params.Wizard = wizard.New(cfg.Config, msgr, wizSeries, wizMovies, params.SeriesTags, params.MovieTags)

	handler := bot.New(params)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return msgr.Run(gctx, handler)
	})

	log.Info().Msg("bot is listening for updates")
	return g.Wait()
}

type pinger interface {
	Ping(ctx context.Context) (arr.SystemStatus, error)
}

// pingBackend logs reachability at startup without failing it: the
// backend may simply not be up yet.
func pingBackend(ctx context.Context, name string, p pinger) {
	status, err := p.Ping(ctx)
	if err != nil {
		log.Warn().Err(err).Str("backend", name).Msg("backend not reachable")
		return
	}
	log.Info().Str("backend", name).Str("version", status.Version).Msg("backend connected")
}
