// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autobrr/pixlovarr/internal/buildinfo"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/models"
)

func (h *Handler) serviceStatus(ctx context.Context, cmd chat.Command) {
	queued := 0
	seriesCount, movieCount := 0, 0

	if h.series != nil {
		if items, err := h.series.Queue(ctx); err == nil {
			queued += len(items)
		}
		if series, err := h.series.Series(ctx); err == nil {
			seriesCount = len(series)
		}
	}
	if h.movies != nil {
		if items, err := h.movies.Queue(ctx); err == nil {
			queued += len(items)
		}
		if movies, err := h.movies.Movies(ctx); err == nil {
			movieCount = len(movies)
		}
	}

	counts := map[models.UserStatus]int{}
	for _, status := range []models.UserStatus{models.StatusAllowed, models.StatusBlocked, models.StatusNew} {
		users, err := h.users.ListByStatus(ctx, status)
		if err != nil {
			h.log.Error().Err(err).Msg("user count failed")
			continue
		}
		counts[status] = len(users)
	}

	service := "Closed"
	if h.policy.SignupOpen() {
		service = "Open"
	}

	var b strings.Builder
	b.WriteString("-- Status --\n")
	fmt.Fprintf(&b, "Uptime service: %s\n", time.Since(h.started).Truncate(time.Second))
	fmt.Fprintf(&b, "Series: %d\n", seriesCount)
	fmt.Fprintf(&b, "Movies: %d\n", movieCount)
	fmt.Fprintf(&b, "Items in queue: %d\n", queued)
	fmt.Fprintf(&b, "Granted members: %d\n", counts[models.StatusAllowed])
	fmt.Fprintf(&b, "Blocked members: %d\n", counts[models.StatusBlocked])
	fmt.Fprintf(&b, "New signups: %d\n", counts[models.StatusNew])
	fmt.Fprintf(&b, "Signup: %s\n", service)
	fmt.Fprintf(&b, "Service version: %s\n", buildinfo.Version)

	h.send(ctx, cmd.ChatID, b.String())
}

func (h *Handler) rssSync(ctx context.Context, cmd chat.Command) {
	var b strings.Builder
	b.WriteString("-- RSS Sync triggered --\n")
	b.WriteString("RSS request sent. Latest media posts are being fetched. " +
		"If any new media is available, the download clients are triggered.\n\n")

	if h.series != nil {
		if err := h.series.RSSSync(ctx); err != nil {
			h.log.Error().Err(err).Msg("sonarr rss sync failed")
			b.WriteString("Sonarr: sync failed\n")
		} else {
			b.WriteString("Sonarr: sync requested\n")
		}
	}
	if h.movies != nil {
		if err := h.movies.RSSSync(ctx); err != nil {
			h.log.Error().Err(err).Msg("radarr rss sync failed")
			b.WriteString("Radarr: sync failed\n")
		} else {
			b.WriteString("Radarr: sync requested\n")
		}
	}

	h.send(ctx, cmd.ChatID, b.String())
}

// searchMissing is shared by the /smm command and the search button on
// a movie without a file.
func (h *Handler) searchMissing(ctx context.Context, chatID string) {
	text := "Searching for all missing movies. If you have more missing " +
		"movies, they are all being searched at the moment as well.\n\n"

	if h.movies == nil {
		text += "Radarr: disabled\n"
	} else if err := h.movies.SearchMissing(ctx); err != nil {
		h.log.Error().Err(err).Msg("missing media search failed")
		text += "Radarr: search failed\n"
	} else {
		text += "Radarr: search requested\n"
	}

	h.send(ctx, chatID, text)
}
