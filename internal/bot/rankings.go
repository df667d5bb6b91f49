// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/bot/wizard"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/ranking"
)

// chartCommand maps one ranking command onto its chart.
type chartCommand struct {
	chart     ranking.Chart
	mediaType domain.MediaType
	adjective string
}

var chartCommands = map[string]chartCommand{
	"ts": {ranking.ChartTopTV, domain.MediaTypeSeries, ""},
	"ps": {ranking.ChartPopularTV, domain.MediaTypeSeries, "popular "},
	"tm": {ranking.ChartTopMovies, domain.MediaTypeMovie, ""},
	"pm": {ranking.ChartPopularMovies, domain.MediaTypeMovie, "popular "},
	"ti": {ranking.ChartIndianMovies, domain.MediaTypeMovie, "Indian "},
	"wm": {ranking.ChartBottomMovies, domain.MediaTypeMovie, "worst "},
}

// patienceQuips break up long ranking runs, one every dozen titles.
var patienceQuips = []string{
	"rm -rf /homes/* ... just kidding...",
	"Its hardware that makes a machine fast. Its software that makes a fast machine slow...",
	"We will deliver before the Holidays...",
	"Driving up the IMDb headquarters yourself and asking stuff in person seems faster...",
	"My software never has bugs. It just develops random features...",
}

// parseTopAmount applies the configured default and clamp bounds to a
// T<n> argument.
func (h *Handler) parseTopAmount(arg string) (int, bool) {
	return ranking.ParseTopAmount(arg,
		h.cfg.IMDB.DefaultLimitRanking, h.cfg.IMDB.MinLimitRanking, h.cfg.IMDB.MaxLimitRanking)
}

func (h *Handler) showRankings(ctx context.Context, cmd chat.Command) {
	cc, ok := chartCommands[cmd.Name]
	if !ok {
		return
	}
	if cc.mediaType == domain.MediaTypeSeries && h.series == nil ||
		cc.mediaType == domain.MediaTypeMovie && h.movies == nil {
		return
	}

	limit, _ := h.parseTopAmount(strings.Join(cmd.Args, " "))

	h.send(ctx, cmd.ChatID, "Please be patient...")

	titles, err := h.rankings.Chart(ctx, cc.chart, limit)
	if err != nil {
		h.log.Error().Err(err).Str("chart", string(cc.chart)).Msg("chart fetch failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}

	label := string(cc.mediaType)
	var present, absent []chat.Button

	for i, title := range titles {
		if i%12 == 0 && i != 0 {
			h.send(ctx, cmd.ChatID, patienceQuips[rand.Intn(len(patienceQuips))])
		}

		// Each chart entry is resolved through the backend so the
		// buttons carry real catalog or provider ids.
		var found arr.Media
		if cc.mediaType == domain.MediaTypeSeries {
			results, err := h.series.Lookup(ctx, title.Title)
			if err != nil || len(results) == 0 {
				continue
			}
			found = results[0]
		} else {
			results, err := h.movies.Lookup(ctx, title.Title)
			if err != nil || len(results) == 0 {
				continue
			}
			found = results[0]
		}

		btn := chat.Button{Label: fmt.Sprintf("%s (%d)", found.Title, found.Year)}
		if found.ID != 0 {
			btn.Data = mediaToken(actionMediaInfo, cc.mediaType, found.ID)
			present = append(present, btn)
			continue
		}

		token := wizard.StartToken(found, cc.mediaType)
		if token == "" {
			continue
		}
		btn.Data = token
		absent = append(absent, btn)
	}

	if len(present) > 0 {
		h.sendKeyboard(ctx, cmd.ChatID,
			fmt.Sprintf("We found these %s%ss of the IMDb top %d in the catalog:", cc.adjective, label, limit),
			chat.Rows(present...))
	}
	if len(absent) > 0 {
		h.sendKeyboard(ctx, cmd.ChatID,
			fmt.Sprintf("These %s%ss of IMDb top %d are not in the catalog at the moment:", cc.adjective, label, limit),
			chat.Rows(absent...))
	}
}
