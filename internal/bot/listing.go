// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/tags"
)

// catalogScope selects which slice of the catalog a listing shows.
type catalogScope int

const (
	catalogAll catalogScope = iota
	catalogMine
	catalogNew
)

var genreArgRe = regexp.MustCompile(`^#[A-Za-z]+$`)

// listArgs splits command arguments into an optional #genre filter and
// a free-text title filter.
func listArgs(args []string) (genre, title string) {
	rest := make([]string, 0, len(args))
	for _, arg := range args {
		if genre == "" && genreArgRe.MatchString(arg) {
			genre = arg[1:]
			continue
		}
		rest = append(rest, arg)
	}
	return genre, strings.Join(rest, " ")
}

func matchesTitle(title, filter string) bool {
	if filter == "" {
		return true
	}
	return fuzzy.MatchNormalizedFold(filter, title)
}

func matchesGenre(genres []string, genre string) bool {
	if genre == "" {
		return true
	}
	return slices.ContainsFunc(genres, func(g string) bool {
		return strings.EqualFold(g, genre)
	})
}

func sortByTitle(media []arr.Media) {
	slices.SortFunc(media, func(a, b arr.Media) int {
		at, bt := a.SortTitle, b.SortTitle
		if at == "" {
			at = strings.ToLower(a.Title)
		}
		if bt == "" {
			bt = strings.ToLower(b.Title)
		}
		return strings.Compare(at, bt)
	})
}

func (h *Handler) listCatalog(ctx context.Context, cmd chat.Command, mediaType domain.MediaType, scope catalogScope) {
	label := string(mediaType)

	media, resolver, err := h.catalog(ctx, mediaType)
	if err != nil {
		h.log.Error().Err(err).Str("media_type", label).Msg("catalog fetch failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}
	if len(media) == 0 {
		h.send(ctx, cmd.ChatID, fmt.Sprintf("There are no %ss in the catalog.", label))
		return
	}

	h.send(ctx, cmd.ChatID, "Please be patient...")
	sortByTitle(media)

	var ownTagIDs []int
	if scope == catalogMine {
		ownTagIDs, err = resolver.UserTagIDs(ctx, cmd.UserID)
		if err != nil {
			h.log.Error().Err(err).Msg("user tag lookup failed")
			h.send(ctx, cmd.ChatID, "Something went wrong...")
			return
		}
	}

	var cutoff time.Time
	if scope == catalogNew {
		days := h.cfg.Sonarr.PeriodDaysNewDownload
		if mediaType == domain.MediaTypeMovie {
			days = h.cfg.Radarr.PeriodDaysNewDownload
		}
		cutoff = time.Now().AddDate(0, 0, -days)
	}

	genre, title := listArgs(cmd.Args)

	head := fmt.Sprintf("The following %ss in the catalog:", label)
	var buttons []chat.Button
	shown := 0

	flush := func() {
		if len(buttons) == 0 {
			return
		}
		h.sendKeyboard(ctx, cmd.ChatID, head, chat.Rows(buttons...))
		head = "Next section of the catalog:"
		buttons = nil
	}

	for _, m := range media {
		switch scope {
		case catalogMine:
			if !tags.HasAny(m.Tags, ownTagIDs) {
				continue
			}
		case catalogNew:
			if m.Added.Before(cutoff) {
				continue
			}
		}
		if !matchesTitle(m.Title, title) || !matchesGenre(m.Genres, genre) {
			continue
		}

		buttons = append(buttons, chat.Button{
			Label: fmt.Sprintf("%s (%d)", m.Title, m.Year),
			Data:  mediaToken(actionMediaInfo, mediaType, m.ID),
		})
		shown++

		if len(buttons) == listLength {
			flush()
			h.pause(ctx)
		}
	}
	flush()

	switch {
	case shown == 0:
		h.send(ctx, cmd.ChatID, fmt.Sprintf("There were no results found, %s.", cmd.FirstName))
	case shown == len(media):
		h.send(ctx, cmd.ChatID, fmt.Sprintf("Listed %d %ss from the catalog.", shown, label))
	default:
		h.send(ctx, cmd.ChatID, fmt.Sprintf("Listed %d of %d %ss from the catalog.", shown, len(media), label))
	}
}

// catalog returns the full media list and the tag resolver for one
// backend, or an empty list when the backend is disabled.
func (h *Handler) catalog(ctx context.Context, mediaType domain.MediaType) ([]arr.Media, *tags.Resolver, error) {
	if mediaType == domain.MediaTypeSeries {
		if h.series == nil {
			return nil, nil, nil
		}
		media, err := h.series.Series(ctx)
		return media, h.seriesTags, err
	}
	if h.movies == nil {
		return nil, nil, nil
	}
	media, err := h.movies.Movies(ctx)
	return media, h.movieTags, err
}
