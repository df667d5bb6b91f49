// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
)

func formatCalendarItem(item arr.CalendarItem) string {
	title := item.Title
	if item.Series != nil {
		title = item.Series.Title + "\n" + item.Title
	} else if item.Year != 0 {
		title = fmt.Sprintf("%s (%d)", item.Title, item.Year)
	}

	dateText, date := "Date", "-"
	switch {
	case item.InCinemas != nil:
		dateText, date = "In cinemas", item.InCinemas.Format("2006-01-02")
	case item.AirDateUTC != nil:
		dateText, date = "Airdate", item.AirDateUTC.Format("2006-01-02")
	}

	return fmt.Sprintf("%s\n%s: %s\n", title, dateText, date)
}

func calendarSearchText(item arr.CalendarItem) string {
	if item.Series != nil {
		return item.Series.Title + " " + item.Title
	}
	return item.Title
}

func (h *Handler) calendar(ctx context.Context, cmd chat.Command, mediaType domain.MediaType) {
	word := queueWord(mediaType)

	var (
		items []arr.CalendarItem
		err   error
	)
	start := time.Now().Truncate(24 * time.Hour)
	if mediaType == domain.MediaTypeSeries {
		if h.series == nil {
			return
		}
		end := start.AddDate(0, 0, h.cfg.Sonarr.CalendarPeriodDays)
		items, err = h.series.Calendar(ctx, start, end)
	} else {
		if h.movies == nil {
			return
		}
		end := start.AddDate(0, 0, h.cfg.Radarr.CalendarPeriodDays)
		items, err = h.movies.Calendar(ctx, start, end)
	}
	if err != nil {
		h.log.Error().Err(err).Str("media_type", string(mediaType)).Msg("calendar fetch failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}
	if len(items) == 0 {
		h.send(ctx, cmd.ChatID, fmt.Sprintf("There are no scheduled %ss in the calendar.", word))
		return
	}

	filter := strings.Join(cmd.Args, " ")

	var blocks []string
	shown := 0
	for _, item := range items {
		if filter != "" && !fuzzy.MatchNormalizedFold(filter, calendarSearchText(item)) {
			continue
		}
		blocks = append(blocks, formatCalendarItem(item))
		shown++

		if len(blocks) == listLength {
			h.send(ctx, cmd.ChatID, strings.Join(blocks, "\n"))
			blocks = nil
			h.pause(ctx)
		}
	}
	if len(blocks) > 0 {
		h.send(ctx, cmd.ChatID, strings.Join(blocks, "\n"))
	}

	switch {
	case shown == 0:
		h.send(ctx, cmd.ChatID, fmt.Sprintf("There were no results found, %s.", cmd.FirstName))
	case shown == len(items):
		h.send(ctx, cmd.ChatID, fmt.Sprintf("Listed %d scheduled %ss from the calendar.", shown, word))
	default:
		h.send(ctx, cmd.ChatID, fmt.Sprintf("Listed %d of %d scheduled %ss from the calendar.", shown, len(items), word))
	}
}
